// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/graphwalk/sql/ast"
)

func TestFixtureGraphOutDegreeAndNeighbors(t *testing.T) {
	fixture := NewFixtureGraph()
	require.NoError(t, fixture.AddEdge("vertices/A", "vertices/B"))
	require.NoError(t, fixture.AddEdge("vertices/A", "vertices/C"))

	degree, err := fixture.OutDegree("vertices/A")
	require.NoError(t, err)
	require.Equal(t, 2, degree)

	neighbors, err := fixture.Neighbors("vertices/A")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"vertices/B", "vertices/C"}, neighbors)
}

func TestAddIndexFromOutDegreeScalesCostWithDegree(t *testing.T) {
	fixture := NewFixtureGraph()
	require.NoError(t, fixture.AddEdge("vertices/A", "vertices/B"))
	require.NoError(t, fixture.AddEdge("vertices/A", "vertices/C"))
	require.NoError(t, fixture.AddEdge("vertices/D", "vertices/B"))

	catalog := NewFakeCatalog()
	require.NoError(t, AddIndexFromOutDegree(catalog, fixture, "edges", "vertices/A", "idx-a"))
	require.NoError(t, AddIndexFromOutDegree(catalog, fixture, "edges", "vertices/D", "idx-d"))

	candidates, err := catalog.CandidateIndexes("edges", nil, ast.Zero, 1000)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, 3.0, candidates[0].Cost)
	require.Equal(t, 2.0, candidates[1].Cost)
}
