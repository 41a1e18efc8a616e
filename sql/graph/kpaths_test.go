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

package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graphindex"
)

// TestKPathsFindsBranchingPath covers spec §8's "k-paths with branch"
// scenario, using its literal parameters (minDepth=1, maxDepth=3): A->B->D
// and A->C->D both exist; k-paths from A to D must surface exactly both,
// each exactly once, even though the wider maxDepth lets the forward ball
// reach D directly (a second, deeper route to the same meeting vertex that
// must not produce a duplicate emission of an already-found path).
func TestKPathsFindsBranchingPath(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}

	forwardSource := newFakeEdgeSource()
	forwardSource.addEdge("edges", "e1", "vertices/A", "vertices/B", 1)
	forwardSource.addEdge("edges", "e2", "vertices/A", "vertices/C", 1)
	forwardSource.addEdge("edges", "e3", "vertices/B", "vertices/D", 1)
	forwardSource.addEdge("edges", "e4", "vertices/C", "vertices/D", 1)

	opts := newTestOptions(t, arena, forwardSource, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 1, 3
	// The backward ball scans the same collection inbound, so it needs its
	// own registry.
	opts.SetRegistry("edges", sql.Inbound, graphindex.NewRegistry([]graphindex.LookupInfo{{
		Direction: sql.Inbound,
		Condition: arena.Add(ast.Literal{Val: ast.BoolVal(true)}),
	}}))

	validator := NewPathValidator(UniqueNone, UniqueNone)
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, nil, nil, nil)

	forwardSpecs := []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Outbound}}
	backwardSpecs := []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Inbound}}

	paths, err := enum.KPaths("vertices/A", "vertices/D", forwardSpecs, backwardSpecs)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	var middles []string
	for _, p := range paths {
		require.Equal(t, "vertices/A", p.VertexIDs[0])
		require.Equal(t, "vertices/D", p.VertexIDs[len(p.VertexIDs)-1])
		middles = append(middles, p.VertexIDs[1])
	}
	require.ElementsMatch(t, []string{"vertices/B", "vertices/C"}, middles)
}

func TestKPathsSameStartAndEndAtDepthZero(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	source := newFakeEdgeSource()
	opts := newTestOptions(t, arena, source, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 0, 2

	validator := NewPathValidator(UniqueNone, UniqueNone)
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, nil, nil, nil)

	paths, err := enum.KPaths("vertices/A", "vertices/A", nil, nil)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, []string{"vertices/A"}, paths[0].VertexIDs)
}
