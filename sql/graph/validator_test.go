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
)

func TestPathValidatorNoneAlwaysValid(t *testing.T) {
	v := NewPathValidator(UniqueNone, UniqueNone)
	require.True(t, v.ValidateVertex([]string{"a", "b"}, "a"))
	require.True(t, v.ValidateVertex([]string{"a", "b"}, "a"))
}

func TestPathValidatorPathRejectsRevisitWithinPathOnly(t *testing.T) {
	v := NewPathValidator(UniquePath, UniqueNone)
	require.False(t, v.ValidateVertex([]string{"a", "b"}, "a"))
	require.True(t, v.ValidateVertex([]string{"a", "b"}, "c"))
	// A different path containing "a" again is fine: PATH state isn't
	// shared across paths.
	require.True(t, v.ValidateVertex([]string{"x", "y"}, "a"))
}

func TestPathValidatorGlobalRejectsAcrossPathsAndRollsBack(t *testing.T) {
	v := NewPathValidator(UniqueGlobal, UniqueGlobal)
	require.True(t, v.ValidateVertex(nil, "a"))
	require.False(t, v.ValidateVertex(nil, "a"))

	v.UnmarkVertex("a")
	require.True(t, v.ValidateVertex(nil, "a"))

	require.True(t, v.ValidateEdge(nil, "e1"))
	require.False(t, v.ValidateEdge(nil, "e1"))
	v.UnmarkEdge("e1")
	require.True(t, v.ValidateEdge(nil, "e1"))
}
