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

// newTestOptions wires up a TraverserOptions against source with a trivial
// always-matching registry for one edge collection/direction, depth- and
// collection-agnostic (test fixtures are small enough that a single
// registry entry covers every depth).
func newTestOptions(t *testing.T, arena *ast.Arena, source EdgeSource, collection string, direction sql.Direction, vertexVar sql.Variable) *TraverserOptions {
	t.Helper()
	opts := NewTraverserOptions(arena, source, nil)
	opts.VertexVar = vertexVar
	always := graphindex.LookupInfo{
		Direction: direction,
		Condition: arena.Add(ast.Literal{Val: ast.BoolVal(true)}),
	}
	reg := graphindex.NewRegistry([]graphindex.LookupInfo{always})
	opts.SetRegistry(collection, direction, reg)
	return opts
}

// linearChain builds A -> B -> C -> D in "edges", the spec §8 "linear
// chain" scenario.
func linearChain() *fakeEdgeSource {
	src := newFakeEdgeSource()
	src.addEdge("edges", "e1", "vertices/A", "vertices/B", 1)
	src.addEdge("edges", "e2", "vertices/B", "vertices/C", 1)
	src.addEdge("edges", "e3", "vertices/C", "vertices/D", 1)
	return src
}

func TestEnumeratorDFSLinearChain(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	source := linearChain()
	opts := newTestOptions(t, arena, source, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 1, 3

	validator := NewPathValidator(UniquePath, UniquePath)
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Outbound}}, nil, nil)

	paths, err := enum.Run("vertices/A")
	require.NoError(t, err)
	require.Len(t, paths, 3)

	var got []string
	for _, p := range paths {
		got = append(got, p.VertexIDs[len(p.VertexIDs)-1])
	}
	require.ElementsMatch(t, []string{"vertices/B", "vertices/C", "vertices/D"}, got)
}

// TestEnumeratorPostFilterOnlyAffectsEmission covers spec §8's invariant
// that a post-filter never affects which paths are expanded, only which are
// emitted: rejecting the path ending at vertices/C must not stop the walk
// from reaching vertices/D through it.
func TestEnumeratorPostFilterOnlyAffectsEmission(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	source := linearChain()
	opts := newTestOptions(t, arena, source, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 1, 3
	opts.PostFilterExpr = arena.Add(ast.Binary{
		Op:    ast.OpNe,
		Left:  arena.Add(ast.Attribute{Parent: arena.Add(ast.Reference{Var: v}), Name: "_id"}),
		Right: arena.Add(ast.Literal{Val: ast.StringVal("vertices/C")}),
	})

	validator := NewPathValidator(UniquePath, UniquePath)
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Outbound}}, nil, nil)

	paths, err := enum.Run("vertices/A")
	require.NoError(t, err)

	var got []string
	for _, p := range paths {
		got = append(got, p.VertexIDs[len(p.VertexIDs)-1])
	}
	require.ElementsMatch(t, []string{"vertices/B", "vertices/D"}, got)
}

func TestEnumeratorBFSGlobalUniquenessRejectsRevisit(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	source := newFakeEdgeSource()
	// A diamond: A->B, A->C, B->D, C->D. With GLOBAL vertex uniqueness, D
	// is reached once (whichever branch wins the race), not twice.
	source.addEdge("edges", "e1", "vertices/A", "vertices/B", 1)
	source.addEdge("edges", "e2", "vertices/A", "vertices/C", 1)
	source.addEdge("edges", "e3", "vertices/B", "vertices/D", 1)
	source.addEdge("edges", "e4", "vertices/C", "vertices/D", 1)

	opts := newTestOptions(t, arena, source, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 1, 2
	opts.Order = BreadthFirst

	validator := NewPathValidator(UniqueGlobal, UniqueNone)
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Outbound}}, nil, nil)

	paths, err := enum.Run("vertices/A")
	require.NoError(t, err)

	dCount := 0
	for _, p := range paths {
		if p.VertexIDs[len(p.VertexIDs)-1] == "vertices/D" {
			dCount++
		}
	}
	require.Equal(t, 1, dCount)
}

func TestEnumeratorWeightedOrdersByCumulativeWeight(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	source := newFakeEdgeSource()
	// A->B weight 5 (direct, expensive) and A->C->B weight 1+1 (cheap).
	source.addEdge("edges", "e1", "vertices/A", "vertices/B", 5)
	source.addEdge("edges", "e2", "vertices/A", "vertices/C", 1)
	source.addEdge("edges", "e3", "vertices/C", "vertices/B", 1)

	opts := newTestOptions(t, arena, source, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 1, 2
	opts.Order = Weighted
	opts.WeightAttribute = "weight"

	validator := NewPathValidator(UniqueGlobal, UniqueNone)
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Outbound}}, nil, nil)

	paths, err := enum.Run("vertices/A")
	require.NoError(t, err)

	// GLOBAL uniqueness means B is only accepted once, via whichever path
	// the priority queue pops first — the cheaper two-hop path.
	var toB []Path
	for _, p := range paths {
		if p.VertexIDs[len(p.VertexIDs)-1] == "vertices/B" {
			toB = append(toB, p)
		}
	}
	require.Len(t, toB, 1)
	require.Equal(t, []string{"vertices/A", "vertices/C", "vertices/B"}, toB[0].VertexIDs)
}

func TestEnumeratorPruneStopsExpansion(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	source := linearChain()

	opts := newTestOptions(t, arena, source, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 1, 3
	// Prune everything: never expand past any vertex, so only depth-1
	// results (direct neighbors of the start) come back.
	opts.PruneExpr = arena.Add(ast.Literal{Val: ast.BoolVal(true)})

	validator := NewPathValidator(UniquePath, UniquePath)
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Outbound}}, nil, nil)

	paths, err := enum.Run("vertices/A")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, "vertices/B", paths[0].VertexIDs[len(paths[0].VertexIDs)-1])
}

func TestEnumeratorKilledAbortsWithQueryKilledError(t *testing.T) {
	arena := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	source := linearChain()
	opts := newTestOptions(t, arena, source, "edges", sql.Outbound, v)
	opts.MinDepth, opts.MaxDepth = 1, 3

	validator := NewPathValidator(UniquePath, UniquePath)
	killed := func() bool { return true }
	enum := NewEnumerator(opts, validator, fakeVertexFetcher{}, []EdgeCollectionSpec{{Collection: "edges", Direction: sql.Outbound}}, killed, nil)

	_, err := enum.Run("vertices/A")
	require.ErrorIs(t, err, sql.ErrQueryKilled)
}
