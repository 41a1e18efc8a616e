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

package graphindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
)

// fakeCatalog is a stand-in for the storage-engine collaborator (spec §1
// declares the real index implementation out of scope). It returns a fixed
// set of candidates regardless of the condition it's asked about.
type fakeCatalog struct {
	candidates []Candidate
}

func (f fakeCatalog) CandidateIndexes(collection string, arena *ast.Arena, condition ast.Handle, nominalCardinality int) ([]Candidate, error) {
	return f.candidates, nil
}

func TestBuildAccessorPicksLowestCostAndSplitsResidual(t *testing.T) {
	src := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v", Kind: sql.TemporaryVariable}

	// v._from == "vertices/1" AND v.weight > 3
	fromEq := src.Add(ast.Binary{
		Op:    ast.OpEq,
		Left:  src.Add(ast.Attribute{Parent: src.Add(ast.Reference{Var: v}), Name: "_from"}),
		Right: src.Add(ast.Literal{Val: ast.StringVal("vertices/1")}),
	})
	weightFilter := src.Add(ast.Binary{
		Op:    ast.OpGt,
		Left:  src.Add(ast.Attribute{Parent: src.Add(ast.Reference{Var: v}), Name: "weight"}),
		Right: src.Add(ast.Literal{Val: ast.IntVal(3)}),
	})
	cond := src.Add(ast.Nary{Op: ast.OpAnd, Members: []ast.Handle{fromEq, weightFilter}})

	catalog := fakeCatalog{candidates: []Candidate{
		{Handle: IndexHandle{ID: "edge-from-idx"}, Cost: 5, CoveredAttrs: []sql.AttributePath{{"_from"}}},
		{Handle: IndexHandle{ID: "edge-from-idx-2"}, Cost: 50},
	}}

	dst := ast.NewArena()
	info, err := BuildAccessor(dst, src, cond, "edges", v, sql.Outbound, catalog, nil)
	require.NoError(t, err)

	require.Len(t, info.IdxHandles, 1)
	require.Equal(t, "edge-from-idx", info.IdxHandles[0].ID)
	require.True(t, info.ConditionNeedUpdate)
	require.Equal(t, 0, info.ConditionMemberToUpdate)

	require.True(t, info.Residual.Valid())
	residualBin, ok := dst.Get(info.Residual).(ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.OpGt, residualBin.Op)
}

func TestBuildAccessorHintedIndexWinsOverCost(t *testing.T) {
	src := ast.NewArena()
	v := sql.Variable{ID: 2, Name: "v"}
	cond := src.Add(ast.Binary{
		Op:    ast.OpEq,
		Left:  src.Add(ast.Attribute{Parent: src.Add(ast.Reference{Var: v}), Name: "_from"}),
		Right: src.Add(ast.Literal{Val: ast.StringVal("vertices/1")}),
	})

	catalog := fakeCatalog{candidates: []Candidate{
		{Handle: IndexHandle{ID: "cheap"}, Cost: 1},
		{Handle: IndexHandle{ID: "expensive-but-hinted"}, Cost: 99},
	}}

	dst := ast.NewArena()
	info, err := BuildAccessor(dst, src, cond, "edges", v, sql.Outbound, catalog, []string{"expensive-but-hinted"})
	require.NoError(t, err)
	require.Equal(t, "expensive-but-hinted", info.IdxHandles[0].ID)
}

func TestBuildAccessorNoIndexErrors(t *testing.T) {
	src := ast.NewArena()
	v := sql.Variable{ID: 3, Name: "v"}
	cond := src.Add(ast.Literal{Val: ast.BoolVal(true)})

	dst := ast.NewArena()
	_, err := BuildAccessor(dst, src, cond, "edges", v, sql.Outbound, fakeCatalog{}, nil)
	require.ErrorIs(t, err, sql.ErrNoIndex)
}

func TestBuildAccessorCollectsNonConstSubexpressions(t *testing.T) {
	src := ast.NewArena()
	v := sql.Variable{ID: 4, Name: "v"}
	other := sql.Variable{ID: 5, Name: "x"}

	fromEq := src.Add(ast.Binary{
		Op:    ast.OpEq,
		Left:  src.Add(ast.Attribute{Parent: src.Add(ast.Reference{Var: v}), Name: "_from"}),
		Right: src.Add(ast.Literal{Val: ast.StringVal("vertices/1")}),
	})
	dynamicFilter := src.Add(ast.Binary{
		Op:    ast.OpEq,
		Left:  src.Add(ast.Attribute{Parent: src.Add(ast.Reference{Var: v}), Name: "label"}),
		Right: src.Add(ast.Reference{Var: other}),
	})
	cond := src.Add(ast.Nary{Op: ast.OpAnd, Members: []ast.Handle{fromEq, dynamicFilter}})

	catalog := fakeCatalog{candidates: []Candidate{{Handle: IndexHandle{ID: "idx"}, Cost: 1}}}
	dst := ast.NewArena()
	info, err := BuildAccessor(dst, src, cond, "edges", v, sql.Outbound, catalog, nil)
	require.NoError(t, err)
	require.NotEmpty(t, info.NonConst)
}
