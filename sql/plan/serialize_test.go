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

package plan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graph"
)

func TestGraphNodeToJSONShapesUniquenessAsStrings(t *testing.T) {
	a := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	start := a.Add(ast.Reference{Var: sql.Variable{ID: 9, Name: "start"}})
	node, err := NewGraphNode(a, start, v, sql.Variable{ID: 2, Name: "e"}, sql.SingleServer)
	require.NoError(t, err)
	node.UniqueVertices = graph.UniquePath
	node.UniqueEdges = graph.UniqueGlobal

	data, err := node.ToJSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"uniqueVertices":"path"`)
	require.Contains(t, string(data), `"uniqueEdges":"global"`)
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	a := ast.NewArena()
	_, err := FromJSON(a, []byte("not json"))
	require.ErrorIs(t, err, sql.ErrBadPlan)
}

func TestFromJSONRestoresShortestPathType(t *testing.T) {
	a := ast.NewArena()
	start := a.Add(ast.Literal{Val: ast.StringVal("vertices/1")})
	node, err := NewGraphNode(a, start, sql.Variable{ID: 1, Name: "v"}, sql.Variable{ID: 2, Name: "e"}, sql.SingleServer)
	require.NoError(t, err)
	node.Type = TypeShortestPath

	data, err := node.ToJSON()
	require.NoError(t, err)

	b := ast.NewArena()
	restored, err := FromJSON(b, data)
	require.NoError(t, err)
	require.Equal(t, TypeShortestPath, restored.Type)
}

// TestGraphNodeJSONRoundTripsLookupInfoAndExpressions covers spec §6's full
// wire shape: baseLookupInfos/depthLookupInfo, vertex/prune/post-filter
// expressions, and the scalar traversal parameters must all survive a
// ToJSON/FromJSON round trip into a fresh arena.
func TestGraphNodeJSONRoundTripsLookupInfoAndExpressions(t *testing.T) {
	a := ast.NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	start := a.Add(ast.Literal{Val: ast.StringVal("vertices/1")})
	node, err := NewGraphNode(a, start, v, sql.Variable{ID: 2, Name: "e"}, sql.SingleServer)
	require.NoError(t, err)
	require.NoError(t, node.SetDepthBounds(1, 3))

	cond := a.Add(ast.Binary{
		Op:    ast.OpEq,
		Left:  a.Add(ast.Attribute{Parent: a.Add(ast.Reference{Var: v}), Name: "_from"}),
		Right: a.Add(ast.Literal{Val: ast.StringVal("vertices/1")}),
	})
	node.RegisterCondition("edges", sql.Outbound, cond)
	_, err = node.PrepareOptions(fakeCatalog{}, fakeSource{}, nil)
	require.NoError(t, err)

	node.SetPruneExpression(a.Add(ast.Literal{Val: ast.BoolVal(true)}))
	require.NoError(t, node.RegisterPostFilterCondition(a.Add(ast.Reference{Var: v}), nil))
	node.SetBaseVertexExpression(a.Add(ast.Literal{Val: ast.BoolVal(true)}))
	node.Order = graph.Weighted
	require.NoError(t, node.SetWeight("weight", decimalFromInt(2)))
	node.SetVertexCollections([]string{"vertices"})
	node.SetProduceVertices(false)
	node.SetParallelism(4)

	data, err := node.ToJSON()
	require.NoError(t, err)

	b := ast.NewArena()
	restored, err := FromJSON(b, data)
	require.NoError(t, err)

	require.Equal(t, graph.Weighted, restored.Order)
	require.Equal(t, "weight", restored.WeightAttribute)
	require.True(t, restored.DefaultWeight.Equal(decimalFromInt(2)))
	require.Equal(t, []string{"vertices"}, restored.VertexCollections)
	require.False(t, restored.ProduceVertices)
	require.Equal(t, uint(4), restored.Parallelism)
	require.True(t, restored.PruneExpr.Valid())
	require.True(t, restored.BaseVertexExpr.Valid())
	require.Len(t, restored.postFilters, 1)

	opts, err := restored.PrepareOptions(fakeCatalog{}, fakeSource{}, nil)
	require.NoError(t, err)
	cur, err := opts.BuildCursor("edges", sql.Outbound, 0, "vertices/1", nil)
	require.NoError(t, err)
	require.True(t, cur.Info.Condition.Valid())
}

func decimalFromInt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
