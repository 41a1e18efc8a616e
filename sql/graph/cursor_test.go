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

// repositionableEdgeSource hands out a single shared iterator so the test
// can observe whether Rearm repositioned it in place or asked for a new
// one.
type repositionableEdgeSource struct {
	iter    *repositionableIterator
	lookups int
}

func (s *repositionableEdgeSource) Lookup(collection string, direction sql.Direction, key string) (EdgeIterator, error) {
	s.lookups++
	s.iter.key = key
	s.iter.pos = 0
	return s.iter, nil
}

type repositionableIterator struct {
	key          string
	pos          int
	repositioned int
}

func (it *repositionableIterator) Next() (Edge, bool, error) { return Edge{}, false, nil }
func (it *repositionableIterator) Close() error               { return nil }
func (it *repositionableIterator) Repositionable() bool       { return true }
func (it *repositionableIterator) Reposition(key string) error {
	it.key = key
	it.pos = 0
	it.repositioned++
	return nil
}

func TestCursorRearmRepositionsInPlaceWhenSupported(t *testing.T) {
	arena := ast.NewArena()
	source := &repositionableEdgeSource{iter: &repositionableIterator{}}
	info := graphindex.LookupInfo{Direction: sql.Outbound, Condition: arena.Add(ast.Literal{Val: ast.BoolVal(true)})}
	v := sql.Variable{ID: 1, Name: "v"}
	counters := &Counters{}

	cur := NewCursor(arena, "edges", info, v, source, counters, nil)
	require.NoError(t, cur.Rearm("vertices/A"))
	require.Equal(t, 1, source.lookups, "first rearm has no existing iterator, so it must allocate one")

	require.NoError(t, cur.Rearm("vertices/B"))
	require.Equal(t, 1, source.lookups, "second rearm should reposition the existing iterator, not call Lookup again")
	require.Equal(t, 1, source.iter.repositioned)
	require.Equal(t, "vertices/B", source.iter.key)
}

func TestCursorRearmReallocatesWhenNotRepositionable(t *testing.T) {
	arena := ast.NewArena()
	source := newFakeEdgeSource()
	source.addEdge("edges", "e1", "vertices/A", "vertices/B", 1)
	source.addEdge("edges", "e2", "vertices/C", "vertices/D", 1)
	info := graphindex.LookupInfo{Direction: sql.Outbound, Condition: arena.Add(ast.Literal{Val: ast.BoolVal(true)})}
	v := sql.Variable{ID: 1, Name: "v"}
	counters := &Counters{}

	cur := NewCursor(arena, "edges", info, v, source, counters, nil)
	require.NoError(t, cur.Rearm("vertices/A"))
	e, ok, err := cur.Next(staticContext{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "e1", e.ID)

	require.NoError(t, cur.Rearm("vertices/C"))
	e, ok, err = cur.Next(staticContext{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "e2", e.ID)
}

type staticContext struct{}

func (staticContext) ContextFor(e Edge) ast.ExpressionContext { return ast.NoVarContext{} }
