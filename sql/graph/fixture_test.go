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
	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
)

// fixtureEdge is one row of a fakeEdgeSource's adjacency list.
type fixtureEdge struct {
	id, from, to string
	weight       int64
}

// fakeEdgeSource is an in-memory stand-in for the storage-engine
// collaborator (spec §1 keeps the real index/collection implementation out
// of scope): a flat edge list, scanned linearly per Lookup call.
type fakeEdgeSource struct {
	edges map[string][]fixtureEdge // collection -> edges
}

func newFakeEdgeSource() *fakeEdgeSource { return &fakeEdgeSource{edges: make(map[string][]fixtureEdge)} }

func (f *fakeEdgeSource) addEdge(collection, id, from, to string, weight int64) {
	f.edges[collection] = append(f.edges[collection], fixtureEdge{id: id, from: from, to: to, weight: weight})
}

func (f *fakeEdgeSource) Lookup(collection string, direction sql.Direction, key string) (EdgeIterator, error) {
	var matches []fixtureEdge
	for _, e := range f.edges[collection] {
		match := e.from == key
		if direction == sql.Inbound {
			match = e.to == key
		}
		if match {
			matches = append(matches, e)
		}
	}
	return &fakeEdgeIterator{edges: matches}, nil
}

type fakeEdgeIterator struct {
	edges []fixtureEdge
	pos   int
}

func (it *fakeEdgeIterator) Next() (Edge, bool, error) {
	if it.pos >= len(it.edges) {
		return Edge{}, false, nil
	}
	e := it.edges[it.pos]
	it.pos++
	return Edge{
		ID:   e.id,
		From: e.from,
		To:   e.to,
		Doc:  ast.ObjectVal(map[string]ast.Value{"weight": ast.IntVal(e.weight)}),
	}, true, nil
}

func (it *fakeEdgeIterator) Close() error { return nil }

// Repositionable is always false here: Lookup already filtered this
// iterator's edges down to one key, so there is nothing to reposition it
// onto without going back through fakeEdgeSource.Lookup for a fresh scan.
func (it *fakeEdgeIterator) Repositionable() bool { return false }

// fakeVertexFetcher returns an empty object document for any id; tests that
// need vertex attributes build their own.
type fakeVertexFetcher struct{}

func (fakeVertexFetcher) Get(id string) (ast.Value, error) {
	return ast.ObjectVal(map[string]ast.Value{"_id": ast.StringVal(id)}), nil
}
