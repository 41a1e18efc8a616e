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

package main

import (
	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graph"
)

// memEdge is one canned edge document.
type memEdge struct {
	id, from, to string
	weight       int64
}

// memStore is the canned in-memory graph this harness exercises every
// component against: it implements both graph.EdgeSource (the Edge
// Cursor's collaborator) and graph.VertexFetcher, playing the role spec §1
// assigns to a real storage/transaction layer.
type memStore struct {
	edges map[string][]memEdge
}

func newMemStore() *memStore {
	return &memStore{edges: make(map[string][]memEdge)}
}

func (s *memStore) addEdge(collection, id, from, to string, weight int64) {
	s.edges[collection] = append(s.edges[collection], memEdge{id: id, from: from, to: to, weight: weight})
}

func (s *memStore) Lookup(collection string, direction sql.Direction, key string) (graph.EdgeIterator, error) {
	return &memEdgeIterator{store: s, collection: collection, direction: direction, key: key}, nil
}

func (s *memStore) Get(id string) (ast.Value, error) {
	return ast.ObjectVal(map[string]ast.Value{"_id": ast.StringVal(id)}), nil
}

// memEdgeIterator scans its collection's full edge list on every Next call,
// filtering by direction/key in place — it never materializes a matched
// slice up front, which is what lets Reposition reseek it onto a new key
// for free instead of rebuilding it.
type memEdgeIterator struct {
	store      *memStore
	collection string
	direction  sql.Direction
	key        string
	pos        int
}

func (it *memEdgeIterator) Next() (graph.Edge, bool, error) {
	edges := it.store.edges[it.collection]
	for it.pos < len(edges) {
		e := edges[it.pos]
		it.pos++
		match := (it.direction == sql.Outbound && e.from == it.key) || (it.direction == sql.Inbound && e.to == it.key)
		if !match {
			continue
		}
		doc := ast.ObjectVal(map[string]ast.Value{
			"_id":    ast.StringVal(e.id),
			"_from":  ast.StringVal(e.from),
			"_to":    ast.StringVal(e.to),
			"weight": ast.IntVal(e.weight),
		})
		return graph.Edge{ID: e.id, From: e.from, To: e.to, Doc: doc}, true, nil
	}
	return graph.Edge{}, false, nil
}

func (it *memEdgeIterator) Close() error { return nil }

// Repositionable is true: Next re-filters from the full collection on every
// call rather than scanning a pre-matched slice, so Reposition can just
// swap the key and rewind without the store re-running Lookup.
func (it *memEdgeIterator) Repositionable() bool { return true }

func (it *memEdgeIterator) Reposition(key string) error {
	it.key = key
	it.pos = 0
	return nil
}

// cannedGraph builds the small diamond-plus-shortcut fixture the CLI
// demonstrates every order on: A -> B -> D, A -> C -> D, and a direct,
// heavier A -> D edge so the weighted order visibly prefers the longer but
// cheaper route.
func cannedGraph() *memStore {
	s := newMemStore()
	s.addEdge("edges", "e1", "vertices/A", "vertices/B", 1)
	s.addEdge("edges", "e2", "vertices/B", "vertices/D", 1)
	s.addEdge("edges", "e3", "vertices/A", "vertices/C", 1)
	s.addEdge("edges", "e4", "vertices/C", "vertices/D", 1)
	s.addEdge("edges", "e5", "vertices/A", "vertices/D", 10)
	return s
}
