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

// Package testutil provides fake index/graph fixtures for exercising the
// Index Accessor Builder and Enumerator without a real storage engine
// (spec §1 puts the storage/transaction layer out of scope). The catalog
// fake is adapted from the teacher's sql/test_util.TestIndexDriver — a
// table name keyed to a fixed index list, looked up by name rather than
// computed — generalized here to a collection-name key and real
// Candidate cost numbers instead of a stub driver interface.
package testutil

import (
	"fmt"

	dgraph "github.com/dominikbraun/graph"

	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graphindex"
)

// FakeCatalog is a graphindex.IndexCatalog backed by a fixed, test-supplied
// index list per collection — the same "indexes map[string][]sql.Index,
// looked up by table" shape as TestIndexDriver, minus the save/delete/create
// driver operations this module's read-only planning path never calls.
type FakeCatalog struct {
	indexes map[string][]graphindex.Candidate
}

// NewFakeCatalog builds an empty catalog; use AddIndex to register candidates.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{indexes: make(map[string][]graphindex.Candidate)}
}

// AddIndex registers one candidate index for collection.
func (c *FakeCatalog) AddIndex(collection string, candidate graphindex.Candidate) {
	c.indexes[collection] = append(c.indexes[collection], candidate)
}

// CandidateIndexes implements graphindex.IndexCatalog by returning exactly
// the fixed list registered for collection, ignoring condition/arena/
// nominalCardinality — a real catalog would cost each candidate against
// condition, but test fixtures supply the cost directly via AddIndex.
func (c *FakeCatalog) CandidateIndexes(collection string, arena *ast.Arena, condition ast.Handle, nominalCardinality int) ([]graphindex.Candidate, error) {
	return c.indexes[collection], nil
}

// FixtureVertex is one node in a FixtureGraph: just its document id, since
// index-accessor tests only need adjacency shape, not real document bodies.
type FixtureVertex struct {
	ID string
}

// FixtureGraph wraps a dominikbraun/graph directed graph of collection/key
// document ids, giving Index Accessor Builder tests a real generic graph
// structure to derive candidate costs from (denser out-degree -> a
// correspondingly worse estimated cost) instead of hand-rolled adjacency
// maps.
type FixtureGraph struct {
	g dgraph.Graph[string, FixtureVertex]
}

// NewFixtureGraph returns an empty directed fixture graph.
func NewFixtureGraph() *FixtureGraph {
	return &FixtureGraph{g: dgraph.New(func(v FixtureVertex) string { return v.ID }, dgraph.Directed())}
}

// AddEdge records a from->to edge, adding either endpoint as a vertex if
// it isn't already present.
func (f *FixtureGraph) AddEdge(from, to string) error {
	_ = f.g.AddVertex(FixtureVertex{ID: from})
	_ = f.g.AddVertex(FixtureVertex{ID: to})
	if err := f.g.AddEdge(from, to); err != nil {
		return fmt.Errorf("testutil: add fixture edge %s->%s: %w", from, to, err)
	}
	return nil
}

// OutDegree returns how many outbound edges vertexID has, used to derive a
// plausible index cost (AddIndexFromOutDegree below) for a fixture without
// needing a real cost model.
func (f *FixtureGraph) OutDegree(vertexID string) (int, error) {
	adj, err := f.g.AdjacencyMap()
	if err != nil {
		return 0, fmt.Errorf("testutil: adjacency map: %w", err)
	}
	return len(adj[vertexID]), nil
}

// Neighbors returns the ids vertexID has outbound edges to, in the
// dominikbraun/graph-assigned iteration order.
func (f *FixtureGraph) Neighbors(vertexID string) ([]string, error) {
	adj, err := f.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("testutil: adjacency map: %w", err)
	}
	var out []string
	for to := range adj[vertexID] {
		out = append(out, to)
	}
	return out, nil
}

// AddIndexFromOutDegree registers a candidate index in catalog for
// collection whose cost scales with vertexID's out-degree in fixture — a
// vertex with more outgoing edges makes a hypothetical index over it more
// expensive to scan, a believable-enough cost signal for accessor-builder
// tests that care about relative, not absolute, cost.
func AddIndexFromOutDegree(catalog *FakeCatalog, fixture *FixtureGraph, collection, vertexID, indexID string) error {
	degree, err := fixture.OutDegree(vertexID)
	if err != nil {
		return err
	}
	catalog.AddIndex(collection, graphindex.Candidate{
		Handle: graphindex.IndexHandle{ID: indexID},
		Cost:   float64(degree) + 1,
	})
	return nil
}
