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
	"container/heap"

	"github.com/shopspring/decimal"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
)

// EdgeCollectionSpec names one edge collection/direction the Enumerator
// scans at every depth of the traversal (spec §3: a traversal may read
// more than one edge collection at once).
type EdgeCollectionSpec struct {
	Collection string
	Direction  sql.Direction
}

// VertexFetcher resolves a vertex id to its document; the storage-engine
// collaborator out of scope to implement for real (spec §1).
type VertexFetcher interface {
	Get(id string) (ast.Value, error)
}

// Path is one full path the Enumerator produced: VertexIDs[0] is always
// the start vertex, and len(Edges) == len(VertexIDs)-1.
type Path struct {
	VertexIDs []string
	Edges     []Edge
}

// Enumerator is the Enumerator traversal component (spec §4.8): single-
// sided expansion from one start vertex, in DFS, BFS, or weighted order.
type Enumerator struct {
	opts      *TraverserOptions
	validator *PathValidator
	vertices  VertexFetcher
	specs     []EdgeCollectionSpec
	killed    sql.Killed
	counters  *Counters
}

// NewEnumerator builds an Enumerator. counters may be nil.
func NewEnumerator(opts *TraverserOptions, validator *PathValidator, vertices VertexFetcher, specs []EdgeCollectionSpec, killed sql.Killed, counters *Counters) *Enumerator {
	if killed == nil {
		killed = sql.Alive
	}
	if counters == nil {
		counters = &Counters{}
	}
	return &Enumerator{opts: opts, validator: validator, vertices: vertices, specs: specs, killed: killed, counters: counters}
}

// Run enumerates every path from startVertexID honoring MinDepth/MaxDepth,
// uniqueness, vertex/edge/prune expressions, and cooperative cancellation
// (spec §5: checked between edges and between paths).
//
// Paths are collected eagerly rather than streamed through a Next()
// method: nothing downstream of this module in scope consumes partial
// results incrementally, and an eager slice keeps the three orderings
// readable instead of threading continuation state through an iterator.
func (e *Enumerator) Run(startVertexID string) ([]Path, error) {
	switch e.opts.Order {
	case BreadthFirst:
		return e.runBFS(startVertexID)
	case Weighted:
		return e.runWeighted(startVertexID)
	default:
		return e.runDFS(startVertexID)
	}
}

func (e *Enumerator) checkKilled() error {
	if e.killed() {
		return sql.ErrQueryKilled
	}
	return nil
}

// expand opens a cursor per configured spec for vertexID at depth and
// returns every (nextVertexID, edge) pair surviving the residual filter
// and edge expression. Uniqueness and the vertex expression are the
// caller's job: they need the accumulated path state this function
// doesn't have.
func (e *Enumerator) expand(vertexID string, vertexDoc ast.Value, depth uint) ([]string, []Edge, error) {
	var nextIDs []string
	var edges []Edge
	for _, spec := range e.specs {
		cur, err := e.opts.BuildCursor(spec.Collection, spec.Direction, depth, vertexID, e.counters)
		if err != nil {
			return nil, nil, err
		}
		for {
			edge, ok, err := cur.Next(e.opts)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				break
			}
			nextID := edge.To
			if spec.Direction == sql.Inbound {
				nextID = edge.From
			}
			if !e.opts.DestinationCollectionAllowed(collectionOf(nextID)) {
				continue
			}
			pass, err := e.opts.EvaluateEdgeExpression(depth, vertexDoc, edge.Doc)
			if err != nil {
				return nil, nil, err
			}
			if !pass {
				continue
			}
			nextIDs = append(nextIDs, nextID)
			edges = append(edges, edge)
		}
	}
	return nextIDs, edges, nil
}

// collectionOf returns the collection-name prefix of a `collection/key`
// document id, the shape every id in this module uses.
func collectionOf(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == '/' {
			return id[:i]
		}
	}
	return id
}

// edgeIDs extracts the ids of a path's edges, the form ValidateEdge and
// UnmarkEdge want.
func edgeIDs(edges []Edge) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}

// lastEdgeDoc returns the document of the edge a path most recently arrived
// on, for post-filter evaluation at emission time; ok is false at the start
// vertex, where there is no such edge yet.
func lastEdgeDoc(edges []Edge) (doc ast.Value, ok bool) {
	if len(edges) == 0 {
		return ast.Value{}, false
	}
	last := edges[len(edges)-1]
	return last.Doc, true
}

// runDFS is an explicit-recursion depth-first walk (spec §4.8's DFS
// order), backtracking GLOBAL uniqueness marks as it unwinds.
func (e *Enumerator) runDFS(startVertexID string) ([]Path, error) {
	var results []Path
	type node struct {
		vertexID  string
		depth     uint
		pathVerts []string
		pathEdges []Edge
	}
	var walk func(n node) error
	walk = func(n node) error {
		if err := e.checkKilled(); err != nil {
			return err
		}
		vertexDoc, err := e.vertices.Get(n.vertexID)
		if err != nil {
			return err
		}
		if n.depth >= e.opts.MinDepth {
			pass, err := e.opts.EvaluateVertexExpression(n.depth, vertexDoc)
			if err != nil {
				return err
			}
			if pass {
				edgeDoc, haveEdge := lastEdgeDoc(n.pathEdges)
				pass, err = e.opts.EvaluatePostFilter(vertexDoc, edgeDoc, haveEdge)
				if err != nil {
					return err
				}
			}
			if pass {
				results = append(results, Path{
					VertexIDs: append([]string(nil), n.pathVerts...),
					Edges:     append([]Edge(nil), n.pathEdges...),
				})
			}
		}
		if n.depth >= e.opts.MaxDepth {
			return nil
		}
		prune, err := e.opts.EvaluatePrune(vertexDoc)
		if err != nil {
			return err
		}
		if prune && n.depth > 0 {
			return nil
		}
		nextIDs, edges, err := e.expand(n.vertexID, vertexDoc, n.depth)
		if err != nil {
			return err
		}
		for i, nextID := range nextIDs {
			edge := edges[i]
			if !e.validator.ValidateVertex(n.pathVerts, nextID) {
				continue
			}
			if !e.validator.ValidateEdge(edgeIDs(n.pathEdges), edge.ID) {
				e.validator.UnmarkVertex(nextID)
				continue
			}
			child := node{
				vertexID:  nextID,
				depth:     n.depth + 1,
				pathVerts: append(append([]string(nil), n.pathVerts...), nextID),
				pathEdges: append(append([]Edge(nil), n.pathEdges...), edge),
			}
			if err := walk(child); err != nil {
				return err
			}
			e.validator.UnmarkVertex(nextID)
			e.validator.UnmarkEdge(edge.ID)
		}
		return nil
	}
	err := walk(node{vertexID: startVertexID, depth: 0, pathVerts: []string{startVertexID}})
	return results, err
}

// runBFS explores level by level (spec §4.8's BFS order): no backtracking,
// so GLOBAL uniqueness marks are never unmarked.
func (e *Enumerator) runBFS(startVertexID string) ([]Path, error) {
	var results []Path
	type item struct {
		vertexID  string
		pathVerts []string
		pathEdges []Edge
	}
	frontier := []item{{vertexID: startVertexID, pathVerts: []string{startVertexID}}}
	for depth := uint(0); len(frontier) > 0 && depth <= e.opts.MaxDepth; depth++ {
		if err := e.checkKilled(); err != nil {
			return results, err
		}
		var next []item
		for _, it := range frontier {
			vertexDoc, err := e.vertices.Get(it.vertexID)
			if err != nil {
				return results, err
			}
			if depth >= e.opts.MinDepth {
				pass, err := e.opts.EvaluateVertexExpression(depth, vertexDoc)
				if err != nil {
					return results, err
				}
				if pass {
					edgeDoc, haveEdge := lastEdgeDoc(it.pathEdges)
					pass, err = e.opts.EvaluatePostFilter(vertexDoc, edgeDoc, haveEdge)
					if err != nil {
						return results, err
					}
				}
				if pass {
					results = append(results, Path{
						VertexIDs: append([]string(nil), it.pathVerts...),
						Edges:     append([]Edge(nil), it.pathEdges...),
					})
				}
			}
			if depth == e.opts.MaxDepth {
				continue
			}
			prune, err := e.opts.EvaluatePrune(vertexDoc)
			if err != nil {
				return results, err
			}
			if prune && depth > 0 {
				continue
			}
			nextIDs, edges, err := e.expand(it.vertexID, vertexDoc, depth)
			if err != nil {
				return results, err
			}
			for i, nextID := range nextIDs {
				edge := edges[i]
				if !e.validator.ValidateVertex(it.pathVerts, nextID) {
					continue
				}
				if !e.validator.ValidateEdge(edgeIDs(it.pathEdges), edge.ID) {
					continue
				}
				next = append(next, item{
					vertexID:  nextID,
					pathVerts: append(append([]string(nil), it.pathVerts...), nextID),
					pathEdges: append(append([]Edge(nil), it.pathEdges...), edge),
				})
			}
		}
		frontier = next
	}
	return results, nil
}

// weightedItem is one heap entry: a partial path and its cumulative
// weight, ordered so Pop always returns the lowest-weight frontier item
// (uniform-cost expansion, spec §4.8's WEIGHTED order; the basis for
// shortest-path queries).
type weightedItem struct {
	vertexID  string
	weight    decimal.Decimal
	pathVerts []string
	pathEdges []Edge
}

type weightedQueue []weightedItem

func (q weightedQueue) Len() int            { return len(q) }
func (q weightedQueue) Less(i, j int) bool  { return q[i].weight.LessThan(q[j].weight) }
func (q weightedQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *weightedQueue) Push(x interface{}) { *q = append(*q, x.(weightedItem)) }
func (q *weightedQueue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// runWeighted expands the frontier in increasing cumulative-weight order.
// Uniqueness is checked when an entry is popped, not when it is pushed, so
// GLOBAL vertex uniqueness here doubles as the shortest-path optimization:
// once a vertex is popped and accepted, no cheaper path to it can still be
// in the queue, so later arrivals are simply rejected as duplicates.
func (e *Enumerator) runWeighted(startVertexID string) ([]Path, error) {
	var results []Path
	pq := &weightedQueue{{vertexID: startVertexID, weight: decimal.Zero, pathVerts: []string{startVertexID}}}
	heap.Init(pq)
	for pq.Len() > 0 {
		if err := e.checkKilled(); err != nil {
			return results, err
		}
		it := heap.Pop(pq).(weightedItem)
		depth := uint(len(it.pathEdges))
		if depth > 0 {
			if !e.validator.ValidateVertex(it.pathVerts[:depth], it.vertexID) {
				continue
			}
			if !e.validator.ValidateEdge(edgeIDs(it.pathEdges[:depth-1]), it.pathEdges[depth-1].ID) {
				continue
			}
		}

		vertexDoc, err := e.vertices.Get(it.vertexID)
		if err != nil {
			return results, err
		}
		if depth >= e.opts.MinDepth {
			pass, err := e.opts.EvaluateVertexExpression(depth, vertexDoc)
			if err != nil {
				return results, err
			}
			if pass {
				edgeDoc, haveEdge := lastEdgeDoc(it.pathEdges)
				pass, err = e.opts.EvaluatePostFilter(vertexDoc, edgeDoc, haveEdge)
				if err != nil {
					return results, err
				}
			}
			if pass {
				results = append(results, Path{
					VertexIDs: append([]string(nil), it.pathVerts...),
					Edges:     append([]Edge(nil), it.pathEdges...),
				})
			}
		}
		if depth >= e.opts.MaxDepth {
			continue
		}
		prune, err := e.opts.EvaluatePrune(vertexDoc)
		if err != nil {
			return results, err
		}
		if prune && depth > 0 {
			continue
		}
		nextIDs, edges, err := e.expand(it.vertexID, vertexDoc, depth)
		if err != nil {
			return results, err
		}
		for i, nextID := range nextIDs {
			edge := edges[i]
			w, err := e.opts.WeightEdge(edge)
			if err != nil {
				return results, err
			}
			heap.Push(pq, weightedItem{
				vertexID:  nextID,
				weight:    it.weight.Add(w),
				pathVerts: append(append([]string(nil), it.pathVerts...), nextID),
				pathEdges: append(append([]Edge(nil), it.pathEdges...), edge),
			})
		}
	}
	return results, nil
}
