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
	"strings"

	"github.com/cespare/xxhash"

	"github.com/dolthub/graphwalk/sql"
)

// ballStep records how one BFS ball first reached a vertex: the edge it
// arrived on and the vertex it came from. A vertex is recorded on its
// first discovery only — the shallowest path to it, which is all k-paths
// enumeration needs from either side of the ball.
type ballStep struct {
	depth  uint
	parent string
	edge   Edge
	hasEdge bool
}

// hashSet is a xxhash-backed membership structure: ball expansion touches
// the same vertex id repeatedly (many edges can lead back to an already
// visited vertex), so a fast hash-based "have we seen this id" check
// matters more here than in the single-sided Enumerator, which only ever
// tracks one path's vertices at a time.
type hashSet struct {
	buckets map[uint64][]string
}

func newHashSet() *hashSet { return &hashSet{buckets: make(map[uint64][]string)} }

func (s *hashSet) contains(id string) bool {
	h := xxhash.Sum64String(id)
	for _, candidate := range s.buckets[h] {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *hashSet) add(id string) {
	h := xxhash.Sum64String(id)
	s.buckets[h] = append(s.buckets[h], id)
}

// ball is one side of the two-ball k-paths search (spec §4.7): a BFS
// frontier expanding outward from either the start or the end vertex,
// remembering a shortest-depth parent chain back to its root. hops is this
// ball's own expansion count — it only advances when this ball (not the
// other one) is the one picked to expand that round, so it must be tracked
// per-ball rather than read off the outer round counter.
type ball struct {
	visited  map[string]ballStep
	seen     *hashSet
	frontier []string
	hops     uint
}

func newBall(root string) *ball {
	b := &ball{visited: map[string]ballStep{root: {depth: 0}}, seen: newHashSet(), frontier: []string{root}}
	b.seen.add(root)
	return b
}

// expand advances b by exactly one BFS layer using specs to find
// neighbors of every vertex currently on the frontier.
func (e *Enumerator) expandBall(b *ball, specs []EdgeCollectionSpec) error {
	var next []string
	for _, vertexID := range b.frontier {
		vertexDoc, err := e.vertices.Get(vertexID)
		if err != nil {
			return err
		}
		for _, spec := range specs {
			cur, err := e.opts.BuildCursor(spec.Collection, spec.Direction, b.hops, vertexID, e.counters)
			if err != nil {
				return err
			}
			for {
				edge, ok, err := cur.Next(e.opts)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				nextID := edge.To
				if spec.Direction == sql.Inbound {
					nextID = edge.From
				}
				if b.seen.contains(nextID) {
					continue
				}
				pass, err := e.opts.EvaluateEdgeExpression(b.hops, vertexDoc, edge.Doc)
				if err != nil {
					return err
				}
				if !pass {
					continue
				}
				b.seen.add(nextID)
				b.visited[nextID] = ballStep{depth: b.hops + 1, parent: vertexID, edge: edge, hasEdge: true}
				next = append(next, nextID)
			}
		}
	}
	b.frontier = next
	b.hops++
	return nil
}

// pathFromRoot reconstructs the shortest chain root->...->vertexID that b
// discovered, in root-to-vertex order.
func pathFromRoot(b *ball, vertexID string) ([]string, []Edge) {
	var verts []string
	var edges []Edge
	for cur := vertexID; ; {
		verts = append([]string{cur}, verts...)
		step := b.visited[cur]
		if !step.hasEdge {
			break
		}
		edges = append([]Edge{step.edge}, edges...)
		cur = step.parent
	}
	return verts, edges
}

// KPaths runs the k-paths Enumerator (spec §4.7): bidirectional expansion
// from startID and endID, meeting in the middle, each meeting vertex
// yielding one path whose length is the sum of the two balls' depths to
// it. forwardSpecs/backwardSpecs are the edge collections/directions to
// scan expanding away from start and toward start (i.e. already reversed
// for the backward ball), respectively.
func (e *Enumerator) KPaths(startID, endID string, forwardSpecs, backwardSpecs []EdgeCollectionSpec) ([]Path, error) {
	if startID == endID {
		if e.opts.MinDepth == 0 {
			return []Path{{VertexIDs: []string{startID}}}, nil
		}
		return nil, nil
	}

	forward := newBall(startID)
	backward := newBall(endID)

	// met tracks meeting-vertex ids already matched against the opposite
	// ball, so a rescan of the accumulated visited maps in a later round
	// doesn't reconsider a pairing it has already resolved (spec §4.7).
	met := newHashSet()
	// emitted holds canonical signatures of paths already returned: two
	// distinct meeting vertices (e.g. an interior hop and an endpoint
	// reached directly) can reconstruct the same vertex/edge sequence, and
	// spec §4.7 requires each distinct path emitted exactly once.
	emitted := newHashSet()

	var results []Path
	maxRounds := e.opts.MaxDepth
	for round := uint(0); round < maxRounds; round++ {
		if err := e.checkKilled(); err != nil {
			return results, err
		}
		// Expand the smaller ball first, the standard bidirectional-BFS
		// balance heuristic: it minimizes total vertices touched before a
		// meeting point is found.
		fSize, bSize := len(forward.frontier), len(backward.frontier)
		if fSize == 0 && bSize == 0 {
			break
		}
		if smaller(fSize, bSize) == fSize {
			if err := e.expandBall(forward, forwardSpecs); err != nil {
				return results, err
			}
		} else {
			if err := e.expandBall(backward, backwardSpecs); err != nil {
				return results, err
			}
		}

		for id, fstep := range forward.visited {
			if met.contains(id) {
				continue
			}
			bstep, ok := backward.visited[id]
			if !ok {
				continue
			}
			met.add(id)

			total := fstep.depth + bstep.depth
			if total < e.opts.MinDepth || total > e.opts.MaxDepth {
				continue
			}
			fwdVerts, fwdEdges := pathFromRoot(forward, id)
			bwdVerts, bwdEdges := pathFromRoot(backward, id)

			verts := append(append([]string(nil), fwdVerts...), reverseStrings(bwdVerts[:len(bwdVerts)-1])...)
			edges := append(append([]Edge(nil), fwdEdges...), reverseEdges(bwdEdges)...)

			if !pathIsVertexUnique(verts) || !pathIsEdgeUnique(edges) {
				continue
			}
			sig := strings.Join(verts, "\x00")
			if emitted.contains(sig) {
				continue
			}
			emitted.add(sig)
			results = append(results, Path{VertexIDs: verts, Edges: edges})
		}
	}
	return results, nil
}

func reverseStrings(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

func reverseEdges(in []Edge) []Edge {
	out := make([]Edge, len(in))
	for i, e := range in {
		out[len(in)-1-i] = e
	}
	return out
}

// pathIsVertexUnique/pathIsEdgeUnique implement PATH-uniqueness directly
// over an already-assembled k-path (spec §4.6): the two-ball search
// doesn't build vertices incrementally the way the single-sided Enumerator
// does, so uniqueness is checked once the full path is known instead of
// per step.
func pathIsVertexUnique(verts []string) bool {
	seen := make(map[string]bool, len(verts))
	for _, v := range verts {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func pathIsEdgeUnique(edges []Edge) bool {
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if seen[e.ID] {
			return false
		}
		seen[e.ID] = true
	}
	return true
}
