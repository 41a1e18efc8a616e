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

// PathValidator is the Path Validator component (spec §4.6): it decides
// whether a candidate vertex or edge may extend the path currently being
// built, under one of three uniqueness disciplines.
//
//	NONE:   always valid; repeats are allowed.
//	PATH:   valid unless the id already appears earlier in *this* path.
//	GLOBAL: valid unless the id has been accepted by *any* path this
//	        validator has seen and not since removed by UnmarkVertex/
//	        UnmarkEdge.
//
// PATH checks look at the caller-supplied current path slice and cost
// nothing to reset between paths; GLOBAL checks consult (and mutate) state
// owned by the validator itself, so one PathValidator must be shared across
// every path of a single traversal execution.
type PathValidator struct {
	uniqueVertices UniquenessMode
	uniqueEdges    UniquenessMode

	globalVertices map[string]bool
	globalEdges    map[string]bool
}

// NewPathValidator returns a validator enforcing uv/ue for the lifetime of
// one traversal execution.
func NewPathValidator(uv, ue UniquenessMode) *PathValidator {
	return &PathValidator{
		uniqueVertices: uv,
		uniqueEdges:    ue,
		globalVertices: make(map[string]bool),
		globalEdges:    make(map[string]bool),
	}
}

// ValidateVertex reports whether vertexID may extend a path whose vertices
// so far are pathVertices (not including vertexID). A GLOBAL-valid vertex
// is recorded as seen and stays seen until UnmarkVertex removes it; a
// rejected vertex is not recorded.
func (p *PathValidator) ValidateVertex(pathVertices []string, vertexID string) bool {
	switch p.uniqueVertices {
	case UniquePath:
		for _, v := range pathVertices {
			if v == vertexID {
				return false
			}
		}
		return true
	case UniqueGlobal:
		if p.globalVertices[vertexID] {
			return false
		}
		p.globalVertices[vertexID] = true
		return true
	default:
		return true
	}
}

// ValidateEdge is ValidateVertex's edge-side counterpart.
func (p *PathValidator) ValidateEdge(pathEdges []string, edgeID string) bool {
	switch p.uniqueEdges {
	case UniquePath:
		for _, e := range pathEdges {
			if e == edgeID {
				return false
			}
		}
		return true
	case UniqueGlobal:
		if p.globalEdges[edgeID] {
			return false
		}
		p.globalEdges[edgeID] = true
		return true
	default:
		return true
	}
}

// UnmarkVertex undoes a GLOBAL acceptance of vertexID. runDFS calls it
// every time it backtracks out of a child vertex (and when the edge leading
// to that vertex is rejected), so under DFS a GLOBAL mark lasts only while
// the vertex is on the branch being walked. The BFS and weighted
// enumerators, which never backtrack, never call this.
func (p *PathValidator) UnmarkVertex(vertexID string) {
	if p.uniqueVertices == UniqueGlobal {
		delete(p.globalVertices, vertexID)
	}
}

// UnmarkEdge is UnmarkVertex's edge-side counterpart.
func (p *PathValidator) UnmarkEdge(edgeID string) {
	if p.uniqueEdges == UniqueGlobal {
		delete(p.globalEdges, edgeID)
	}
}
