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

// Package ast is the AST & Expression component (spec §4.1): a tree of
// query nodes with in-place rewriting (replace variable, replace attribute
// access) and a clone operation that deep-copies into a fresh arena.
//
// Nodes never hold raw pointers to each other. Every reference is a Handle
// — an arena index plus a generation counter — so sharing a subtree through
// an Nary operand list can never create a raw-pointer cycle (see spec §9,
// "Cyclic references in AST").
package ast

import "fmt"

// Handle is an index into an Arena plus a generation counter. A Handle from
// one Arena is meaningless in another; Clone is the only sanctioned way to
// move a subtree across arenas.
type Handle struct {
	idx uint32
	gen uint32
}

// Zero is never a valid handle; arenas reserve slot 0.
var Zero Handle

func (h Handle) Valid() bool { return h.idx != 0 }

// Kind tags the AST node variant (spec §3).
type Kind uint8

const (
	KindReference Kind = iota
	KindValue
	KindAttribute
	KindIndexed
	KindBinary
	KindNary
	KindFuncCall
	KindArray
	KindObject
	KindObjectElement
	KindSubquery
	KindCollection
	KindView
	KindNop
)

// Node is the per-kind payload. Concrete types implement Kind(), the
// generic-walk hooks Children()/WithChildren(), and carry their own
// kind-specific fields (see node.go). Implementations
// are value types; the Arena is the only thing that mutates in place.
type Node interface {
	Kind() Kind
	// Children returns this node's direct child handles, in order, for Walk
	// and Clone. Leaf nodes return nil.
	Children() []Handle
	// WithChildren returns a copy of this node with its children replaced
	// by newChildren (same order, same count as Children()). Used by Clone
	// and by the generic pass in replace.go.
	WithChildren(newChildren []Handle) Node
}

type slot struct {
	gen   uint32
	alive bool
	node  Node
}

// Arena owns a set of AST nodes. A plan's AST arena lives as long as the
// plan (spec §3, Lifecycle); a shard receiving a cloned subtree gets its
// own Arena.
type Arena struct {
	slots []slot
}

// NewArena returns an empty arena. Slot 0 is reserved so the zero Handle is
// never valid.
func NewArena() *Arena {
	return &Arena{slots: []slot{{}}}
}

// Add inserts node and returns its handle.
func (a *Arena) Add(n Node) Handle {
	gen := uint32(1)
	a.slots = append(a.slots, slot{gen: gen, alive: true, node: n})
	return Handle{idx: uint32(len(a.slots) - 1), gen: gen}
}

// Get dereferences h. Panics if h is stale or was never valid — the same
// contract as dereferencing a freed pointer would have had in the source,
// except it's caught deterministically instead of being UB.
func (a *Arena) Get(h Handle) Node {
	a.mustValid(h)
	return a.slots[h.idx].node
}

// Set replaces the node at h in place — the mechanism behind "mutation
// requires an explicit clone" (spec §3): callers mutate only handles they
// hold after cloning the subtree that contains them.
func (a *Arena) Set(h Handle, n Node) {
	a.mustValid(h)
	a.slots[h.idx].node = n
}

func (a *Arena) mustValid(h Handle) {
	if h.idx == 0 || int(h.idx) >= len(a.slots) || !a.slots[h.idx].alive || a.slots[h.idx].gen != h.gen {
		panic(fmt.Sprintf("ast: stale or invalid handle %+v", h))
	}
}

// Len reports the number of live nodes, for tests and diagnostics.
func (a *Arena) Len() int {
	n := 0
	for _, s := range a.slots {
		if s.alive {
			n++
		}
	}
	return n
}
