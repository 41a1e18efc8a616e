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

package ast

// Visitor is called once per node during a Walk, pre-order. Returning false
// stops descent into that node's children (but Walk continues with
// siblings) — mirroring sql.Walk's Visitor contract in the teacher.
type Visitor func(h Handle, n Node) bool

// Walk visits h and every descendant, pre-order, depth first.
func Walk(a *Arena, h Handle, v Visitor) {
	if !h.Valid() {
		return
	}
	n := a.Get(h)
	if !v(h, n) {
		return
	}
	for _, c := range n.Children() {
		Walk(a, c, v)
	}
}

// Transform rewrites h bottom-up: f is applied to every descendant first,
// then to h itself, and the arena is updated in place via Set. Returns the
// (possibly same) handle for h after rewriting. This is the generic engine
// behind constant folding and any kind-agnostic rewrite.
func Transform(a *Arena, h Handle, f func(Handle, Node) Node) Handle {
	if !h.Valid() {
		return h
	}
	n := a.Get(h)
	children := n.Children()
	if len(children) > 0 {
		newChildren := make([]Handle, len(children))
		changed := false
		for i, c := range children {
			newChildren[i] = Transform(a, c, f)
			if newChildren[i] != c {
				changed = true
			}
		}
		if changed {
			n = n.WithChildren(newChildren)
			a.Set(h, n)
		}
	}
	rewritten := f(h, n)
	if rewritten != nil {
		a.Set(h, rewritten)
	}
	return h
}
