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

import "github.com/dolthub/graphwalk/sql"

// ReplaceVariables substitutes every Reference node whose target id is a
// key of mapping with a reference to mapping's value, in place, across the
// whole subtree rooted at h (spec §4.1).
func ReplaceVariables(a *Arena, h Handle, mapping map[uint64]sql.Variable) {
	Transform(a, h, func(_ Handle, n Node) Node {
		ref, ok := n.(Reference)
		if !ok {
			return nil
		}
		if repl, ok := mapping[ref.Var.ID]; ok {
			return Reference{Var: repl}
		}
		return nil
	})
}

// chainFromRoot walks down from h looking for a `searchVar.a.b.c...` access
// chain, returning the full attribute path discovered and whether h is
// rooted at a Reference to searchVar at all (a "partial match" — some
// prefix of the chain resolves to searchVar, but the full node may still
// not equal the requested path, which the caller checks separately).
func chainFromRoot(a *Arena, h Handle, searchVar sql.Variable) (path sql.AttributePath, ok bool) {
	n := a.Get(h)
	switch t := n.(type) {
	case Reference:
		if t.Var.ID == searchVar.ID {
			return sql.AttributePath{}, true
		}
		return nil, false
	case Attribute:
		parentPath, ok := chainFromRoot(a, t.Parent, searchVar)
		if !ok {
			return nil, false
		}
		return append(append(sql.AttributePath{}, parentPath...), t.Name), true
	default:
		return nil, false
	}
}

// ReplaceAttributeAccess rewrites, in place, every access chain `v.a.b.c`
// where (v, [a,b,c]) structurally matches (searchVar, path) into a direct
// Reference to replacement. Partial matches (a chain through searchVar
// whose path is only a prefix or a superset of the requested path) are left
// unchanged, per spec §4.1.
func ReplaceAttributeAccess(a *Arena, h Handle, searchVar sql.Variable, path sql.AttributePath, replacement sql.Variable) Handle {
	if !h.Valid() {
		return h
	}
	n := a.Get(h)
	if _, isAttr := n.(Attribute); isAttr {
		if chain, ok := chainFromRoot(a, h, searchVar); ok && chain.Equal(path) {
			a.Set(h, Reference{Var: replacement})
			return h
		}
	}
	children := n.Children()
	if len(children) == 0 {
		return h
	}
	newChildren := make([]Handle, len(children))
	changed := false
	for i, c := range children {
		newChildren[i] = ReplaceAttributeAccess(a, c, searchVar, path, replacement)
		if newChildren[i] != c {
			changed = true
		}
	}
	if changed {
		a.Set(h, n.WithChildren(newChildren))
	}
	return h
}
