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

// IsConstant reports whether the subtree rooted at h contains no Reference
// node — i.e. it can be pre-evaluated once at plan time rather than
// per input row (spec §4.1). Subqueries are conservatively treated as
// non-constant since their body isn't modeled here.
func IsConstant(a *Arena, h Handle) bool {
	constant := true
	Walk(a, h, func(_ Handle, n Node) bool {
		switch n.(type) {
		case Reference:
			constant = false
			return false
		case Subquery:
			constant = false
			return false
		}
		return constant
	})
	return constant
}

// FoldConstants walks h and replaces every maximal constant subtree (one
// with IsConstant true that isn't already a Literal) with its evaluated
// value, in place. Subtrees that fail to evaluate (e.g. a function this
// module doesn't implement) are left untouched — constant folding is an
// optimization, never a source of new errors at plan time. This is the
// operation the Index Accessor Builder (spec §4.2 step 5) uses to decide
// which subexpressions are non-constant.
func FoldConstants(a *Arena, h Handle) Handle {
	if !h.Valid() {
		return h
	}
	n := a.Get(h)
	if _, isLit := n.(Literal); isLit {
		return h
	}
	if IsConstant(a, h) {
		if v, err := Evaluate(a, h, NoVarContext{}); err == nil {
			a.Set(h, Literal{Val: v})
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
		newChildren[i] = FoldConstants(a, c)
		if newChildren[i] != c {
			changed = true
		}
	}
	if changed {
		a.Set(h, n.WithChildren(newChildren))
	}
	return h
}
