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

// Clone deep-copies the subtree rooted at h (which lives in src) into dst,
// returning its new handle. dst and src may be the same arena (the common
// "clone before rewrite" case, spec §4.1) or different ones (cluster
// dispatch, spec §3 Lifecycle). Clones never share mutable state with the
// source: every node in the result is a freshly-added slot in dst.
func Clone(dst *Arena, src *Arena, h Handle) Handle {
	if !h.Valid() {
		return h
	}
	n := src.Get(h)
	children := n.Children()
	if len(children) == 0 {
		return dst.Add(n)
	}
	newChildren := make([]Handle, len(children))
	for i, c := range children {
		newChildren[i] = Clone(dst, src, c)
	}
	return dst.Add(n.WithChildren(newChildren))
}
