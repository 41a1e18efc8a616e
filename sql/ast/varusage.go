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

// UsedVariables returns every distinct variable referenced anywhere in the
// subtree rooted at h, in first-encountered order. This supplements spec
// §4.9's registerPostFilterCondition: it's the mechanism a GraphNode uses
// to decide whether a post-filter expression references a variable whose
// only binding lives in a coordinator-only context (original_source's
// VarUsageFinder, which the distilled spec omits — see SPEC_FULL.md §4).
func UsedVariables(a *Arena, h Handle) []sql.Variable {
	seen := make(map[uint64]bool)
	var out []sql.Variable
	Walk(a, h, func(_ Handle, n Node) bool {
		if ref, ok := n.(Reference); ok {
			if !seen[ref.Var.ID] {
				seen[ref.Var.ID] = true
				out = append(out, ref.Var)
			}
		}
		return true
	})
	return out
}
