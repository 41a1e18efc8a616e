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

package graphindex

import (
	"sort"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
)

// nominalCardinality is the fixed cardinality estimate the Accessor Builder
// feeds the catalog when costing candidates (spec §4.2 step 2) — the exact
// value never matters, only that every candidate is costed against the same
// one.
const nominalCardinality = 1000

// BuildAccessor runs the Index Accessor Builder (spec §4.2) for one
// collection/direction pair: it clones condition into dst, asks catalog for
// the cheapest usable index, detects an _from/_to equality conjunct that the
// Edge Cursor can patch per-vertex (Rearm), splits off the residual that the
// chosen index cannot cover, and collects the condition's non-constant
// leaves (see collectNonConst).
//
// vertexVar is the traversal's start-vertex variable; condition is expressed
// in terms of it (e.g. `vertexVar._from == ...`). hinted, when non-empty,
// names index ids the caller (an IndexHint) insists on using.
func BuildAccessor(dst *ast.Arena, src *ast.Arena, condition ast.Handle, collection string, vertexVar sql.Variable, direction sql.Direction, catalog IndexCatalog, hinted []string) (LookupInfo, error) {
	cond := ast.Clone(dst, src, condition)

	candidates, err := catalog.CandidateIndexes(collection, dst, cond, nominalCardinality)
	if err != nil {
		return LookupInfo{}, err
	}
	best, ok := pickBest(candidates, hinted)
	if !ok {
		return LookupInfo{}, sql.ErrNoIndex
	}

	conjuncts := conjunctsOf(dst, cond)
	needUpdate, memberIdx := findEndpointEquality(dst, conjuncts, vertexVar, direction)

	covered := coveredSet(best.CoveredAttrs)
	residual := buildResidual(dst, conjuncts, covered, memberIdx)

	nonConst := collectNonConst(dst, cond)

	return LookupInfo{
		IdxHandles:              []IndexHandle{best.Handle},
		Direction:               direction,
		Condition:               cond,
		Residual:                residual,
		ConditionNeedUpdate:     needUpdate,
		ConditionMemberToUpdate: memberIdx,
		NonConst:                nonConst,
	}, nil
}

// pickBest chooses among candidates: a hinted index always wins; otherwise
// the lowest estimated cost; ties are broken by index id so the choice is
// deterministic across runs and shards (spec §4.2 step 2).
func pickBest(candidates []Candidate, hinted []string) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	hintSet := make(map[string]bool, len(hinted))
	for _, id := range hinted {
		hintSet[id] = true
	}
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		hi, hj := hintSet[sorted[i].Handle.ID], hintSet[sorted[j].Handle.ID]
		if hi != hj {
			return hi
		}
		if sorted[i].Cost != sorted[j].Cost {
			return sorted[i].Cost < sorted[j].Cost
		}
		return sorted[i].Handle.ID < sorted[j].Handle.ID
	})
	return sorted[0], true
}

// conjunctsOf returns the top-level AND members of h, or [h] itself when h
// isn't an And node — a bare condition is a single implicit conjunct.
func conjunctsOf(a *ast.Arena, h ast.Handle) []ast.Handle {
	if !h.Valid() {
		return nil
	}
	if n, ok := a.Get(h).(ast.Nary); ok && n.Op == ast.OpAnd {
		return n.Members
	}
	return []ast.Handle{h}
}

// findEndpointEquality scans conjuncts for `vertexVar.<endpoint> == ...`
// where <endpoint> matches direction's endpoint attribute (spec §4.2 step
// 3: this conjunct's right-hand side is what Rearm overwrites per input
// vertex, rather than being a fixed value re-scanned every time).
func findEndpointEquality(a *ast.Arena, conjuncts []ast.Handle, vertexVar sql.Variable, direction sql.Direction) (bool, int) {
	endpoint := direction.EndpointAttribute()
	for i, c := range conjuncts {
		bin, ok := a.Get(c).(ast.Binary)
		if !ok || bin.Op != ast.OpEq {
			continue
		}
		if isVertexEndpoint(a, bin.Left, vertexVar, endpoint) || isVertexEndpoint(a, bin.Right, vertexVar, endpoint) {
			return true, i
		}
	}
	return false, -1
}

func isVertexEndpoint(a *ast.Arena, h ast.Handle, vertexVar sql.Variable, endpoint string) bool {
	attr, ok := a.Get(h).(ast.Attribute)
	if !ok || attr.Name != endpoint {
		return false
	}
	ref, ok := a.Get(attr.Parent).(ast.Reference)
	return ok && ref.Var.ID == vertexVar.ID
}

// coveredSet flattens a candidate's covered attribute paths for fast
// membership tests.
func coveredSet(paths []sql.AttributePath) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p.String()] = true
	}
	return set
}

// buildResidual rebuilds the subset of conjuncts the chosen index does not
// already answer (spec §4.2 step 4): the endpoint-equality conjunct is
// always dropped (the index scan enforces it directly), and any conjunct
// whose left-hand attribute path is in covered is dropped as redundant.
// What remains becomes the runtime post-filter.
func buildResidual(a *ast.Arena, conjuncts []ast.Handle, covered map[string]bool, endpointIdx int) ast.Handle {
	var kept []ast.Handle
	for i, c := range conjuncts {
		if i == endpointIdx {
			continue
		}
		if bin, ok := a.Get(c).(ast.Binary); ok {
			if path, isAttr := attributePathOf(a, bin.Left); isAttr && covered[path.String()] {
				continue
			}
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return ast.Zero
	case 1:
		return kept[0]
	default:
		return a.Add(ast.Nary{Op: ast.OpAnd, Members: kept})
	}
}

// attributePathOf walks an Attribute chain rooted at a Reference and
// returns the dotted path, e.g. `v.a.b` -> ["a","b"].
func attributePathOf(a *ast.Arena, h ast.Handle) (sql.AttributePath, bool) {
	var path sql.AttributePath
	for {
		switch n := a.Get(h).(type) {
		case ast.Attribute:
			path = append(sql.AttributePath{n.Name}, path...)
			h = n.Parent
		case ast.Reference:
			return path, len(path) > 0
		default:
			return nil, false
		}
	}
}

// collectNonConst folds constants in place and records every innermost
// non-constant node remaining (each Reference or Subquery leaf), each
// tagged with its positional path from cond's root (spec §4.2 step 5).
// The entries travel with the LookupInfo and its serialized form;
// Cursor.Rearm patches only the endpoint conjunct and does not evaluate or
// splice them.
func collectNonConst(a *ast.Arena, cond ast.Handle) []NonConstEntry {
	ast.FoldConstants(a, cond)
	var out []NonConstEntry
	var walk func(h ast.Handle, path []int)
	walk = func(h ast.Handle, path []int) {
		if !h.Valid() {
			return
		}
		n := a.Get(h)
		if _, isLit := n.(ast.Literal); isLit {
			return
		}
		if ast.IsConstant(a, h) {
			return
		}
		children := n.Children()
		if len(children) == 0 {
			out = append(out, NonConstEntry{Expr: h, Path: append([]int(nil), path...)})
			return
		}
		hasNonConstChild := false
		for i, c := range children {
			if c.Valid() && !ast.IsConstant(a, c) {
				hasNonConstChild = true
				walk(c, append(append([]int(nil), path...), i))
			}
		}
		if !hasNonConstChild {
			out = append(out, NonConstEntry{Expr: h, Path: append([]int(nil), path...)})
		}
	}
	walk(cond, nil)
	return out
}
