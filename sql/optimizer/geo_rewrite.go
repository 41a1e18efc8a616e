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

// Package optimizer is the Optimizer Rewrite Example component (spec
// §4.10): a single, self-contained rule that rewrites geo/fulltext
// function calls and constant-pattern LIKE calls into index-friendly
// forms, the same shape as the rest of this module's index-accessor
// machinery rather than a general rule engine (out of scope per spec §1).
package optimizer

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graphindex"
)

// geoFuncs names the function calls spec §4.10 rewrites into an index
// subquery.
var geoFuncs = map[string]bool{
	"NEAR":             true,
	"WITHIN":           true,
	"WITHIN_RECTANGLE": true,
	"FULLTEXT":         true,
}

// GeoIndexCatalog names the geo/fulltext index usable for one collection,
// the storage-engine collaborator spec §1 puts out of scope. kind is the
// rewritten function's name (e.g. "NEAR").
type GeoIndexCatalog interface {
	GeoIndex(collection, kind string) (indexID string, ok bool)
}

// Rewrite records one function call the rule replaced, for logging/testing.
type Rewrite struct {
	Handle   ast.Handle
	Function string
	Subquery string
}

// RewriteGeoFunctions walks the expression rooted at h and replaces every
// NEAR/WITHIN/WITHIN_RECTANGLE/FULLTEXT call with an opaque Subquery node
// describing the index scan spec §4.10 lists: open the collection, apply
// the index, sort/filter, optionally limit, return documents (optionally
// merged with a computed distance attribute). Planning the subquery body
// itself is out of scope (spec §1) — ast.Subquery exists exactly to carry
// this synthesized reference through Walk/Clone/serialize unchanged.
func RewriteGeoFunctions(a *ast.Arena, h ast.Handle, catalog GeoIndexCatalog, log *logrus.Entry) (ast.Handle, []Rewrite, error) {
	if log == nil {
		log = logrus.WithField("component", "optimizer")
	}
	var rewrites []Rewrite
	var walkErr error
	result := ast.Transform(a, h, func(handle ast.Handle, n ast.Node) ast.Node {
		if walkErr != nil {
			return nil
		}
		call, ok := n.(ast.FuncCall)
		if !ok || !geoFuncs[call.Name] {
			return nil
		}
		collection, ok := collectionArg(a, call)
		if !ok {
			return nil
		}
		indexID, ok := catalog.GeoIndex(collection, call.Name)
		if !ok {
			walkErr = fmt.Errorf("optimizer: no %s index for collection %q: %w", call.Name, collection, sql.ErrBadPlan)
			return nil
		}
		planID := fmt.Sprintf("%s-scan(%s,%s)", call.Name, collection, indexID)
		rewrites = append(rewrites, Rewrite{Handle: handle, Function: call.Name, Subquery: planID})
		log.WithFields(logrus.Fields{"function": call.Name, "collection": collection, "index": indexID}).Debug("rewrote geo/fulltext call to index subquery")
		return ast.Subquery{PlanID: planID}
	})
	if walkErr != nil {
		return h, nil, walkErr
	}
	return result, rewrites, nil
}

// collectionArg extracts the collection name from a geo/fulltext call's
// first argument, which must be a bare Collection reference (spec §4.10's
// "the referenced collection").
func collectionArg(a *ast.Arena, call ast.FuncCall) (string, bool) {
	if len(call.Args) == 0 {
		return "", false
	}
	coll, ok := a.Get(call.Args[0]).(ast.Collection)
	if !ok {
		return "", false
	}
	return coll.Name, true
}

// highSentinel bounds a prefix range scan from above: no indexed string
// value can compare >= a prefix followed by this byte, so `attr < prefix +
// highSentinel` selects every string starting with prefix.
const highSentinel = "￿"

// RewriteLike implements spec §4.10's LIKE(attr, pattern, caseSensitive?)
// rule. It only fires when pattern is a constant string and attr is an
// attribute-access chain rooted at iterVar (the collection-iterated
// binding); any other shape is returned unchanged. hint, if it names an
// inverted index for collection, aborts the rewrite (inverted indexes
// handle LIKE natively, spec §4.10's last sentence).
func RewriteLike(a *ast.Arena, h ast.Handle, iterVar sql.Variable, collection string, hint *graphindex.IndexHint) (ast.Handle, bool, error) {
	if hint != nil && hint.NamesInvertedIndex(collection) {
		return h, false, nil
	}
	call, ok := a.Get(h).(ast.FuncCall)
	if !ok || call.Name != "LIKE" || len(call.Args) < 2 {
		return h, false, nil
	}
	if _, ok := attributeChain(a, call.Args[0], iterVar); !ok {
		return h, false, nil
	}
	patternNode := a.Get(ast.FoldConstants(a, call.Args[1]))
	lit, ok := patternNode.(ast.Literal)
	if !ok || lit.Val.Kind != ast.StringValue {
		return h, false, nil
	}
	pattern := lit.Val.Str

	if !hasWildcard(pattern) {
		eq := a.Add(ast.Literal{Val: ast.StringVal(unescapeLike(pattern))})
		return a.Add(ast.Binary{Op: ast.OpEq, Left: call.Args[0], Right: eq}), true, nil
	}

	prefix, ok := leftmostPrefix(pattern)
	if !ok {
		// Not a leftmost-prefix pattern (wildcard isn't confined to a
		// single trailing run); LIKE must run unrewritten.
		return h, false, nil
	}
	lowLit := a.Add(ast.Literal{Val: ast.StringVal(unescapeLike(prefix))})
	highLit := a.Add(ast.Literal{Val: ast.StringVal(unescapeLike(prefix) + highSentinel)})
	lowBound := a.Add(ast.Binary{Op: ast.OpGe, Left: call.Args[0], Right: lowLit})
	highBound := a.Add(ast.Binary{Op: ast.OpLt, Left: call.Args[0], Right: highLit})
	rewritten := a.Add(ast.Nary{Op: ast.OpAnd, Members: []ast.Handle{lowBound, highBound, h}})
	return rewritten, true, nil
}

// attributeChain reports whether h is `iterVar.a.b.c...`, mirroring
// sql/graphindex's attributePathOf but local to this package since the
// two aren't meant to share an unexported helper across packages.
func attributeChain(a *ast.Arena, h ast.Handle, iterVar sql.Variable) (sql.AttributePath, bool) {
	var path sql.AttributePath
	cur := h
	for {
		switch n := a.Get(cur).(type) {
		case ast.Reference:
			if n.Var.ID != iterVar.ID {
				return nil, false
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, true
		case ast.Attribute:
			path = append(path, n.Name)
			cur = n.Parent
		default:
			return nil, false
		}
	}
}

func hasWildcard(pattern string) bool {
	escaped := false
	for _, r := range pattern {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '%' || r == '_' {
			return true
		}
	}
	return false
}

// leftmostPrefix reports whether pattern is exactly a literal run followed
// by one trailing unescaped '%' and nothing else — the only shape spec
// §4.10 allows the prefix-range rewrite for.
func leftmostPrefix(pattern string) (string, bool) {
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' {
			i++
			continue
		}
		if r == '_' {
			return "", false
		}
		if r == '%' {
			if i != len(runes)-1 {
				return "", false
			}
			return string(runes[:i]), true
		}
	}
	return "", false
}

func unescapeLike(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
