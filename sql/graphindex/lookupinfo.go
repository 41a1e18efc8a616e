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
	"encoding/json"
	"fmt"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
)

// NonConstEntry is one non-constant subexpression of an index condition,
// annotated with the positional path at which its evaluated value must be
// re-inserted before each scan (spec §4.2 step 5). Path is a sequence of
// child indices from the condition's root, e.g. [0, 1] means "the second
// child of the first child."
type NonConstEntry struct {
	Expr ast.Handle
	Path []int
}

// LookupInfo describes how to scan one edge collection in one direction,
// optionally for a specific depth (spec §3). It is the Index Accessor
// Builder's (spec §4.2) output and the unit the Lookup Info Registry (spec
// §4.3) stores.
type LookupInfo struct {
	IdxHandles []IndexHandle
	Direction  sql.Direction

	// Condition is the index search condition — may be patched in place by
	// Rearm (sql/graph's Edge Cursor) when ConditionNeedUpdate is true.
	Condition ast.Handle
	// Residual is the runtime-evaluated remainder, or ast.Zero when the
	// index fully covers the filter.
	Residual ast.Handle

	ConditionNeedUpdate     bool
	ConditionMemberToUpdate int

	NonConst []NonConstEntry
}

// PatchEndpoint overwrites the endpoint-equality conjunct's literal side
// with value, in place — this is what the Edge Cursor's Rearm calls on
// every new start vertex instead of re-scanning the whole condition
// (spec §4.2 step 3 / §4.4 Rearm). A no-op when ConditionNeedUpdate is
// false.
func (l LookupInfo) PatchEndpoint(a *ast.Arena, value string) {
	if !l.ConditionNeedUpdate || l.ConditionMemberToUpdate < 0 {
		return
	}
	conjuncts := conjunctsOf(a, l.Condition)
	if l.ConditionMemberToUpdate >= len(conjuncts) {
		return
	}
	h := conjuncts[l.ConditionMemberToUpdate]
	bin, ok := a.Get(h).(ast.Binary)
	if !ok {
		return
	}
	lit := a.Add(ast.Literal{Val: ast.StringVal(value)})
	if _, leftIsAttr := a.Get(bin.Left).(ast.Attribute); leftIsAttr {
		bin.Right = lit
	} else {
		bin.Left = lit
	}
	a.Set(h, bin)
}

// EstimateCost returns a cost estimate and writes the estimated row count
// into nrItems — mirroring BaseOptions::LookupInfo::estimateCost in
// original_source, which both estimates a cost and reports the expected
// item count as an out-parameter for the caller's own planning.
func (l LookupInfo) EstimateCost(nrItems *int) float64 {
	*nrItems = 1000
	return float64(len(l.NonConst)+1) * 1.0
}

// wireLookupInfo mirrors the "accessor record" shape from spec §6.
type wireLookupInfo struct {
	Direction       string             `json:"direction"`
	HandleID        string             `json:"handle"`
	CoversEndpoints bool               `json:"coversEndpoints,omitempty"`
	Expression      json.RawMessage    `json:"expression,omitempty"`
	Condition       json.RawMessage    `json:"condition"`
	CondNeedUpdate  bool               `json:"condNeedUpdate"`
	CondMemberToUpd int                `json:"condMemberToUpdate"`
	NonConst        []wireNonConstItem `json:"nonConstContainer,omitempty"`
}

type wireNonConstItem struct {
	Expression json.RawMessage `json:"expression"`
	IndexPath  []int           `json:"indexPath"`
}

// ToJSON serializes l into one accessor record (spec §6).
func (l LookupInfo) ToJSON(a *ast.Arena) ([]byte, error) {
	var handleID string
	var covers bool
	if len(l.IdxHandles) > 0 {
		handleID = l.IdxHandles[0].ID
		covers = l.IdxHandles[0].CoversEndpoints
	}
	cond, err := ast.ToJSON(a, l.Condition)
	if err != nil {
		return nil, err
	}
	var expr json.RawMessage
	if l.Residual.Valid() {
		expr, err = ast.ToJSON(a, l.Residual)
		if err != nil {
			return nil, err
		}
	}
	nonConst := make([]wireNonConstItem, len(l.NonConst))
	for i, nc := range l.NonConst {
		b, err := ast.ToJSON(a, nc.Expr)
		if err != nil {
			return nil, err
		}
		nonConst[i] = wireNonConstItem{Expression: b, IndexPath: nc.Path}
	}
	w := wireLookupInfo{
		Direction:       l.Direction.String(),
		HandleID:        handleID,
		CoversEndpoints: covers,
		Expression:      expr,
		Condition:       cond,
		CondNeedUpdate:  l.ConditionNeedUpdate,
		CondMemberToUpd: l.ConditionMemberToUpdate,
		NonConst:        nonConst,
	}
	return json.Marshal(w)
}

// LookupInfoFromJSON deserializes data (produced by ToJSON) into a LookupInfo whose
// AST handles live in arena a.
func LookupInfoFromJSON(a *ast.Arena, data []byte) (LookupInfo, error) {
	var w wireLookupInfo
	if err := json.Unmarshal(data, &w); err != nil {
		return LookupInfo{}, fmt.Errorf("graphindex: decode lookup info: %w", sql.ErrBadPlan)
	}
	dir := sql.Outbound
	if w.Direction == "inbound" {
		dir = sql.Inbound
	}
	cond, err := ast.FromJSON(a, w.Condition)
	if err != nil {
		return LookupInfo{}, err
	}
	var residual ast.Handle
	if len(w.Expression) > 0 {
		residual, err = ast.FromJSON(a, w.Expression)
		if err != nil {
			return LookupInfo{}, err
		}
	}
	nonConst := make([]NonConstEntry, len(w.NonConst))
	for i, item := range w.NonConst {
		h, err := ast.FromJSON(a, item.Expression)
		if err != nil {
			return LookupInfo{}, err
		}
		nonConst[i] = NonConstEntry{Expr: h, Path: item.IndexPath}
	}
	var handles []IndexHandle
	if w.HandleID != "" {
		handles = []IndexHandle{{ID: w.HandleID, CoversEndpoints: w.CoversEndpoints}}
	}
	return LookupInfo{
		IdxHandles:              handles,
		Direction:               dir,
		Condition:               cond,
		Residual:                residual,
		ConditionNeedUpdate:     w.CondNeedUpdate,
		ConditionMemberToUpdate: w.CondMemberToUpd,
		NonConst:                nonConst,
	}, nil
}
