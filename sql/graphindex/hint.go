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

// Package graphindex is the Index Accessor Builder (spec §4.2) and the
// Lookup Info Registry (spec §4.3): for one edge collection, direction, and
// depth it picks an index, splits the filter condition into index-covered
// and residual parts, and remembers what must be patched at each vertex.
package graphindex

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dolthub/graphwalk/sql"
)

// HintType is IndexHint's discriminant (spec §6's `indexHint.type`).
type HintType uint8

const (
	HintNone HintType = iota
	HintSimple
	HintNested
	HintDisabled
)

func (t HintType) String() string {
	switch t {
	case HintSimple:
		return "simple"
	case HintNested:
		return "nested"
	case HintDisabled:
		return "disabled"
	default:
		return "none"
	}
}

// IndexHint is the wire shape from spec §6, supplemented with the lookup
// API original_source/arangod/Aql/IndexHint.{h,cpp} has but spec.md never
// gives a Go shape for (see SPEC_FULL.md §4).
type IndexHint struct {
	Type HintType

	Forced         bool
	WaitForSync    bool
	IndexLookahead uint

	// Simple is populated when Type == HintSimple: a flat list of
	// candidate index ids applying regardless of collection/direction/depth.
	Simple []string

	// Nested is populated when Type == HintNested:
	// collection -> direction -> depth-key ("base" or a stringified depth) -> candidate ids.
	Nested map[string]map[string]map[string][]string
}

// wireIndexHint mirrors the JSON shape from spec §6 exactly.
type wireIndexHint struct {
	Type           string                                 `json:"type"`
	Forced         bool                                   `json:"forced"`
	WaitForSync    bool                                   `json:"waitForSync"`
	IndexLookahead uint                                    `json:"indexLookahead"`
	Hint           json.RawMessage                        `json:"hint,omitempty"`
}

// ParseIndexHint decodes the `{indexHint: {...}}` wire object (spec §6).
func ParseIndexHint(data []byte) (IndexHint, error) {
	var wrapper struct {
		IndexHint wireIndexHint `json:"indexHint"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return IndexHint{}, fmt.Errorf("graphindex: parse index hint: %w", sql.ErrBadPlan)
	}
	w := wrapper.IndexHint
	h := IndexHint{
		Forced:         w.Forced,
		WaitForSync:    w.WaitForSync,
		IndexLookahead: w.IndexLookahead,
	}
	switch w.Type {
	case "simple":
		h.Type = HintSimple
		if len(w.Hint) > 0 {
			if err := json.Unmarshal(w.Hint, &h.Simple); err != nil {
				return IndexHint{}, fmt.Errorf("graphindex: parse simple hint payload: %w", sql.ErrBadPlan)
			}
		}
	case "nested":
		h.Type = HintNested
		if len(w.Hint) > 0 {
			if err := json.Unmarshal(w.Hint, &h.Nested); err != nil {
				return IndexHint{}, fmt.Errorf("graphindex: parse nested hint payload: %w", sql.ErrBadPlan)
			}
		}
	case "disabled":
		h.Type = HintDisabled
	default:
		h.Type = HintNone
	}
	return h, nil
}

// CandidatesFor returns the candidate index ids this hint names for the
// given collection/direction/depth, honoring the "base" vs numeric-depth
// key distinction from spec §6. A nil/empty result means the hint names no
// candidates for this combination (not the same as HintDisabled, which
// forbids using any index at all — callers check Type == HintDisabled
// separately).
func (h IndexHint) CandidatesFor(collection string, direction sql.Direction, depth uint, hasDepth bool) []string {
	switch h.Type {
	case HintSimple:
		return h.Simple
	case HintNested:
		byDir, ok := h.Nested[collection]
		if !ok {
			return nil
		}
		byDepth, ok := byDir[direction.String()]
		if !ok {
			return nil
		}
		key := "base"
		if hasDepth {
			key = fmt.Sprintf("%d", depth)
		}
		return byDepth[key]
	default:
		return nil
	}
}

// NamesInvertedIndex reports whether this hint names an inverted index
// (conventionally an "inverted:"-prefixed candidate id) for collection,
// under any direction/depth. The optimizer's LIKE rewrite (spec §4.10's
// last sentence) aborts when this is true, since an inverted index handles
// LIKE natively.
func (h IndexHint) NamesInvertedIndex(collection string) bool {
	namesInverted := func(ids []string) bool {
		for _, id := range ids {
			if strings.HasPrefix(id, "inverted:") {
				return true
			}
		}
		return false
	}
	switch h.Type {
	case HintSimple:
		return namesInverted(h.Simple)
	case HintNested:
		byDir, ok := h.Nested[collection]
		if !ok {
			return false
		}
		for _, byDepth := range byDir {
			for _, ids := range byDepth {
				if namesInverted(ids) {
					return true
				}
			}
		}
	}
	return false
}
