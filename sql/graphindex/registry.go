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
	"sort"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
)

// Registry is the Lookup Info Registry (spec §4.3): a base list of
// LookupInfo used at every depth, plus per-depth overrides for the rare
// case where a depth-specific filter (e.g. `FILTER e.weight > 3 AT DEPTH
// 2`) needs its own accessor.
type Registry struct {
	Base      []LookupInfo
	ByDepth   map[uint]LookupInfo
}

// NewRegistry returns a registry whose base accessors are base.
func NewRegistry(base []LookupInfo) *Registry {
	return &Registry{Base: base, ByDepth: make(map[uint]LookupInfo)}
}

// SetDepthOverride installs info as the accessor used at exactly depth d,
// shadowing the base list for that depth only.
func (r *Registry) SetDepthOverride(d uint, info LookupInfo) {
	if r.ByDepth == nil {
		r.ByDepth = make(map[uint]LookupInfo)
	}
	r.ByDepth[d] = info
}

// AccessorsAtDepth returns the accessor(s) to use for a cursor opened at
// depth d: the override if one exists for d, else the base list.
func (r *Registry) AccessorsAtDepth(d uint) []LookupInfo {
	if info, ok := r.ByDepth[d]; ok {
		return []LookupInfo{info}
	}
	return r.Base
}

// wireRegistry mirrors spec §6's `{base: [...], levels: {...}}` shape.
type wireRegistry struct {
	Base   []json.RawMessage          `json:"base"`
	Levels map[string]json.RawMessage `json:"levels,omitempty"`
}

// ToJSON serializes r using arena a to resolve its AST handles.
func (r *Registry) ToJSON(a *ast.Arena) ([]byte, error) {
	base := make([]json.RawMessage, len(r.Base))
	for i, info := range r.Base {
		b, err := info.ToJSON(a)
		if err != nil {
			return nil, err
		}
		base[i] = b
	}
	var levels map[string]json.RawMessage
	if len(r.ByDepth) > 0 {
		levels = make(map[string]json.RawMessage, len(r.ByDepth))
		depths := make([]uint, 0, len(r.ByDepth))
		for d := range r.ByDepth {
			depths = append(depths, d)
		}
		sort.Slice(depths, func(i, j int) bool { return depths[i] < depths[j] })
		for _, d := range depths {
			b, err := r.ByDepth[d].ToJSON(a)
			if err != nil {
				return nil, err
			}
			levels[depthKey(d)] = b
		}
	}
	return json.Marshal(wireRegistry{Base: base, Levels: levels})
}

// RegistryFromJSON deserializes data (produced by ToJSON) into AST handles
// living in arena a.
func RegistryFromJSON(a *ast.Arena, data []byte) (*Registry, error) {
	var w wireRegistry
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("graphindex: decode registry: %w", sql.ErrBadPlan)
	}
	base := make([]LookupInfo, len(w.Base))
	for i, raw := range w.Base {
		info, err := LookupInfoFromJSON(a, raw)
		if err != nil {
			return nil, err
		}
		base[i] = info
	}
	r := NewRegistry(base)
	for key, raw := range w.Levels {
		d, err := depthFromKey(key)
		if err != nil {
			return nil, err
		}
		info, err := LookupInfoFromJSON(a, raw)
		if err != nil {
			return nil, err
		}
		r.SetDepthOverride(d, info)
	}
	return r, nil
}

func depthKey(d uint) string {
	return fmt.Sprintf("%d", d)
}

func depthFromKey(key string) (uint, error) {
	var d uint
	if _, err := fmt.Sscanf(key, "%d", &d); err != nil {
		return 0, fmt.Errorf("graphindex: bad depth key %q: %w", key, sql.ErrBadPlan)
	}
	return d, nil
}
