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

package plan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graph"
	"github.com/dolthub/graphwalk/sql/graphindex"
)

// wirePruneOrFilter mirrors the `{expression, variables}` shape spec §6
// uses for the optional postFilter record.
type wirePruneOrFilter struct {
	Expression json.RawMessage `json:"expression"`
	Variables  []string        `json:"variables,omitempty"`
}

// wireGraphNode mirrors the plan-node wire shape from spec §6: the scalar
// traversal parameters, every resolved per-collection accessor, and the
// optional prune/post-filter/vertex-filter expressions, all keyed the way a
// shard reconstructs a runnable GraphNode from it without ever re-running
// the Index Accessor Builder.
type wireGraphNode struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	StartVertex    json.RawMessage `json:"startVertex"`
	MinDepth       uint            `json:"minDepth"`
	MaxDepth       uint            `json:"maxDepth"`
	VertexVar      string          `json:"vertexVariable"`
	EdgeVar        string          `json:"edgeVariable,omitempty"`
	PathVar        string          `json:"pathVariable,omitempty"`
	UniqueVertices string          `json:"uniqueVertices"`
	UniqueEdges    string          `json:"uniqueEdges"`

	Order           string `json:"order"`
	WeightAttribute string `json:"weightAttribute,omitempty"`
	DefaultWeight   string `json:"defaultWeight"`

	VertexCollections []string `json:"vertexCollections,omitempty"`
	EdgeCollections   []string `json:"edgeCollections,omitempty"`
	ProduceVertices   bool     `json:"produceVertices"`
	Parallelism       uint     `json:"parallelism"`

	// BaseLookupInfos/DepthLookupInfo are keyed by edge collection name: the
	// registry built (or deserialized) for each collection this traversal
	// scans (spec §6). Each value is the accessor record LookupInfo.ToJSON
	// produces.
	BaseLookupInfos map[string][]json.RawMessage         `json:"baseLookupInfos,omitempty"`
	DepthLookupInfo map[string]map[string]json.RawMessage `json:"depthLookupInfo,omitempty"`

	VertexExpressions    map[string]json.RawMessage `json:"vertexExpressions,omitempty"`
	BaseVertexExpression json.RawMessage            `json:"baseVertexExpression,omitempty"`

	PruneExpr      json.RawMessage `json:"expression,omitempty"`
	PruneVariables []string        `json:"pruneVariables,omitempty"`

	PostFilter *wirePruneOrFilter `json:"postFilter,omitempty"`

	TmpVar string `json:"tmpVar"`
}

// ToJSON serializes the plan node's full wire shape (spec §6): every scalar
// traversal parameter, the per-collection Lookup Info Registries
// PrepareOptions built (if it has run), and the optional prune/post-filter/
// vertex-filter expressions.
func (g *GraphNode) ToJSON() ([]byte, error) {
	startVertex, err := ast.ToJSON(g.Arena, g.StartVertexExpr)
	if err != nil {
		return nil, err
	}
	w := wireGraphNode{
		ID:                g.ID,
		Type:              g.Type.String(),
		StartVertex:       startVertex,
		MinDepth:          g.MinDepth,
		MaxDepth:          g.MaxDepth,
		VertexVar:         g.VertexVar.Name,
		UniqueVertices:    g.UniqueVertices.String(),
		UniqueEdges:       g.UniqueEdges.String(),
		Order:             g.Order.String(),
		WeightAttribute:   g.WeightAttribute,
		DefaultWeight:     g.DefaultWeight.String(),
		VertexCollections: g.VertexCollections,
		ProduceVertices:   g.ProduceVertices,
		Parallelism:       g.Parallelism,
		TmpVar:            g.TmpVar.Name,
	}
	if g.EdgeVar.Name != "" {
		w.EdgeVar = g.EdgeVar.Name
	}
	if g.PathVar {
		w.PathVar = g.PathVarID.Name
	}

	registries := g.collectRegistries()
	if len(registries) > 0 {
		w.EdgeCollections = make([]string, 0, len(registries))
		w.BaseLookupInfos = make(map[string][]json.RawMessage, len(registries))
		for _, collection := range sortedCollections(registries) {
			reg := registries[collection]
			w.EdgeCollections = append(w.EdgeCollections, collection)
			base := make([]json.RawMessage, len(reg.Base))
			for i, info := range reg.Base {
				b, err := info.ToJSON(g.Arena)
				if err != nil {
					return nil, err
				}
				base[i] = b
			}
			w.BaseLookupInfos[collection] = base
			if len(reg.ByDepth) == 0 {
				continue
			}
			if w.DepthLookupInfo == nil {
				w.DepthLookupInfo = make(map[string]map[string]json.RawMessage)
			}
			depths := make(map[string]json.RawMessage, len(reg.ByDepth))
			for depth, info := range reg.ByDepth {
				b, err := info.ToJSON(g.Arena)
				if err != nil {
					return nil, err
				}
				depths[strconv.FormatUint(uint64(depth), 10)] = b
			}
			w.DepthLookupInfo[collection] = depths
		}
	}

	if len(g.VertexExpr) > 0 {
		w.VertexExpressions = make(map[string]json.RawMessage, len(g.VertexExpr))
		for depth, expr := range g.VertexExpr {
			b, err := ast.ToJSON(g.Arena, expr)
			if err != nil {
				return nil, err
			}
			w.VertexExpressions[strconv.FormatUint(uint64(depth), 10)] = b
		}
	}
	if g.BaseVertexExpr.Valid() {
		b, err := ast.ToJSON(g.Arena, g.BaseVertexExpr)
		if err != nil {
			return nil, err
		}
		w.BaseVertexExpression = b
	}

	if g.PruneExpr.Valid() {
		b, err := ast.ToJSON(g.Arena, g.PruneExpr)
		if err != nil {
			return nil, err
		}
		w.PruneExpr = b
		for _, v := range ast.UsedVariables(g.Arena, g.PruneExpr) {
			w.PruneVariables = append(w.PruneVariables, v.Name)
		}
	}

	postFilter := conjoin(g.Arena, g.postFilters)
	if postFilter.Valid() {
		b, err := ast.ToJSON(g.Arena, postFilter)
		if err != nil {
			return nil, err
		}
		pf := &wirePruneOrFilter{Expression: b}
		for _, v := range ast.UsedVariables(g.Arena, postFilter) {
			pf.Variables = append(pf.Variables, v.Name)
		}
		w.PostFilter = pf
	}

	return json.Marshal(w)
}

// collectRegistries merges registries built by a prior PrepareOptions call
// with any pre-set via RegisterPreparedRegistry, keyed by collection name.
// A collection registered in both directions at once collapses to whichever
// is visited last — traversal nodes in practice scan each collection in one
// direction, the same simplification ArangoDB's TraversalNode makes.
func (g *GraphNode) collectRegistries() map[string]*graphindex.Registry {
	out := make(map[string]*graphindex.Registry)
	for spec, reg := range g.registries {
		out[spec.Collection] = reg
	}
	if g.opts != nil {
		for spec, reg := range g.opts.Registries() {
			out[spec.Collection] = reg
		}
	}
	return out
}

func sortedCollections(m map[string]*graphindex.Registry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FromJSON parses data (produced by ToJSON) into a runnable GraphNode:
// every scalar parameter, the deserialized Lookup Info Registries (reached
// via RegisterPreparedRegistry, so PrepareOptions can forward them to a
// TraverserOptions without ever calling the Index Accessor Builder again),
// and the prune/post-filter/vertex-filter expressions, all re-homed into
// arena.
func FromJSON(arena *ast.Arena, data []byte) (*GraphNode, error) {
	var w wireGraphNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("plan: decode graph node: %w", sql.ErrBadPlan)
	}
	startExpr, err := ast.FromJSON(arena, w.StartVertex)
	if err != nil {
		return nil, err
	}

	vertexVar := sql.Variable{Name: w.VertexVar}
	edgeVar := sql.Variable{Name: w.EdgeVar}
	node, err := NewGraphNode(arena, startExpr, vertexVar, edgeVar, sql.SingleServer)
	if err != nil {
		return nil, err
	}
	node.ID = w.ID

	switch w.Type {
	case "shortestPath":
		node.Type = TypeShortestPath
	case "kShortestPaths":
		node.Type = TypeKShortestPaths
	default:
		node.Type = TypeTraversal
	}

	if err := node.SetDepthBounds(w.MinDepth, w.MaxDepth); err != nil {
		return nil, err
	}
	node.UniqueVertices = graph.UniquenessModeFromString(w.UniqueVertices)
	node.UniqueEdges = graph.UniquenessModeFromString(w.UniqueEdges)
	node.Order = graph.OrderFromString(w.Order)
	if w.PathVar != "" {
		node.SetPathOutput(sql.Variable{Name: w.PathVar})
	}
	if w.TmpVar != "" {
		node.TmpVar = sql.Variable{Name: w.TmpVar}
	}

	node.SetProduceVertices(w.ProduceVertices)
	node.SetParallelism(w.Parallelism)
	node.SetVertexCollections(w.VertexCollections)

	defaultWeight := decimal.NewFromInt(1)
	if w.DefaultWeight != "" {
		defaultWeight, err = decimal.NewFromString(w.DefaultWeight)
		if err != nil {
			return nil, fmt.Errorf("plan: decode default weight %q: %w", w.DefaultWeight, sql.ErrBadPlan)
		}
	}
	if err := node.SetWeight(w.WeightAttribute, defaultWeight); err != nil {
		return nil, err
	}

	if len(w.BaseVertexExpression) > 0 {
		h, err := ast.FromJSON(arena, w.BaseVertexExpression)
		if err != nil {
			return nil, err
		}
		node.SetBaseVertexExpression(h)
	}
	for key, raw := range w.VertexExpressions {
		depth, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("plan: bad vertex expression depth key %q: %w", key, sql.ErrBadPlan)
		}
		h, err := ast.FromJSON(arena, raw)
		if err != nil {
			return nil, err
		}
		node.SetVertexExpressionAtDepth(uint(depth), h)
	}

	if len(w.PruneExpr) > 0 {
		h, err := ast.FromJSON(arena, w.PruneExpr)
		if err != nil {
			return nil, err
		}
		node.SetPruneExpression(h)
	}
	if w.PostFilter != nil && len(w.PostFilter.Expression) > 0 {
		h, err := ast.FromJSON(arena, w.PostFilter.Expression)
		if err != nil {
			return nil, err
		}
		node.postFilters = append(node.postFilters, h)
	}

	if err := node.restoreRegistries(arena, w); err != nil {
		return nil, err
	}

	return node, nil
}

// restoreRegistries rebuilds a Lookup Info Registry per collection from the
// wire's baseLookupInfos/depthLookupInfo and installs each via
// RegisterPreparedRegistry. A registry's direction is read off its first
// accessor record, since the wire shape doesn't repeat it per collection.
func (g *GraphNode) restoreRegistries(arena *ast.Arena, w wireGraphNode) error {
	registries := make(map[string]*graphindex.Registry)
	getOrCreate := func(collection string) *graphindex.Registry {
		reg, ok := registries[collection]
		if !ok {
			reg = graphindex.NewRegistry(nil)
			registries[collection] = reg
		}
		return reg
	}

	for collection, items := range w.BaseLookupInfos {
		reg := getOrCreate(collection)
		for _, raw := range items {
			info, err := graphindex.LookupInfoFromJSON(arena, raw)
			if err != nil {
				return err
			}
			reg.Base = append(reg.Base, info)
		}
	}
	for collection, byDepth := range w.DepthLookupInfo {
		reg := getOrCreate(collection)
		for key, raw := range byDepth {
			depth, err := strconv.ParseUint(key, 10, 64)
			if err != nil {
				return fmt.Errorf("plan: bad lookup info depth key %q: %w", key, sql.ErrBadPlan)
			}
			info, err := graphindex.LookupInfoFromJSON(arena, raw)
			if err != nil {
				return err
			}
			reg.SetDepthOverride(uint(depth), info)
		}
	}

	for collection, reg := range registries {
		direction := sql.Outbound
		if len(reg.Base) > 0 {
			direction = reg.Base[0].Direction
		} else {
			for _, info := range reg.ByDepth {
				direction = info.Direction
				break
			}
		}
		g.RegisterPreparedRegistry(collection, direction, reg)
	}
	return nil
}
