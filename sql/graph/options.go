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

package graph

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graphindex"
)

// Order selects the Enumerator strategy (spec §4.8).
type Order uint8

const (
	DepthFirst Order = iota
	BreadthFirst
	Weighted
)

func (o Order) String() string {
	switch o {
	case BreadthFirst:
		return "bfs"
	case Weighted:
		return "weighted"
	default:
		return "dfs"
	}
}

// OrderFromString parses a value produced by Order.String, defaulting to
// DepthFirst for anything unrecognized rather than erroring — the same
// permissive fallback UniquenessMode parsing uses on the wire.
func OrderFromString(s string) Order {
	switch s {
	case "bfs":
		return BreadthFirst
	case "weighted":
		return Weighted
	default:
		return DepthFirst
	}
}

// edgeSourceKey identifies one (collection, direction) pair's registry.
type edgeSourceKey struct {
	collection string
	direction  sql.Direction
}

// TraverserOptions is the Traverser Options component (spec §4.5): the
// fully-resolved parameters a traversal runs with, after the planner has
// picked indexes and compiled every expression.
type TraverserOptions struct {
	MinDepth uint
	MaxDepth uint
	Order    Order

	UniqueVertices UniquenessMode
	UniqueEdges    UniquenessMode

	VertexVar sql.Variable
	EdgeVar   sql.Variable
	PathVar   sql.Variable

	// WeightAttribute is the edge attribute Weighted order reads; when an
	// edge lacks it, DefaultWeight is used instead (spec §4.8, "weight
	// defaulting").
	WeightAttribute string
	DefaultWeight   decimal.Decimal

	// VertexExpr/EdgeExpr, keyed by depth, post-filter a candidate
	// vertex/edge at that depth; depth 0 in the map means "all depths."
	VertexExpr map[uint]ast.Handle
	EdgeExpr   map[uint]ast.Handle

	// PruneExpr, when valid, is evaluated after a vertex is accepted but
	// before its neighbors are expanded: true means stop expanding past it
	// (spec §4.8, "prune"). The start vertex itself is never pruned.
	PruneExpr ast.Handle
	// PostFilterExpr, when valid, is evaluated at each emission site against
	// the emitted vertex and the edge the path last arrived on; a false
	// result drops that path without stopping expansion.
	PostFilterExpr ast.Handle

	ForbiddenDestinations map[string]bool
	// AllowedDestinations, when non-empty, is the exhaustive set of legal
	// landing vertex collections (spec §6's `vertexCollections` restriction
	// list) — a vertex outside it is rejected regardless of
	// ForbiddenDestinations.
	AllowedDestinations map[string]bool

	arena      *ast.Arena
	registries map[edgeSourceKey]*graphindex.Registry
	source     EdgeSource
	log        *logrus.Entry
}

// UniquenessMode is the discipline governing repeated vertices/edges within
// one path or across the whole traversal (spec §4.6).
type UniquenessMode uint8

const (
	UniqueNone UniquenessMode = iota
	UniquePath
	UniqueGlobal
)

func (m UniquenessMode) String() string {
	switch m {
	case UniquePath:
		return "path"
	case UniqueGlobal:
		return "global"
	default:
		return "none"
	}
}

// UniquenessModeFromString parses a value produced by UniquenessMode.String,
// defaulting to UniqueNone for anything unrecognized.
func UniquenessModeFromString(s string) UniquenessMode {
	switch s {
	case "path":
		return UniquePath
	case "global":
		return UniqueGlobal
	default:
		return UniqueNone
	}
}

// NewTraverserOptions returns an empty options set bound to arena and
// source; callers populate the exported fields and call SetRegistry for
// each (collection, direction) the traversal must scan.
func NewTraverserOptions(arena *ast.Arena, source EdgeSource, log *logrus.Entry) *TraverserOptions {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TraverserOptions{
		DefaultWeight: decimal.NewFromInt(1),
		VertexExpr:    make(map[uint]ast.Handle),
		EdgeExpr:      make(map[uint]ast.Handle),
		arena:         arena,
		registries:    make(map[edgeSourceKey]*graphindex.Registry),
		source:        source,
		log:           log,
	}
}

// SetRegistry installs the Lookup Info Registry used when scanning
// collection in direction.
func (o *TraverserOptions) SetRegistry(collection string, direction sql.Direction, reg *graphindex.Registry) {
	o.registries[edgeSourceKey{collection, direction}] = reg
}

// Registries returns every (collection, direction) registry installed via
// SetRegistry, keyed the same way EdgeCollectionSpec names a scan target —
// for the plan node's wire serialization (spec §6's baseLookupInfos /
// depthLookupInfo), which needs to walk all of them deterministically.
func (o *TraverserOptions) Registries() map[EdgeCollectionSpec]*graphindex.Registry {
	out := make(map[EdgeCollectionSpec]*graphindex.Registry, len(o.registries))
	for k, v := range o.registries {
		out[EdgeCollectionSpec{Collection: k.collection, Direction: k.direction}] = v
	}
	return out
}

// BuildCursor opens an Edge Cursor for collection/direction at depth,
// picking the registry's depth-appropriate accessor (spec §4.3's
// AccessorsAtDepth) and rearming it against startVertex immediately.
func (o *TraverserOptions) BuildCursor(collection string, direction sql.Direction, depth uint, startVertex string, counters *Counters) (*Cursor, error) {
	reg, ok := o.registries[edgeSourceKey{collection, direction}]
	if !ok {
		return nil, fmt.Errorf("graph: no lookup info registered for %s/%s: %w", collection, direction, sql.ErrBadPlan)
	}
	accessors := reg.AccessorsAtDepth(depth)
	if len(accessors) == 0 {
		return nil, fmt.Errorf("graph: empty accessor list for %s/%s: %w", collection, direction, sql.ErrBadPlan)
	}
	cur := NewCursor(o.arena, collection, accessors[0], o.VertexVar, o.source, counters, o.log)
	if err := cur.Rearm(startVertex); err != nil {
		return nil, errors.Wrapf(err, "build cursor for %s at depth %d", collection, depth)
	}
	return cur, nil
}

// evalContext binds VertexVar and EdgeVar so post-filter/prune expressions
// written in terms of either can evaluate.
type evalContext struct {
	vertexVar, edgeVar sql.Variable
	vertex             ast.Value
	edge               ast.Value
	haveEdge           bool
}

func (c evalContext) Lookup(v sql.Variable) (ast.Value, bool) {
	if v.ID == c.vertexVar.ID {
		return c.vertex, true
	}
	if c.haveEdge && v.ID == c.edgeVar.ID {
		return c.edge, true
	}
	return ast.Value{}, false
}

// ContextFor implements ExpressionSource for residual-filter evaluation
// during an edge scan. Accessor conditions address the candidate edge
// through the vertex variable (`v._from == ...`), so VertexVar and EdgeVar
// are both bound to the candidate edge's document.
func (o *TraverserOptions) ContextFor(e Edge) ast.ExpressionContext {
	return evalContext{vertexVar: o.VertexVar, edgeVar: o.EdgeVar, vertex: e.Doc, edge: e.Doc, haveEdge: true}
}

// EvaluateVertexExpression runs the depth-appropriate vertex filter (falling
// back to the depth-0/"all depths" entry) against vertex, spec §4.5.
func (o *TraverserOptions) EvaluateVertexExpression(depth uint, vertex ast.Value) (bool, error) {
	expr, ok := o.VertexExpr[depth]
	if !ok {
		expr, ok = o.VertexExpr[0]
	}
	if !ok || !expr.Valid() {
		return true, nil
	}
	return ast.EvalBool(o.arena, expr, evalContext{vertexVar: o.VertexVar, vertex: vertex})
}

// EvaluateEdgeExpression is EvaluateVertexExpression's edge-side
// counterpart.
func (o *TraverserOptions) EvaluateEdgeExpression(depth uint, vertex, edge ast.Value) (bool, error) {
	expr, ok := o.EdgeExpr[depth]
	if !ok {
		expr, ok = o.EdgeExpr[0]
	}
	if !ok || !expr.Valid() {
		return true, nil
	}
	return ast.EvalBool(o.arena, expr, evalContext{vertexVar: o.VertexVar, edgeVar: o.EdgeVar, vertex: vertex, edge: edge, haveEdge: true})
}

// DestinationCollectionAllowed reports whether collection is a legal vertex
// collection to land on (spec §4.5's destination-collection restriction): it
// must be in AllowedDestinations when that set is non-empty, and must not be
// in ForbiddenDestinations either way.
func (o *TraverserOptions) DestinationCollectionAllowed(collection string) bool {
	if len(o.AllowedDestinations) > 0 && !o.AllowedDestinations[collection] {
		return false
	}
	return !o.ForbiddenDestinations[collection]
}

// ActivatePrune reports whether a prune expression is configured.
func (o *TraverserOptions) ActivatePrune() bool { return o.PruneExpr.Valid() }

// ActivatePostFilter reports whether a post-filter expression is
// configured.
func (o *TraverserOptions) ActivatePostFilter() bool { return o.PostFilterExpr.Valid() }

// EvaluatePrune evaluates PruneExpr against the vertex currently being
// expanded.
func (o *TraverserOptions) EvaluatePrune(vertex ast.Value) (bool, error) {
	if !o.ActivatePrune() {
		return false, nil
	}
	return ast.EvalBool(o.arena, o.PruneExpr, evalContext{vertexVar: o.VertexVar, vertex: vertex})
}

// EvaluatePostFilter evaluates PostFilterExpr against the vertex and the
// edge the path most recently arrived on (edge is ignored when haveEdge is
// false, i.e. at the start vertex). Unlike EvaluatePrune, a false result
// here only drops this one path from the emitted set — it never affects
// which vertices get expanded (spec §4.6/§4.9's post-filter, to distinguish
// it from prune).
func (o *TraverserOptions) EvaluatePostFilter(vertex, edge ast.Value, haveEdge bool) (bool, error) {
	if !o.ActivatePostFilter() {
		return true, nil
	}
	ctx := evalContext{vertexVar: o.VertexVar, vertex: vertex}
	if haveEdge {
		ctx.edgeVar = o.EdgeVar
		ctx.edge = edge
		ctx.haveEdge = true
	}
	return ast.EvalBool(o.arena, o.PostFilterExpr, ctx)
}

// WeightEdge reads WeightAttribute off edge.Doc, falling back to
// DefaultWeight when absent, and fails with ErrNegativeWeight when the
// resulting weight is negative (spec §4.8's weighted-traversal invariant).
func (o *TraverserOptions) WeightEdge(edge Edge) (decimal.Decimal, error) {
	if o.WeightAttribute == "" {
		return o.DefaultWeight, nil
	}
	if edge.Doc.Kind != ast.ObjectValue {
		return o.DefaultWeight, nil
	}
	v, ok := edge.Doc.Obj[o.WeightAttribute]
	if !ok {
		return o.DefaultWeight, nil
	}
	d, ok := v.AsDouble()
	if !ok {
		return decimal.Zero, fmt.Errorf("graph: edge %s weight attribute %q is not numeric: %w", edge.ID, o.WeightAttribute, sql.ErrTypeMismatch)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("graph: edge %s weight %s: %w", edge.ID, d, sql.ErrNegativeWeight)
	}
	return d, nil
}
