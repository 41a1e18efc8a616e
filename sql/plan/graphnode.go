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

// Package plan is the Graph Node & Plan Integration component (spec
// §4.9): the query-plan node that owns a traversal's AST arena, its
// registered index conditions, and the lifecycle (register -> prepare ->
// clone -> execute) a planner drives it through.
package plan

import (
	"fmt"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graph"
	"github.com/dolthub/graphwalk/sql/graphindex"
)

// NodeType is the plan node's `type` wire discriminant (spec §6): plain
// bounded traversal, or one of the two shortest-path siblings supplemented
// from original_source (SPEC_FULL.md §3.9).
type NodeType uint8

const (
	TypeTraversal NodeType = iota
	TypeShortestPath
	TypeKShortestPaths
)

func (t NodeType) String() string {
	switch t {
	case TypeShortestPath:
		return "shortestPath"
	case TypeKShortestPaths:
		return "kShortestPaths"
	default:
		return "traversal"
	}
}

// conditionSpec is one condition registered against a (collection,
// direction) pair before PrepareOptions turns it into a LookupInfo.
type conditionSpec struct {
	collection string
	direction  sql.Direction
	depth      uint
	hasDepth   bool
	condition  ast.Handle
}

// GraphNode is the Graph Node component (spec §4.9). It owns the AST arena
// for the whole traversal (start-vertex expression, every registered
// condition, the prune/post-filter expressions) and the output variables
// a consuming plan reads rows through.
type GraphNode struct {
	ID   string
	Type NodeType
	Mode sql.DeploymentMode

	Arena *ast.Arena

	StartVertexExpr ast.Handle

	VertexVar sql.Variable
	EdgeVar   sql.Variable
	PathVar   bool // whether a path variable was requested at all
	PathVarID sql.Variable

	MinDepth uint
	MaxDepth uint
	Order    graph.Order

	UniqueVertices graph.UniquenessMode
	UniqueEdges    graph.UniquenessMode

	// PruneExpr, when valid, stops expansion past a vertex it accepts
	// (spec §3's plan-node fields: "a prune expression + its variable
	// set"). Its variable set is whatever ast.UsedVariables(Arena,
	// PruneExpr) reports; nothing beyond VertexVar is legal in it, since
	// it runs per-vertex during expansion, not per-path at emission.
	PruneExpr ast.Handle

	// VertexCollections restricts which vertex collections a landed-on
	// vertex may belong to (spec §4.5's destination-collection
	// restriction); empty means unrestricted.
	VertexCollections []string

	// ProduceVertices reports whether the traversal emits a vertex
	// document per row, as opposed to only edges/paths (spec §6's
	// `produceVertices`).
	ProduceVertices bool
	// Parallelism is a hint for how many shard-local workers may drive
	// this traversal concurrently in Coordinator mode; 1 means serial.
	Parallelism uint

	// WeightAttribute/DefaultWeight configure Weighted order the same way
	// TraverserOptions does; PrepareOptions forwards them verbatim.
	WeightAttribute string
	DefaultWeight   decimal.Decimal

	// BaseVertexExpr is the vertex filter applied at every depth unless
	// overridden by VertexExpr; VertexExpr holds the per-depth overrides
	// (spec §6's `vertexExpressions` plus optional `baseVertexExpression`).
	BaseVertexExpr ast.Handle
	VertexExpr     map[uint]ast.Handle

	// TmpVar is the traversal's internal vertex-binding variable. This
	// implementation doesn't distinguish an internal binding from the
	// output VertexVar a consuming plan reads — they're the same
	// variable — but the wire format still names them separately, so
	// TmpVar mirrors VertexVar at construction time.
	TmpVar sql.Variable

	conditions       []conditionSpec
	globalConditions []ast.Handle
	postFilters      []ast.Handle

	// registries holds Lookup Info Registries installed directly via
	// RegisterPreparedRegistry — e.g. deserialized from the wire format's
	// baseLookupInfos/depthLookupInfo (spec §6) on a shard that executes a
	// node shipped from the coordinator without ever running the Index
	// Accessor Builder itself. PrepareOptions forwards these the same way
	// it forwards registries built fresh from g.conditions.
	registries map[graph.EdgeCollectionSpec]*graphindex.Registry

	log *logrus.Entry

	opts *graph.TraverserOptions
}

// NewGraphNode allocates a GraphNode with a fresh id and arena. startExpr
// must evaluate (spec §7's ErrParse condition) to a Reference or a string
// Literal — anything else is rejected eagerly rather than at execution
// time, the same "fail at plan time, not at the first row" posture the
// teacher's plan nodes take.
func NewGraphNode(arena *ast.Arena, startExpr ast.Handle, vertexVar, edgeVar sql.Variable, mode sql.DeploymentMode) (*GraphNode, error) {
	switch n := arena.Get(startExpr).(type) {
	case ast.Reference, ast.Literal:
		if lit, ok := n.(ast.Literal); ok && lit.Val.Kind != ast.StringValue {
			return nil, fmt.Errorf("plan: start vertex literal must be a string: %w", sql.ErrParse)
		}
	default:
		return nil, fmt.Errorf("plan: start vertex expression must be a reference or string literal: %w", sql.ErrParse)
	}
	return &GraphNode{
		ID:              uuid.NewV4().String(),
		Type:            TypeTraversal,
		Mode:            mode,
		Arena:           arena,
		StartVertexExpr: startExpr,
		VertexVar:       vertexVar,
		EdgeVar:         edgeVar,
		MinDepth:        1,
		MaxDepth:        1,
		ProduceVertices: true,
		Parallelism:     1,
		DefaultWeight:   decimal.NewFromInt(1),
		VertexExpr:      make(map[uint]ast.Handle),
		TmpVar:          vertexVar,
		log:             logrus.WithField("component", "plan"),
	}, nil
}

// SetVertexCollections installs the allowed destination vertex collections
// (spec §4.5); passing nil/empty clears the restriction.
func (g *GraphNode) SetVertexCollections(collections []string) {
	g.VertexCollections = collections
}

// SetProduceVertices toggles whether this traversal emits a vertex document
// per row.
func (g *GraphNode) SetProduceVertices(produce bool) {
	g.ProduceVertices = produce
}

// SetParallelism installs the worker-count hint PrepareOptions forwards for
// Coordinator-mode execution.
func (g *GraphNode) SetParallelism(n uint) {
	g.Parallelism = n
}

// SetWeight installs the Weighted-order weight attribute and default
// (spec §4.8's weight defaulting), rejecting a negative default up front
// the same way WeightEdge rejects a negative edge weight at execution time.
func (g *GraphNode) SetWeight(attribute string, def decimal.Decimal) error {
	if def.IsNegative() {
		return fmt.Errorf("plan: default weight %s is negative: %w", def, sql.ErrNegativeWeight)
	}
	g.WeightAttribute = attribute
	g.DefaultWeight = def
	return nil
}

// SetBaseVertexExpression installs the vertex filter applied at every depth
// unless a depth-specific override is registered via
// SetVertexExpressionAtDepth.
func (g *GraphNode) SetBaseVertexExpression(expr ast.Handle) {
	g.BaseVertexExpr = expr
}

// SetVertexExpressionAtDepth installs a vertex filter that applies only at
// depth, shadowing BaseVertexExpr there.
func (g *GraphNode) SetVertexExpressionAtDepth(depth uint, expr ast.Handle) {
	if g.VertexExpr == nil {
		g.VertexExpr = make(map[uint]ast.Handle)
	}
	g.VertexExpr[depth] = expr
}

// SetVertexOutput/SetEdgeOutput/SetPathOutput bind the variables a
// consuming plan reads the traversal's output rows through.
func (g *GraphNode) SetVertexOutput(v sql.Variable) { g.VertexVar = v }
func (g *GraphNode) SetEdgeOutput(v sql.Variable)   { g.EdgeVar = v }
func (g *GraphNode) SetPathOutput(v sql.Variable) {
	g.PathVar = true
	g.PathVarID = v
}

// SetDepthBounds validates and installs min/max depth (spec §7's
// ErrInvalidDepth: non-integer is enforced by the uint type itself;
// negative can't be represented; min > max is the one runtime check
// needed).
func (g *GraphNode) SetDepthBounds(min, max uint) error {
	if min > max {
		return fmt.Errorf("plan: minDepth %d > maxDepth %d: %w", min, max, sql.ErrInvalidDepth)
	}
	g.MinDepth, g.MaxDepth = min, max
	return nil
}

// RegisterCondition attaches a filter condition against collection/
// direction, optionally scoped to one depth (spec §4.9's
// registerCondition); PrepareOptions turns every registered condition
// into a LookupInfo via the Index Accessor Builder.
func (g *GraphNode) RegisterCondition(collection string, direction sql.Direction, condition ast.Handle) {
	g.conditions = append(g.conditions, conditionSpec{collection: collection, direction: direction, condition: condition})
}

// RegisterConditionAtDepth is RegisterCondition scoped to exactly one
// depth, producing a Lookup Info Registry depth override (spec §4.3).
func (g *GraphNode) RegisterConditionAtDepth(collection string, direction sql.Direction, depth uint, condition ast.Handle) {
	g.conditions = append(g.conditions, conditionSpec{collection: collection, direction: direction, depth: depth, hasDepth: true, condition: condition})
}

// SetPruneExpression installs the expression that stops expansion past a
// vertex it accepts (spec §3/§4.8's "prune"). Passing ast.Zero clears it.
func (g *GraphNode) SetPruneExpression(condition ast.Handle) {
	g.PruneExpr = condition
}

// RegisterGlobalCondition attaches a condition that PrepareOptions ANDs
// into every registered condition, base and per-depth alike, before
// building each accessor (spec §4.9).
func (g *GraphNode) RegisterGlobalCondition(condition ast.Handle) {
	g.globalConditions = append(g.globalConditions, condition)
}

// RegisterPostFilterCondition attaches a post-filter over the completed
// path (spec §4.9), rejecting it with ErrBadPlan up front if it reads a
// variable in forbiddenVars — the "cannot run only on the coordinator"
// precondition original_source's VarUsageFinder exists to check
// (SPEC_FULL.md §4): a post-filter referencing a coordinator-only
// variable can't be pushed down to a single-server execution of this
// node.
func (g *GraphNode) RegisterPostFilterCondition(condition ast.Handle, forbiddenVars map[uint64]bool) error {
	for _, v := range ast.UsedVariables(g.Arena, condition) {
		if forbiddenVars[v.ID] {
			return fmt.Errorf("plan: post-filter references coordinator-only variable %q: %w", v.Name, sql.ErrBadPlan)
		}
	}
	g.postFilters = append(g.postFilters, condition)
	return nil
}

// RegisterPreparedRegistry installs a Lookup Info Registry obtained
// directly rather than built via RegisterCondition — the path a
// deserialized node's baseLookupInfos/depthLookupInfo (spec §6) take.
// PrepareOptions forwards it to the resulting TraverserOptions without
// re-running the Index Accessor Builder.
func (g *GraphNode) RegisterPreparedRegistry(collection string, direction sql.Direction, reg *graphindex.Registry) {
	if g.registries == nil {
		g.registries = make(map[graph.EdgeCollectionSpec]*graphindex.Registry)
	}
	g.registries[graph.EdgeCollectionSpec{Collection: collection, Direction: direction}] = reg
}

// PrepareOptions is spec §4.9's prepareOptions: it runs the Index
// Accessor Builder over every registered condition unioned with every
// registered global condition (spec §4.9: "synthesize a Lookup Info using
// the global edge conditions" for the base set, "repeat with the union of
// (per-depth ∪ global)" for per-depth overrides), builds one Lookup Info
// Registry per (collection, direction), installs the post-filter as the
// conjunction of every registered post-filter condition, and returns the
// resulting TraverserOptions ready for an Enumerator. Calling it twice
// replaces the previously prepared options.
func (g *GraphNode) PrepareOptions(catalog graphindex.IndexCatalog, source graph.EdgeSource, hints map[string]*graphindex.IndexHint) (*graph.TraverserOptions, error) {
	opts := graph.NewTraverserOptions(g.Arena, source, g.log)
	opts.VertexVar = g.VertexVar
	opts.EdgeVar = g.EdgeVar
	opts.MinDepth = g.MinDepth
	opts.MaxDepth = g.MaxDepth
	opts.Order = g.Order
	opts.UniqueVertices = g.UniqueVertices
	opts.UniqueEdges = g.UniqueEdges
	opts.PruneExpr = g.PruneExpr
	opts.PostFilterExpr = conjoin(g.Arena, g.postFilters)
	opts.WeightAttribute = g.WeightAttribute
	opts.DefaultWeight = g.DefaultWeight
	if len(g.VertexCollections) > 0 {
		allowed := make(map[string]bool, len(g.VertexCollections))
		for _, c := range g.VertexCollections {
			allowed[c] = true
		}
		opts.AllowedDestinations = allowed
	}
	if g.BaseVertexExpr.Valid() {
		opts.VertexExpr[0] = g.BaseVertexExpr
	}
	for depth, expr := range g.VertexExpr {
		opts.VertexExpr[depth] = expr
	}

	registries := make(map[graph.EdgeCollectionSpec]*graphindex.Registry, len(g.registries))
	for spec, reg := range g.registries {
		registries[spec] = reg
	}
	for _, cond := range g.conditions {
		spec := graph.EdgeCollectionSpec{Collection: cond.collection, Direction: cond.direction}
		var hinted []string
		if h, ok := hints[cond.collection]; ok {
			hinted = h.CandidatesFor(cond.collection, cond.direction, cond.depth, cond.hasDepth)
		}
		merged := conjoin(g.Arena, append([]ast.Handle{cond.condition}, g.globalConditions...))
		info, err := graphindex.BuildAccessor(g.Arena, g.Arena, merged, cond.collection, g.VertexVar, cond.direction, catalog, hinted)
		if err != nil {
			return nil, errors.Wrapf(err, "prepare options for %s/%s", cond.collection, cond.direction)
		}
		reg, ok := registries[spec]
		if !ok {
			reg = graphindex.NewRegistry(nil)
			registries[spec] = reg
		}
		if cond.hasDepth {
			reg.SetDepthOverride(cond.depth, info)
		} else {
			reg.Base = append(reg.Base, info)
		}
	}
	for spec, reg := range registries {
		opts.SetRegistry(spec.Collection, spec.Direction, reg)
	}

	g.opts = opts
	return opts, nil
}

// conjoin ANDs every valid handle in conds together into one expression,
// skipping invalid ones; a single survivor is returned unwrapped rather
// than packed into a redundant one-member Nary, and an empty input yields
// ast.Zero (no condition at all).
func conjoin(arena *ast.Arena, conds []ast.Handle) ast.Handle {
	var members []ast.Handle
	for _, c := range conds {
		if c.Valid() {
			members = append(members, c)
		}
	}
	switch len(members) {
	case 0:
		return ast.Zero
	case 1:
		return members[0]
	default:
		return arena.Add(ast.Nary{Op: ast.OpAnd, Members: members})
	}
}

// Clone deep-copies this GraphNode: a fresh arena, every AST handle
// re-homed into it via ast.Clone, ready to be dispatched to a shard in
// Coordinator mode without the clone and the original ever sharing
// mutable state (spec §4.9's clone operation; spec §9's arena-per-shard
// design note).
func (g *GraphNode) Clone() *GraphNode {
	dst := ast.NewArena()
	clone := &GraphNode{
		ID:                uuid.NewV4().String(),
		Type:              g.Type,
		Mode:              g.Mode,
		Arena:             dst,
		StartVertexExpr:   ast.Clone(dst, g.Arena, g.StartVertexExpr),
		VertexVar:         g.VertexVar,
		EdgeVar:           g.EdgeVar,
		PathVar:           g.PathVar,
		PathVarID:         g.PathVarID,
		MinDepth:          g.MinDepth,
		MaxDepth:          g.MaxDepth,
		Order:             g.Order,
		UniqueVertices:    g.UniqueVertices,
		UniqueEdges:       g.UniqueEdges,
		PruneExpr:         ast.Clone(dst, g.Arena, g.PruneExpr),
		VertexCollections: append([]string(nil), g.VertexCollections...),
		ProduceVertices:   g.ProduceVertices,
		Parallelism:       g.Parallelism,
		WeightAttribute:   g.WeightAttribute,
		DefaultWeight:     g.DefaultWeight,
		BaseVertexExpr:    ast.Clone(dst, g.Arena, g.BaseVertexExpr),
		TmpVar:            g.TmpVar,
		log:               g.log,
	}
	if len(g.VertexExpr) > 0 {
		clone.VertexExpr = make(map[uint]ast.Handle, len(g.VertexExpr))
		for depth, expr := range g.VertexExpr {
			clone.VertexExpr[depth] = ast.Clone(dst, g.Arena, expr)
		}
	}
	for _, c := range g.conditions {
		clone.conditions = append(clone.conditions, conditionSpec{
			collection: c.collection,
			direction:  c.direction,
			depth:      c.depth,
			hasDepth:   c.hasDepth,
			condition:  ast.Clone(dst, g.Arena, c.condition),
		})
	}
	for _, c := range g.globalConditions {
		clone.globalConditions = append(clone.globalConditions, ast.Clone(dst, g.Arena, c))
	}
	for _, c := range g.postFilters {
		clone.postFilters = append(clone.postFilters, ast.Clone(dst, g.Arena, c))
	}
	for spec, reg := range g.registries {
		data, err := reg.ToJSON(g.Arena)
		if err != nil {
			g.log.WithError(err).WithField("collection", spec.Collection).Warn("clone: dropping unclonable registry")
			continue
		}
		cloned, err := graphindex.RegistryFromJSON(dst, data)
		if err != nil {
			g.log.WithError(err).WithField("collection", spec.Collection).Warn("clone: dropping unclonable registry")
			continue
		}
		clone.RegisterPreparedRegistry(spec.Collection, spec.Direction, cloned)
	}
	return clone
}
