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

// Package graph is the Edge Cursor, Traverser Options, and Path Validator
// components (spec §4.4-§4.6): the pieces that walk a physical edge
// collection one vertex at a time, decide which expansions are legal, and
// evaluate vertex/edge/prune expressions along the way.
package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
	"github.com/dolthub/graphwalk/sql/graphindex"
)

// Edge is one physical edge document, the unit an EdgeIterator yields.
// Doc is the full document (so residual filters and prune expressions can
// reach arbitrary attributes); From/To are pulled out because the cursor's
// hot path (direction bookkeeping, the opposite-endpoint lookup) needs them
// without a map probe.
type Edge struct {
	ID   string
	From string
	To   string
	Doc  ast.Value
}

// EdgeIterator yields the edges one Lookup call matched, in storage order.
// Closing an exhausted iterator is a no-op; Close is always safe to call
// more than once.
//
// Repositionable reports whether this iterator can be seeked onto a new key
// in place (true) or must be discarded and replaced by a fresh Lookup call
// (false). A storage engine whose cursor type can reseek without
// reallocating — a btree cursor, a sorted in-memory scan — answers true and
// implements Repositioner; one backed by a one-shot remote scan (or, as with
// this module's own fakeEdgeSource, an iterator that was already filtered
// down to one key by Lookup) answers false.
type EdgeIterator interface {
	Next() (Edge, bool, error)
	Close() error
	Repositionable() bool
}

// Repositioner is the optional capability a Repositionable EdgeIterator
// implements: Reposition seeks it onto key without allocating a new
// iterator.
type Repositioner interface {
	Reposition(key string) error
}

// EdgeSource is the storage-engine collaborator (out of scope per spec §1):
// given a collection, direction, and the literal key the index condition
// was patched to, it returns the matching edges. A real implementation
// would push the whole LookupInfo.Condition down to an index scan; this
// module only needs the key-equality fast path the Edge Cursor drives.
type EdgeSource interface {
	Lookup(collection string, direction sql.Direction, key string) (EdgeIterator, error)
}

// Counters are the observability counters spec §4.4 calls out: Scanned
// counts edges read off the index/collection, Filtered those the residual
// filter rejected, and CursorsCreated/CursorsRearmed count cursor
// allocations and rearms. Nothing in this package increments HttpRequests.
// Fields are atomic because the parallelism hint (spec §5) lets multiple
// sub-enumerations share one Counters instance once TraverserOptions is
// prepared and read-only.
type Counters struct {
	Scanned        atomic.Uint64
	Filtered       atomic.Uint64
	HttpRequests   atomic.Uint64
	CursorsCreated atomic.Uint64
	CursorsRearmed atomic.Uint64
}

// Cursor is the Edge Cursor (spec §4.4): one LookupInfo bound to a live
// EdgeSource, rearmable against a new start vertex without rebuilding the
// whole accessor.
type Cursor struct {
	Collection string
	Info       graphindex.LookupInfo
	VertexVar  sql.Variable

	arena    *ast.Arena
	source   EdgeSource
	counters *Counters
	log      *logrus.Entry

	iter EdgeIterator
}

// NewCursor builds a Cursor over info, scoped to collection. arena must be
// the same arena info's AST handles were built in — Rearm patches that
// arena in place.
func NewCursor(arena *ast.Arena, collection string, info graphindex.LookupInfo, vertexVar sql.Variable, source EdgeSource, counters *Counters, log *logrus.Entry) *Cursor {
	if counters == nil {
		counters = &Counters{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	counters.CursorsCreated.Add(1)
	return &Cursor{
		Collection: collection,
		Info:       info,
		VertexVar:  vertexVar,
		arena:      arena,
		source:     source,
		counters:   counters,
		log:        log.WithField("collection", collection).WithField("direction", info.Direction.String()),
	}
}

// Rearm patches the index condition (if needed) to key off vertexID and
// either repositions the existing iterator in place or closes it and opens
// a fresh one against the source (spec §4.4: "a cursor is rearmed rather
// than rebuilt for each new start vertex" — reposition is the literal
// reading of that when the iterator supports it; reallocation is the
// fallback when it doesn't).
func (c *Cursor) Rearm(vertexID string) error {
	c.Info.PatchEndpoint(c.arena, vertexID)

	if c.iter != nil && c.iter.Repositionable() {
		if rep, ok := c.iter.(Repositioner); ok {
			if err := rep.Reposition(vertexID); err != nil {
				return fmt.Errorf("graph: reposition cursor on %s: %w", c.Collection, err)
			}
			c.counters.CursorsRearmed.Add(1)
			c.log.WithField("vertex", vertexID).Debug("repositioned edge cursor")
			return nil
		}
	}

	if c.iter != nil {
		_ = c.iter.Close()
		c.iter = nil
	}
	c.counters.CursorsRearmed.Add(1)
	iter, err := c.source.Lookup(c.Collection, c.Info.Direction, vertexID)
	if err != nil {
		return fmt.Errorf("graph: rearm cursor on %s: %w", c.Collection, err)
	}
	c.iter = iter
	c.log.WithField("vertex", vertexID).Debug("rearmed edge cursor")
	return nil
}

// Next returns the next edge passing the residual filter, or ok=false once
// the underlying iterator is exhausted. Edges the residual filter rejects
// are skipped transparently and counted in Counters.Filtered.
func (c *Cursor) Next(ctx ExpressionSource) (Edge, bool, error) {
	if c.iter == nil {
		return Edge{}, false, fmt.Errorf("graph: cursor not rearmed: %w", sql.ErrBadPlan)
	}
	for {
		e, ok, err := c.iter.Next()
		if err != nil {
			return Edge{}, false, err
		}
		if !ok {
			return Edge{}, false, nil
		}
		c.counters.Scanned.Add(1)
		if !c.Info.Residual.Valid() {
			return e, true, nil
		}
		pass, err := ast.EvalBool(c.arena, c.Info.Residual, ctx.ContextFor(e))
		if err != nil {
			return Edge{}, false, err
		}
		if !pass {
			c.counters.Filtered.Add(1)
			continue
		}
		return e, true, nil
	}
}

// ExpressionSource builds the ExpressionContext used to evaluate a cursor's
// residual filter (and, later, vertex/edge/prune expressions) against one
// candidate edge. Traverser Options supplies the concrete implementation.
type ExpressionSource interface {
	ContextFor(e Edge) ast.ExpressionContext
}
