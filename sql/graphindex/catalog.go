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
	"github.com/dolthub/graphwalk/sql"
	"github.com/dolthub/graphwalk/sql/ast"
)

// IndexHandle identifies one physical index, as the transaction layer
// would hand back (spec §3's "one per shard after cluster expansion; exactly
// one in single-node"). Only the id travels across the wire (spec §6).
type IndexHandle struct {
	ID string
	// CoversEndpoints is true when scanning this index alone yields both
	// _from and _to without fetching the edge document — the Edge Cursor's
	// covering-index fast path (spec §4.4).
	CoversEndpoints bool
}

// Candidate is one index the catalog considers for a (collection,
// condition) pair, along with its estimated cost.
type Candidate struct {
	Handle       IndexHandle
	Cost         float64
	CoveredAttrs []sql.AttributePath
}

// IndexCatalog is the storage-engine/transaction-layer collaborator (out of
// scope per spec §1): given a collection, a condition, and a nominal
// cardinality, it names the indexes that could serve the scan.
type IndexCatalog interface {
	// CandidateIndexes returns every index usable for collection that the
	// catalog knows about, with an estimated cost for answering condition
	// against it. nominalCardinality is a fixed estimate the Accessor
	// Builder supplies (spec §4.2 step 2: "a fixed constant such as 1000
	// is historically sufficient" — the exact number never matters).
	CandidateIndexes(collection string, arena *ast.Arena, condition ast.Handle, nominalCardinality int) ([]Candidate, error)
}
