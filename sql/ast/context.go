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

package ast

import "github.com/dolthub/graphwalk/sql"

// ExpressionContext is a map from variable to value (spec §4.1). The
// source's FixedVar/SingleVar/NoVar class hierarchy becomes composition
// over this one-method interface (spec §9, Design Notes).
type ExpressionContext interface {
	Lookup(v sql.Variable) (Value, bool)
}

// MapContext is the general-purpose ExpressionContext.
type MapContext map[uint64]Value

func (m MapContext) Lookup(v sql.Variable) (Value, bool) {
	val, ok := m[v.ID]
	return val, ok
}

// SingleVarContext binds exactly one variable without allocating a map.
// (The sql/graph enumerators bind their vertex/edge variables through
// their own context type, not this one.)
type SingleVarContext struct {
	Var sql.Variable
	Val Value
}

func (c SingleVarContext) Lookup(v sql.Variable) (Value, bool) {
	if v.ID == c.Var.ID {
		return c.Val, true
	}
	return Value{}, false
}

// NoVarContext resolves nothing; used for evaluating expressions already
// known to be constant.
type NoVarContext struct{}

func (NoVarContext) Lookup(sql.Variable) (Value, bool) { return Value{}, false }
