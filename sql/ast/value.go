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

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValueKind is the typed-literal kind from spec §3: string / int / double /
// bool / null.
type ValueKind uint8

const (
	StringValue ValueKind = iota
	IntValue
	DoubleValue
	BoolValue
	NullValue
	// ArrayValue and ObjectValue are evaluation-result kinds only: no
	// Literal AST node ever carries one (spec §3 restricts literals to
	// string/int/double/bool/null), but evaluating an Array or Object AST
	// node (also spec §3) produces one.
	ArrayValue
	ObjectValue
)

func (k ValueKind) String() string {
	switch k {
	case StringValue:
		return "string"
	case IntValue:
		return "int"
	case DoubleValue:
		return "double"
	case BoolValue:
		return "bool"
	case NullValue:
		return "null"
	default:
		return "unknown"
	}
}

// Value is a typed literal. Doubles use shopspring/decimal rather than
// float64 so that repeated constant folding of edge weights (spec §4.8's
// weighted accumulation) never drifts.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Dbl  decimal.Decimal
	Bool bool
	Arr  []Value
	Obj  map[string]Value
}

func ArrayVal(elems []Value) Value       { return Value{Kind: ArrayValue, Arr: elems} }
func ObjectVal(fields map[string]Value) Value { return Value{Kind: ObjectValue, Obj: fields} }

func NullVal() Value                { return Value{Kind: NullValue} }
func StringVal(s string) Value      { return Value{Kind: StringValue, Str: s} }
func IntVal(i int64) Value          { return Value{Kind: IntValue, Int: i} }
func BoolVal(b bool) Value          { return Value{Kind: BoolValue, Bool: b} }
func DoubleVal(d decimal.Decimal) Value {
	return Value{Kind: DoubleValue, Dbl: d}
}
func DoubleValFromFloat(f float64) Value {
	return Value{Kind: DoubleValue, Dbl: decimal.NewFromFloat(f)}
}

func (v Value) IsNull() bool { return v.Kind == NullValue }

// Truthy implements the AQL-ish truthiness used by prune/post-filter
// evaluation: null and false-bool and zero-ish values are false, everything
// else (including non-empty strings) is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case NullValue:
		return false
	case BoolValue:
		return v.Bool
	case IntValue:
		return v.Int != 0
	case DoubleValue:
		return !v.Dbl.IsZero()
	case StringValue:
		return v.Str != ""
	case ArrayValue:
		return len(v.Arr) > 0
	case ObjectValue:
		return len(v.Obj) > 0
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case NullValue:
		return "null"
	case BoolValue:
		return fmt.Sprintf("%v", v.Bool)
	case IntValue:
		return fmt.Sprintf("%d", v.Int)
	case DoubleValue:
		return v.Dbl.String()
	case StringValue:
		return v.Str
	case ArrayValue:
		return fmt.Sprintf("%v", v.Arr)
	case ObjectValue:
		return fmt.Sprintf("%v", v.Obj)
	default:
		return "?"
	}
}

// AsDouble coerces a numeric value to decimal.Decimal. ok is false for
// non-numeric kinds (string/bool/null).
func (v Value) AsDouble() (decimal.Decimal, bool) {
	switch v.Kind {
	case DoubleValue:
		return v.Dbl, true
	case IntValue:
		return decimal.NewFromInt(v.Int), true
	default:
		return decimal.Zero, false
	}
}

// Equal is value equality across kinds the way AQL's `==` works for
// literals of the same kind; cross-kind comparisons (e.g. int vs string)
// are always false.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case NullValue:
		return true
	case BoolValue:
		return v.Bool == o.Bool
	case IntValue:
		return v.Int == o.Int
	case DoubleValue:
		return v.Dbl.Equal(o.Dbl)
	case StringValue:
		return v.Str == o.Str
	default:
		return false
	}
}

// Compare returns -1/0/1 the way `<`, `<=`, `>`, `>=` need it to. ok is
// false when the two values aren't ordered against each other (different
// kinds, or either is null).
func (v Value) Compare(o Value) (cmp int, ok bool) {
	if v.Kind != o.Kind || v.Kind == NullValue {
		return 0, false
	}
	switch v.Kind {
	case BoolValue:
		if v.Bool == o.Bool {
			return 0, true
		}
		if !v.Bool {
			return -1, true
		}
		return 1, true
	case IntValue:
		switch {
		case v.Int < o.Int:
			return -1, true
		case v.Int > o.Int:
			return 1, true
		default:
			return 0, true
		}
	case DoubleValue:
		return v.Dbl.Cmp(o.Dbl), true
	case StringValue:
		switch {
		case v.Str < o.Str:
			return -1, true
		case v.Str > o.Str:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}
