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
	"github.com/dolthub/graphwalk/sql"
)

// Reference is a node referring to a named binding (spec §3).
type Reference struct {
	Var sql.Variable
}

func (Reference) Kind() Kind           { return KindReference }
func (Reference) Children() []Handle   { return nil }
func (r Reference) WithChildren([]Handle) Node { return r }

// Literal wraps a typed Value.
type Literal struct {
	Val Value
}

func (Literal) Kind() Kind           { return KindValue }
func (Literal) Children() []Handle   { return nil }
func (l Literal) WithChildren([]Handle) Node { return l }

// Attribute is `Parent.Name` (spec §3's attribute access).
type Attribute struct {
	Parent Handle
	Name   string
}

func (Attribute) Kind() Kind         { return KindAttribute }
func (a Attribute) Children() []Handle { return []Handle{a.Parent} }
func (a Attribute) WithChildren(c []Handle) Node {
	a.Parent = c[0]
	return a
}

// Indexed is `Parent[Index]`.
type Indexed struct {
	Parent Handle
	Index  Handle
}

func (Indexed) Kind() Kind         { return KindIndexed }
func (i Indexed) Children() []Handle { return []Handle{i.Parent, i.Index} }
func (i Indexed) WithChildren(c []Handle) Node {
	i.Parent, i.Index = c[0], c[1]
	return i
}

// BinaryOp enumerates the binary operators from spec §3.
type BinaryOp uint8

const (
	OpEq BinaryOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
)

func (op BinaryOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIn:
		return "in"
	default:
		return "?"
	}
}

// Binary is a binary operator node: eq/ne/lt/le/gt/ge/in.
type Binary struct {
	Op    BinaryOp
	Left  Handle
	Right Handle
}

func (Binary) Kind() Kind         { return KindBinary }
func (b Binary) Children() []Handle { return []Handle{b.Left, b.Right} }
func (b Binary) WithChildren(c []Handle) Node {
	b.Left, b.Right = c[0], c[1]
	return b
}

// NaryOp enumerates the n-ary boolean operators from spec §3.
type NaryOp uint8

const (
	OpAnd NaryOp = iota
	OpOr
)

func (op NaryOp) String() string {
	if op == OpOr {
		return "or"
	}
	return "and"
}

// Nary is an n-ary and/or node. The Index Accessor Builder (spec §4.2)
// treats a top-level And's Members as the filter's conjuncts.
type Nary struct {
	Op      NaryOp
	Members []Handle
}

func (Nary) Kind() Kind         { return KindNary }
func (n Nary) Children() []Handle { return n.Members }
func (n Nary) WithChildren(c []Handle) Node {
	n.Members = append([]Handle(nil), c...)
	return n
}

// FuncCall is `Name(Args...)`.
type FuncCall struct {
	Name string
	Args []Handle
}

func (FuncCall) Kind() Kind         { return KindFuncCall }
func (f FuncCall) Children() []Handle { return f.Args }
func (f FuncCall) WithChildren(c []Handle) Node {
	f.Args = append([]Handle(nil), c...)
	return f
}

// Array is `[Elements...]`.
type Array struct {
	Elements []Handle
}

func (Array) Kind() Kind         { return KindArray }
func (a Array) Children() []Handle { return a.Elements }
func (a Array) WithChildren(c []Handle) Node {
	a.Elements = append([]Handle(nil), c...)
	return a
}

// ObjectElement is one `key: value` pair inside an Object.
type ObjectElement struct {
	Key   string
	Value Handle
}

func (ObjectElement) Kind() Kind         { return KindObjectElement }
func (e ObjectElement) Children() []Handle { return []Handle{e.Value} }
func (e ObjectElement) WithChildren(c []Handle) Node {
	e.Value = c[0]
	return e
}

// Object is `{Elements...}`, each Elements[i] an ObjectElement handle.
type Object struct {
	Elements []Handle
}

func (Object) Kind() Kind         { return KindObject }
func (o Object) Children() []Handle { return o.Elements }
func (o Object) WithChildren(c []Handle) Node {
	o.Elements = append([]Handle(nil), c...)
	return o
}

// Subquery is an opaque reference to a nested plan. The planning/execution
// subsystems for subqueries are out of scope (spec §1); this node exists so
// Clone/Walk/replace can pass through a subquery unchanged rather than
// erroring when they encounter one embedded in a larger expression.
type Subquery struct {
	PlanID string
}

func (Subquery) Kind() Kind           { return KindSubquery }
func (Subquery) Children() []Handle   { return nil }
func (s Subquery) WithChildren([]Handle) Node { return s }

// Collection names a collection by its own name (used as the `FOR v IN
// edges` source in the optimizer rewrite example, spec §4.10).
type Collection struct {
	Name string
}

func (Collection) Kind() Kind           { return KindCollection }
func (Collection) Children() []Handle   { return nil }
func (c Collection) WithChildren([]Handle) Node { return c }

// View names a view, analogous to Collection.
type View struct {
	Name string
}

func (View) Kind() Kind           { return KindView }
func (View) Children() []Handle   { return nil }
func (v View) WithChildren([]Handle) Node { return v }

// Nop is a no-op placeholder node (e.g. an elided residual condition).
type Nop struct{}

func (Nop) Kind() Kind           { return KindNop }
func (Nop) Children() []Handle   { return nil }
func (n Nop) WithChildren([]Handle) Node { return n }
