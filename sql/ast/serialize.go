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
	"encoding/json"
	"fmt"

	"github.com/dolthub/graphwalk/sql"
)

// wireNode is the JSON-serializable form of one AST node (spec §6's
// `condition` / `expression` fields are ASTs serialized this way).
type wireNode struct {
	Kind     string     `json:"kind"`
	Var      *wireVar   `json:"var,omitempty"`
	Value    *wireValue `json:"value,omitempty"`
	Parent   *wireNode  `json:"parent,omitempty"`
	Name     string     `json:"name,omitempty"`
	Index    *wireNode  `json:"index,omitempty"`
	Op       string     `json:"op,omitempty"`
	Left     *wireNode  `json:"left,omitempty"`
	Right    *wireNode  `json:"right,omitempty"`
	Members  []wireNode `json:"members,omitempty"`
	Args     []wireNode `json:"args,omitempty"`
	Elements []wireNode `json:"elements,omitempty"`
	Key      string     `json:"key,omitempty"`
	Value2   *wireNode  `json:"elementValue,omitempty"`
	PlanID   string     `json:"planId,omitempty"`
}

type wireVar struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Kind uint8  `json:"kind"`
}

type wireValue struct {
	Kind uint8  `json:"kind"`
	Str  string `json:"str,omitempty"`
	Int  int64  `json:"int,omitempty"`
	Dbl  string `json:"dbl,omitempty"`
	Bool bool   `json:"bool,omitempty"`
}

// ToJSON serializes the subtree rooted at h into the wire condition/
// expression format used throughout spec §6.
func ToJSON(a *Arena, h Handle) ([]byte, error) {
	if !h.Valid() {
		return []byte("null"), nil
	}
	w, err := toWire(a, h)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWire(a *Arena, h Handle) (wireNode, error) {
	switch n := a.Get(h).(type) {
	case Reference:
		return wireNode{Kind: "reference", Var: &wireVar{ID: n.Var.ID, Name: n.Var.Name, Kind: uint8(n.Var.Kind)}}, nil
	case Literal:
		return wireNode{Kind: "value", Value: &wireValue{
			Kind: uint8(n.Val.Kind), Str: n.Val.Str, Int: n.Val.Int, Dbl: n.Val.Dbl.String(), Bool: n.Val.Bool,
		}}, nil
	case Attribute:
		p, err := toWire(a, n.Parent)
		if err != nil {
			return wireNode{}, err
		}
		return wireNode{Kind: "attribute", Parent: &p, Name: n.Name}, nil
	case Indexed:
		p, err := toWire(a, n.Parent)
		if err != nil {
			return wireNode{}, err
		}
		idx, err := toWire(a, n.Index)
		if err != nil {
			return wireNode{}, err
		}
		return wireNode{Kind: "indexed", Parent: &p, Index: &idx}, nil
	case Binary:
		l, err := toWire(a, n.Left)
		if err != nil {
			return wireNode{}, err
		}
		r, err := toWire(a, n.Right)
		if err != nil {
			return wireNode{}, err
		}
		return wireNode{Kind: "binary", Op: n.Op.String(), Left: &l, Right: &r}, nil
	case Nary:
		members := make([]wireNode, len(n.Members))
		for i, m := range n.Members {
			w, err := toWire(a, m)
			if err != nil {
				return wireNode{}, err
			}
			members[i] = w
		}
		return wireNode{Kind: "nary", Op: n.Op.String(), Members: members}, nil
	case FuncCall:
		args := make([]wireNode, len(n.Args))
		for i, arg := range n.Args {
			w, err := toWire(a, arg)
			if err != nil {
				return wireNode{}, err
			}
			args[i] = w
		}
		return wireNode{Kind: "function", Name: n.Name, Args: args}, nil
	case Array:
		elems := make([]wireNode, len(n.Elements))
		for i, e := range n.Elements {
			w, err := toWire(a, e)
			if err != nil {
				return wireNode{}, err
			}
			elems[i] = w
		}
		return wireNode{Kind: "array", Elements: elems}, nil
	case Object:
		elems := make([]wireNode, len(n.Elements))
		for i, e := range n.Elements {
			w, err := toWire(a, e)
			if err != nil {
				return wireNode{}, err
			}
			elems[i] = w
		}
		return wireNode{Kind: "object", Elements: elems}, nil
	case ObjectElement:
		v, err := toWire(a, n.Value)
		if err != nil {
			return wireNode{}, err
		}
		return wireNode{Kind: "objectElement", Key: n.Key, Value2: &v}, nil
	case Subquery:
		return wireNode{Kind: "subquery", PlanID: n.PlanID}, nil
	case Collection:
		return wireNode{Kind: "collection", Name: n.Name}, nil
	case View:
		return wireNode{Kind: "view", Name: n.Name}, nil
	case Nop:
		return wireNode{Kind: "nop"}, nil
	default:
		return wireNode{}, fmt.Errorf("ast: cannot serialize kind %v: %w", n.Kind(), sql.ErrBadPlan)
	}
}

// FromJSON deserializes data (produced by ToJSON) into a._
func FromJSON(a *Arena, data []byte) (Handle, error) {
	if string(data) == "null" || len(data) == 0 {
		return Zero, nil
	}
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return Zero, fmt.Errorf("ast: decode node: %w", sql.ErrBadPlan)
	}
	return fromWire(a, &w)
}

func fromWire(a *Arena, w *wireNode) (Handle, error) {
	if w == nil {
		return Zero, nil
	}
	switch w.Kind {
	case "reference":
		if w.Var == nil {
			return Zero, fmt.Errorf("ast: reference missing var: %w", sql.ErrBadPlan)
		}
		return a.Add(Reference{Var: sql.Variable{ID: w.Var.ID, Name: w.Var.Name, Kind: sql.VariableKind(w.Var.Kind)}}), nil
	case "value":
		if w.Value == nil {
			return Zero, fmt.Errorf("ast: value missing payload: %w", sql.ErrBadPlan)
		}
		dbl, _ := decimalFromString(w.Value.Dbl)
		return a.Add(Literal{Val: Value{
			Kind: ValueKind(w.Value.Kind), Str: w.Value.Str, Int: w.Value.Int, Dbl: dbl, Bool: w.Value.Bool,
		}}), nil
	case "attribute":
		p, err := fromWire(a, w.Parent)
		if err != nil {
			return Zero, err
		}
		return a.Add(Attribute{Parent: p, Name: w.Name}), nil
	case "indexed":
		p, err := fromWire(a, w.Parent)
		if err != nil {
			return Zero, err
		}
		idx, err := fromWire(a, w.Index)
		if err != nil {
			return Zero, err
		}
		return a.Add(Indexed{Parent: p, Index: idx}), nil
	case "binary":
		l, err := fromWire(a, w.Left)
		if err != nil {
			return Zero, err
		}
		r, err := fromWire(a, w.Right)
		if err != nil {
			return Zero, err
		}
		op, err := binaryOpFromString(w.Op)
		if err != nil {
			return Zero, err
		}
		return a.Add(Binary{Op: op, Left: l, Right: r}), nil
	case "nary":
		members := make([]Handle, len(w.Members))
		for i := range w.Members {
			h, err := fromWire(a, &w.Members[i])
			if err != nil {
				return Zero, err
			}
			members[i] = h
		}
		op := OpAnd
		if w.Op == "or" {
			op = OpOr
		}
		return a.Add(Nary{Op: op, Members: members}), nil
	case "function":
		args := make([]Handle, len(w.Args))
		for i := range w.Args {
			h, err := fromWire(a, &w.Args[i])
			if err != nil {
				return Zero, err
			}
			args[i] = h
		}
		return a.Add(FuncCall{Name: w.Name, Args: args}), nil
	case "array":
		elems := make([]Handle, len(w.Elements))
		for i := range w.Elements {
			h, err := fromWire(a, &w.Elements[i])
			if err != nil {
				return Zero, err
			}
			elems[i] = h
		}
		return a.Add(Array{Elements: elems}), nil
	case "object":
		elems := make([]Handle, len(w.Elements))
		for i := range w.Elements {
			h, err := fromWire(a, &w.Elements[i])
			if err != nil {
				return Zero, err
			}
			elems[i] = h
		}
		return a.Add(Object{Elements: elems}), nil
	case "objectElement":
		v, err := fromWire(a, w.Value2)
		if err != nil {
			return Zero, err
		}
		return a.Add(ObjectElement{Key: w.Key, Value: v}), nil
	case "subquery":
		return a.Add(Subquery{PlanID: w.PlanID}), nil
	case "collection":
		return a.Add(Collection{Name: w.Name}), nil
	case "view":
		return a.Add(View{Name: w.Name}), nil
	case "nop":
		return a.Add(Nop{}), nil
	default:
		return Zero, fmt.Errorf("ast: unknown wire kind %q: %w", w.Kind, sql.ErrBadPlan)
	}
}

func binaryOpFromString(s string) (BinaryOp, error) {
	switch s {
	case "==":
		return OpEq, nil
	case "!=":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	case "in":
		return OpIn, nil
	default:
		return 0, fmt.Errorf("ast: unknown binary op %q: %w", s, sql.ErrBadPlan)
	}
}
