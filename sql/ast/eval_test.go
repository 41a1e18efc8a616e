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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/graphwalk/sql"
)

func TestEvaluateBinary(t *testing.T) {
	a := NewArena()
	tests := []struct {
		name string
		op   BinaryOp
		l, r Value
		want bool
	}{
		{"eq true", OpEq, IntVal(1), IntVal(1), true},
		{"eq false", OpEq, IntVal(1), IntVal(2), false},
		{"lt", OpLt, IntVal(1), IntVal(2), true},
		{"ge", OpGe, IntVal(2), IntVal(2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := a.Add(Binary{Op: tt.op, Left: a.Add(Literal{Val: tt.l}), Right: a.Add(Literal{Val: tt.r})})
			got, err := EvalBool(a, h, NoVarContext{})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateUndefinedVariable(t *testing.T) {
	a := NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	h := a.Add(Reference{Var: v})
	_, err := Evaluate(a, h, NoVarContext{})
	require.True(t, errors.Is(err, sql.ErrUndefinedVariable))
}

func TestEvaluateDivisionByZero(t *testing.T) {
	a := NewArena()
	h := a.Add(FuncCall{Name: "DIV", Args: []Handle{
		a.Add(Literal{Val: IntVal(10)}),
		a.Add(Literal{Val: IntVal(0)}),
	}})
	_, err := Evaluate(a, h, NoVarContext{})
	require.True(t, errors.Is(err, sql.ErrDivisionByZero))
}

func TestEvaluateArithmeticTypeMismatch(t *testing.T) {
	a := NewArena()
	h := a.Add(FuncCall{Name: "PLUS", Args: []Handle{
		a.Add(Literal{Val: StringVal("x")}),
		a.Add(Literal{Val: IntVal(1)}),
	}})
	_, err := Evaluate(a, h, NoVarContext{})
	require.True(t, errors.Is(err, sql.ErrTypeMismatch))
}

func TestEvaluateAttributeAccess(t *testing.T) {
	a := NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	h := a.Add(Attribute{Parent: a.Add(Reference{Var: v}), Name: "_from"})

	ctx := SingleVarContext{Var: v, Val: ObjectVal(map[string]Value{"_from": StringVal("vertices/1")})}
	got, err := Evaluate(a, h, ctx)
	require.NoError(t, err)
	require.Equal(t, StringVal("vertices/1"), got)
}

func TestEvaluateInOperator(t *testing.T) {
	a := NewArena()
	arr := a.Add(Array{Elements: []Handle{
		a.Add(Literal{Val: IntVal(1)}),
		a.Add(Literal{Val: IntVal(2)}),
	}})
	h := a.Add(Binary{Op: OpIn, Left: a.Add(Literal{Val: IntVal(2)}), Right: arr})
	got, err := EvalBool(a, h, NoVarContext{})
	require.NoError(t, err)
	require.True(t, got)
}
