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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/graphwalk/sql"
)

func TestJSONRoundTrip(t *testing.T) {
	a := NewArena()
	v := sql.Variable{ID: 5, Name: "v", Kind: sql.TemporaryVariable}
	h := a.Add(Nary{Op: OpAnd, Members: []Handle{
		a.Add(Binary{
			Op:    OpEq,
			Left:  a.Add(Attribute{Parent: a.Add(Reference{Var: v}), Name: "_from"}),
			Right: a.Add(Literal{Val: StringVal("vertices/1")}),
		}),
		a.Add(Binary{
			Op:    OpIn,
			Left:  a.Add(Literal{Val: IntVal(3)}),
			Right: a.Add(Array{Elements: []Handle{a.Add(Literal{Val: IntVal(3)})}}),
		}),
	}})

	data, err := ToJSON(a, h)
	require.NoError(t, err)

	b := NewArena()
	h2, err := FromJSON(b, data)
	require.NoError(t, err)

	data2, err := ToJSON(b, h2)
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(data2))
}

func TestJSONRoundTripNullHandle(t *testing.T) {
	a := NewArena()
	data, err := ToJSON(a, Zero)
	require.NoError(t, err)
	require.Equal(t, "null", string(data))

	h, err := FromJSON(a, data)
	require.NoError(t, err)
	require.Equal(t, Zero, h)
}
