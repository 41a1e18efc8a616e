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

func TestCloneIsStructurallyEqualButIndependent(t *testing.T) {
	src := NewArena()
	v := sql.Variable{ID: 1, Name: "v"}
	left := src.Add(Attribute{Parent: src.Add(Reference{Var: v}), Name: "_from"})
	right := src.Add(Literal{Val: StringVal("vertices/1")})
	cond := src.Add(Binary{Op: OpEq, Left: left, Right: right})

	dst := NewArena()
	clonedRoot := Clone(dst, src, cond)

	require.Equal(t, src.Get(cond), dst.Get(clonedRoot))

	// Mutating the clone must not affect the source.
	dst.Set(dst.Get(clonedRoot).(Binary).Right, Literal{Val: StringVal("vertices/2")})
	origRight := src.Get(src.Get(cond).(Binary).Right).(Literal)
	require.Equal(t, "vertices/1", origRight.Val.Str)
}

func TestCloneIntoSameArena(t *testing.T) {
	a := NewArena()
	v := sql.Variable{ID: 7, Name: "v"}
	h := a.Add(Reference{Var: v})
	h2 := Clone(a, a, h)
	require.NotEqual(t, h, h2)
	require.Equal(t, a.Get(h), a.Get(h2))
}
