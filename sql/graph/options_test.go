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

package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDestinationCollectionAllowedHonorsAllowAndForbidLists(t *testing.T) {
	o := &TraverserOptions{}
	require.True(t, o.DestinationCollectionAllowed("vertices"), "no restriction at all means everything is allowed")

	o.ForbiddenDestinations = map[string]bool{"banned": true}
	require.False(t, o.DestinationCollectionAllowed("banned"))
	require.True(t, o.DestinationCollectionAllowed("vertices"))

	o.AllowedDestinations = map[string]bool{"vertices": true}
	require.True(t, o.DestinationCollectionAllowed("vertices"))
	require.False(t, o.DestinationCollectionAllowed("other"), "outside the allow-list even though it isn't on the forbidden list")
}

func TestOrderStringRoundTrip(t *testing.T) {
	for _, o := range []Order{DepthFirst, BreadthFirst, Weighted} {
		require.Equal(t, o, OrderFromString(o.String()))
	}
}

func TestUniquenessModeStringRoundTrip(t *testing.T) {
	for _, m := range []UniquenessMode{UniqueNone, UniquePath, UniqueGlobal} {
		require.Equal(t, m, UniquenessModeFromString(m.String()))
	}
}
