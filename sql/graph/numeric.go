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

import "golang.org/x/exp/constraints"

// smaller returns whichever of a, b compares lowest. The two-ball k-paths
// search (§4.7) uses it to pick which ball's frontier to expand each round.
func smaller[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
