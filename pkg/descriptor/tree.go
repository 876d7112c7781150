// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package descriptor

// DependentImages returns the registry image paths of every dependent in the
// tree below s, at any depth. The root itself is not included.
func (s *ServiceSpec) DependentImages() map[string]struct{} {
	set := make(map[string]struct{})
	var collect func(*ServiceSpec)
	collect = func(n *ServiceSpec) {
		for i := range n.OtherImages {
			set[n.OtherImages[i].RegistryImagePath] = struct{}{}
			collect(&n.OtherImages[i])
		}
	}
	collect(s)
	return set
}

// Walk calls fn for every node of the tree, dependents before their parent.
// Walking stops at the first error.
func (s *ServiceSpec) Walk(fn func(spec *ServiceSpec, depth int) error) error {
	return walk(s, 0, fn)
}

func walk(s *ServiceSpec, depth int, fn func(*ServiceSpec, int) error) error {
	for i := range s.OtherImages {
		if err := walk(&s.OtherImages[i], depth+1, fn); err != nil {
			return err
		}
	}
	return fn(s, depth)
}

// Count returns the number of services in the tree, the root included.
func (s *ServiceSpec) Count() int {
	n := 1
	for i := range s.OtherImages {
		n += s.OtherImages[i].Count()
	}
	return n
}
