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

import (
	"strings"

	"github.com/distribution/reference"
)

// Identifier returns the registry image path without tag or digest.
// It is the logical identity every derived name is built from.
func (s *ServiceSpec) Identifier() string {
	return ImageIdentifier(s.RegistryImagePath)
}

// ImageIdentifier strips the tag and digest from an image reference.
// References that do not parse fall back to trimming everything after the
// last ':' that follows the last '/', so registry ports survive.
func ImageIdentifier(image string) string {
	if image == "" {
		return ""
	}

	if ref, err := reference.Parse(image); err == nil {
		if named, ok := ref.(reference.Named); ok {
			return named.Name()
		}
	}

	if i := strings.Index(image, "@"); i >= 0 {
		image = image[:i]
	}
	slash := strings.LastIndex(image, "/")
	if colon := strings.LastIndex(image, ":"); colon > slash {
		image = image[:colon]
	}
	return image
}
