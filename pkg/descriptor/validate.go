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
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/api/resource"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

const maxPort = 65535

// Validate checks the whole tree. Dependents must name an image; the root
// may leave it empty for the image builder to fill in.
func (s *ServiceSpec) Validate() error {
	return s.validate("root", false)
}

func (s *ServiceSpec) validate(path string, requireImage bool) error {
	invalid := func(format string, args ...any) error {
		return cderrors.NewWithContext(cderrors.ErrCodeInvalidConfig,
			fmt.Sprintf(format, args...),
			map[string]any{"service": path, "image": s.RegistryImagePath})
	}

	if requireImage && s.RegistryImagePath == "" {
		return invalid("%s: dependent services must set registryImagePath", path)
	}
	if s.Replicas < 1 {
		return invalid("%s: replicas must be at least 1, got %d", path, s.Replicas)
	}
	if s.Replicas > 1 && s.HasRetainedVolume() {
		return invalid("%s: retainVolume must be false when using more than 1 replica", path)
	}
	if s.ContainerPort < 1 || s.ContainerPort > maxPort {
		return invalid("%s: containerPort %d out of range", path, s.ContainerPort)
	}
	if s.ServicePort < 1 || s.ServicePort > maxPort {
		return invalid("%s: servicePort %d out of range", path, s.ServicePort)
	}
	if s.TerminationGracePeriod < 0 {
		return invalid("%s: terminationGracePeriod must not be negative", path)
	}

	for i, v := range s.Volumes {
		if v.VolumeMount == "" {
			return invalid("%s: volumes[%d] has no volumeMount", path, i)
		}
		if _, err := resource.ParseQuantity(v.VolumeSize); err != nil {
			return invalid("%s: volumes[%d] has invalid volumeSize %q", path, i, v.VolumeSize)
		}
		if v.FolderPermission != "" {
			if _, err := strconv.ParseUint(v.FolderPermission, 8, 32); err != nil || len(v.FolderPermission) > 4 {
				return invalid("%s: volumes[%d] has invalid folderPermission %q", path, i, v.FolderPermission)
			}
		}
	}

	for i := range s.OtherImages {
		child := fmt.Sprintf("%s.otherImages[%d]", path, i)
		if err := s.OtherImages[i].validate(child, true); err != nil {
			return err
		}
	}
	return nil
}
