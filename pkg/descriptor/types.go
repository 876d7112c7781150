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
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/autocd/pkg/defaults"
)

// VolumeSpec declares one persistent volume mounted into the service container.
type VolumeSpec struct {
	// VolumeMount is the mount path inside the container.
	VolumeMount string `json:"volumeMount" yaml:"volumeMount"`

	// VolumeSize is the requested storage as a Kubernetes quantity, e.g. "5Gi".
	VolumeSize string `json:"volumeSize" yaml:"volumeSize"`

	// RetainVolume keeps the underlying volume, and its data, across redeploys.
	RetainVolume bool `json:"retainVolume" yaml:"retainVolume"`

	// FolderPermission is an optional octal mode applied recursively by an init container.
	FolderPermission string `json:"folderPermission,omitempty" yaml:"folderPermission,omitempty"`
}

// ServiceSpec is the deployment descriptor of one service and its dependents.
type ServiceSpec struct {
	ContainerPort          int32 `json:"containerPort" yaml:"containerPort"`
	ServicePort            int32 `json:"servicePort" yaml:"servicePort"`
	Replicas               int32 `json:"replicas" yaml:"replicas"`
	PubliclyAccessible     bool  `json:"publiclyAccessible" yaml:"publiclyAccessible"`
	TerminationGracePeriod int64 `json:"terminationGracePeriod" yaml:"terminationGracePeriod"`

	// DockerImagePath is carried for descriptor compatibility and not used for deployment.
	DockerImagePath string `json:"dockerImagePath,omitempty" yaml:"dockerImagePath,omitempty"`

	// RegistryImagePath is the full image reference, registry/namespace/name:tag.
	// Empty on the root service until the image builder fills it in.
	RegistryImagePath string `json:"registryImagePath,omitempty" yaml:"registryImagePath,omitempty"`

	// Subdomains maps a build type to the ingress host of that build.
	Subdomains map[string]string `json:"subdomains,omitempty" yaml:"subdomains,omitempty"`

	// Subdomain is the host resolved for the current pass.
	Subdomain string `json:"subdomain,omitempty" yaml:"subdomain,omitempty"`

	// ShouldHost set to false tears the service down instead of deploying it.
	ShouldHost bool `json:"shouldHost" yaml:"shouldHost"`

	Volumes []VolumeSpec `json:"volumes,omitempty" yaml:"volumes,omitempty"`

	// EnvironmentVariables maps a build type to the variables injected for that build.
	EnvironmentVariables map[string]map[string]string `json:"environmentVariables,omitempty" yaml:"environmentVariables,omitempty"`

	// OtherImages are the dependents of this service. The tree must be acyclic.
	OtherImages []ServiceSpec `json:"otherImages,omitempty" yaml:"otherImages,omitempty"`

	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// ServiceName overrides the derived Service name.
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
}

// Default returns a ServiceSpec populated with the descriptor defaults.
func Default() ServiceSpec {
	return ServiceSpec{
		ContainerPort:          defaults.ContainerPort,
		ServicePort:            defaults.ServicePort,
		Replicas:               defaults.Replicas,
		PubliclyAccessible:     defaults.PubliclyAccessible,
		TerminationGracePeriod: defaults.TerminationGracePeriod,
		ShouldHost:             defaults.ShouldHost,
	}
}

// UnmarshalJSON decodes data over a defaulted spec so absent fields keep their defaults.
func (s *ServiceSpec) UnmarshalJSON(data []byte) error {
	type plain ServiceSpec
	p := plain(Default())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = ServiceSpec(p)
	return nil
}

// UnmarshalYAML decodes value over a defaulted spec so absent fields keep their defaults.
func (s *ServiceSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain ServiceSpec
	p := plain(Default())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = ServiceSpec(p)
	return nil
}

// Stateful reports whether the service needs a StatefulSet: more than one
// replica together with at least one volume.
func (s *ServiceSpec) Stateful() bool {
	return s.Replicas > 1 && len(s.Volumes) > 0
}

// EnvironmentFor returns the variables tagged with buildType, or nil.
func (s *ServiceSpec) EnvironmentFor(buildType string) map[string]string {
	if s.EnvironmentVariables == nil {
		return nil
	}
	return s.EnvironmentVariables[buildType]
}

// HasRetainedVolume reports whether any volume asks to be retained.
func (s *ServiceSpec) HasRetainedVolume() bool {
	for _, v := range s.Volumes {
		if v.RetainVolume {
			return true
		}
	}
	return false
}
