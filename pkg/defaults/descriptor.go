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

package defaults

// Descriptor defaults applied when a field is absent.
const (
	ContainerPort          int32 = 8080
	ServicePort            int32 = 80
	Replicas               int32 = 1
	TerminationGracePeriod int64 = 60
	PubliclyAccessible           = true
	ShouldHost                   = true

	// SPAContainerPort replaces ContainerPort for single-page app images served by nginx.
	SPAContainerPort int32 = 80

	// BuildType is used when the environment does not name one.
	BuildType = "dev"
)

// Descriptor file names used when none is given.
const (
	DescriptorFile         = "autocd.json"
	PreviousDescriptorFile = "oldautocd.json"
)

// Cluster object conventions.
const (
	// RegistrySecretName is the image pull secret created in each namespace.
	RegistrySecretName = "autocd-registry"

	// InitImage runs the folder permission init containers.
	InitImage = "busybox"

	// InitMountPath is where each volume is mounted inside its init container.
	InitMountPath = "/data"

	// ContainerPortName names the workload port targeted by the Service.
	ContainerPortName = "http"

	// ServicePortName names the Service port targeted by the Ingress.
	ServicePortName = "web"
)
