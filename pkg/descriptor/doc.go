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

// Package descriptor defines the service deployment descriptor read from
// autocd.json (or YAML) and the rules every descriptor must satisfy.
//
// A ServiceSpec describes one containerized service and, through
// OtherImages, the tree of services it depends on. Absent fields receive
// the defaults from pkg/defaults when a descriptor is decoded:
//
//	{
//	    "containerPort": 3000,
//	    "volumes": [{"volumeMount": "/var/lib/data", "volumeSize": "1Gi", "retainVolume": true}],
//	    "otherImages": [{"registryImagePath": "redis:7", "containerPort": 6379, "servicePort": 6379}]
//	}
//
// Validate rejects descriptors that cannot be deployed safely and is always
// called before the cluster is touched.
package descriptor
