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

// Package resources turns a service descriptor into the Kubernetes objects
// that run it.
//
// Build is pure: it never talks to the cluster and returns identical objects
// for identical input, which lets the reconciler treat delete-then-create as
// an upsert. The result holds:
//
//   - Namespace, plus an image pull Secret when the environment needs one
//   - a Deployment with named PersistentVolumeClaims, or a StatefulSet with
//     claim templates when the service has more than one replica and volumes
//   - a Service selecting the workload pods
//   - an Ingress for the resolved subdomain when the service is public
//
// Volumes that declare a folder permission get a busybox init container that
// runs chmod -R on the mounted volume before the service starts.
package resources
