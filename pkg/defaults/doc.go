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

// Package defaults holds the tunables of a deployment pass.
//
// timeouts.go bounds every external call: single cluster API requests,
// the whole prune and reconcile phase, docker build and push, descriptor
// fetches over HTTP and OCI. The create retry window is sized here as
// well, so that a create racing a foreground delete outlasts the pod
// termination grace period.
//
// descriptor.go holds the values applied to absent descriptor fields and
// the file names read and written by default.
package defaults
