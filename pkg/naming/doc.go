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

// Package naming derives deterministic cluster object names from a service's
// logical identity.
//
// Every name is a truncated SHA-256 hex digest of a composition of the target
// namespace, the project name, the build type and the service's image
// identifier. Because names are pure functions of identity, a delete followed
// by a create behaves like an upsert and no state is kept between runs.
//
//	n := naming.Namer{ProjectName: "shop", ProjectNamespace: "acme/web", BuildType: "dev"}
//	n.Namespace()                      // "acme-web-dev"
//	n.Workload("registry.io/acme/shop") // 20 hex characters
package naming
