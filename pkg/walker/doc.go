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

// Package walker deploys and removes a service together with its dependents.
//
// Dependents are applied depth first, before the service that declares them,
// so a parent never starts before the services it addresses by name. Before
// anything is applied the whole tree is validated and every node gets its
// ingress host and, for dependents, a service name derived from its parent.
//
// Prune compares the dependents of the previous run with the current tree
// and removes only those whose image no longer appears anywhere in it.
package walker
