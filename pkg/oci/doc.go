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

// Package oci stores descriptor snapshots as OCI artifacts.
//
// A recorded descriptor is pushed as a single-layer OCI 1.1 artifact so the
// next run can read it back as its previous descriptor:
//
//	ref, err := oci.ParseReference("oci://registry.example.com/acme/shop-autocd:dev")
//	repo, err := oci.NewRepository(ref, oci.RepositoryOptions{Credentials: creds})
//	desc, err := oci.Push(ctx, repo, ref.Tag, data, annotations)
//	data, err := oci.Pull(ctx, repo, ref.Tag)
//
// # Authentication
//
// Registry credentials from the environment are used when they name the
// same registry; otherwise credentials are loaded from the Docker
// configuration (~/.docker/config.json) through the ORAS credentials package.
//
// # Artifact Type
//
// Artifacts carry the artifact type "application/vnd.nvidia.autocd.descriptor"
// and their single layer the media type
// "application/vnd.nvidia.autocd.descriptor.v1+json". They are not runnable
// images.
package oci
