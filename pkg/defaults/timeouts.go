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

import "time"

// Cluster API bounds.
const (
	// K8sRequestTimeout caps one create, delete, list or patch request.
	K8sRequestTimeout = 30 * time.Second

	// K8sPassTimeout caps pruning plus reconciling a whole service tree.
	K8sPassTimeout = 15 * time.Minute

	// ConfigMapWriteTimeout caps the server-side apply of a recorded descriptor.
	ConfigMapWriteTimeout = 30 * time.Second
)

// Creates that hit "object is being deleted" wait out the foreground
// delete. 30 attempts 4s apart outlast TerminationGracePeriod.
const (
	ConflictRetryDelay    = 4 * time.Second
	ConflictRetryAttempts = 30
)

// Image and artifact bounds.
const (
	// ImageBuildTimeout caps a docker build of the project directory.
	ImageBuildTimeout = 20 * time.Minute

	// ImagePushTimeout caps the push of a built image.
	ImagePushTimeout = 10 * time.Minute

	// ArtifactPushTimeout caps pushing or pulling a descriptor snapshot.
	ArtifactPushTimeout = 2 * time.Minute
)

// Transport settings for descriptors fetched over http(s).
const (
	HTTPClientTimeout         = 30 * time.Second
	HTTPConnectTimeout        = 5 * time.Second
	HTTPTLSHandshakeTimeout   = 5 * time.Second
	HTTPResponseHeaderTimeout = 10 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPKeepAlive             = 30 * time.Second
)
