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

// Package cli implements the autocd command-line interface.
//
// # Commands
//
// deploy - Build the project image and apply the service tree (default):
//
//	autocd deploy [--config autocd.json] [--previous oldautocd.json] [--record cm://ns/name]
//
// remove - Tear down every service of the descriptor:
//
//	autocd remove [--config autocd.json]
//
// render - Print the desired objects as YAML without touching the cluster:
//
//	autocd render [--config autocd.json] [--output objects.yaml]
//
// # Environment Variables
//
//	AUTOCD_ENV                   Environment variant: GITHUB, GITLAB or LOCAL
//	AUTOCD_CONFIG                Descriptor location
//	AUTOCD_PREVIOUS              Previous descriptor location
//	AUTOCD_RECORD                Where the applied descriptor is recorded
//	AUTOCD_WORKDIR               Project directory the image is built from
//	AUTOCD_SKIP_BUILD            Use the computed image tag without building
//	AUTOCD_CONFLICT_RETRY_DELAY  Wait between retries of objects still being deleted
//	KUBECONFIG                   Kubeconfig path
//	LOG_LEVEL                    Logging verbosity (debug, info, warn, error)
//
// Descriptor locations accept file paths, HTTP(S) URLs, ConfigMap URIs
// (cm://namespace/name) and OCI artifacts (oci://registry/repository:tag).
//
// # Exit Codes
//
//	0  Success
//	1  Deployment failed
//	2  Interrupted or timed out
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/autocd/pkg/cli.version=1.0.0'"
package cli
