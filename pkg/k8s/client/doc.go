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

// Package client builds the Kubernetes clientset a pass talks to.
//
// Options pick the connection, first match wins:
//
//  1. KubeconfigData, a kubeconfig document handed over by CI
//  2. Host with BearerToken, a service account token, verified against CAFile
//     when set
//  3. Kubeconfig, a path; when empty KUBECONFIG, ~/.kube/config and the
//     in-cluster service account are tried in turn
//
// Pipeline variables map onto Options:
//
//	clientset, _, err := client.NewClient(client.Options{
//	    KubeconfigData: env.KubeConfig(),
//	    Host:           env.KubeURL(),
//	    BearerToken:    env.KubeToken(),
//	    CAFile:         env.KubeCAFile(),
//	})
//
// Interface is kubernetes.Interface, so tests pass the client-go fake.
package client
