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

// Package environment resolves the CI specific settings of a deployment pass:
// registry credentials, cluster endpoint, project identity, build type and
// domain base.
//
// Variants are selected by name through a fixed table:
//
//	GITHUB  GitHub Actions (GITHUB_REPOSITORY, KUBE_CONFIG, K8S_SECRET_NEEDED)
//	GITLAB  GitLab CI (CI_PROJECT_NAME, CI_PROJECT_NAMESPACE, always needs a pull secret)
//	LOCAL   a developer machine using the current kubeconfig and no registry
//
// Usage:
//
//	env, err := environment.New(os.Getenv(environment.SelectorVariable), os.LookupEnv)
//	if err != nil {
//	    return err
//	}
//	slog.Info("environment", "name", env.Name(), "buildType", env.BuildType())
package environment
