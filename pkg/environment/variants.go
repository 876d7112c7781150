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

package environment

import (
	"os"
	"path/filepath"
	"strings"
)

// gitHub reads GitHub Actions settings. The repository slug supplies both
// project name and namespace.
type gitHub struct {
	vars
}

func newGitHub(lookup LookupFunc) Environment {
	return gitHub{vars{name: "GITHUB", lookup: lookup}}
}

func (g gitHub) repository() string {
	repo := g.get(VarGitHubRepository)
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		return repo[i+1:]
	}
	return repo
}

func (g gitHub) ProjectName() string      { return g.repository() }
func (g gitHub) ProjectNamespace() string { return g.repository() }
func (g gitHub) NeedsSecret() bool        { return g.boolean(VarSecretNeeded) }

func (g gitHub) KubeConfig() []byte {
	if cfg := g.get(VarKubeConfig); cfg != "" {
		return []byte(cfg)
	}
	return nil
}

// gitLab reads GitLab CI settings.
type gitLab struct {
	vars
}

func newGitLab(lookup LookupFunc) Environment {
	return gitLab{vars{name: "GITLAB", lookup: lookup}}
}

func (g gitLab) ProjectName() string      { return g.get(VarGitLabProject) }
func (g gitLab) ProjectNamespace() string { return g.get(VarGitLabNamespace) }
func (g gitLab) NeedsSecret() bool        { return true }

// local deploys from a workstation with the ambient kubeconfig.
type local struct {
	vars
}

func newLocal(lookup LookupFunc) Environment {
	return local{vars{name: "LOCAL", lookup: lookup}}
}

func (l local) ProjectName() string {
	if p := l.get(VarLocalProject); p != "" {
		return p
	}
	if wd, err := os.Getwd(); err == nil {
		if base := filepath.Base(wd); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return defaultLocalProject
}

func (l local) ProjectNamespace() string {
	if ns := l.get(VarLocalNamespace); ns != "" {
		return ns
	}
	return defaultLocalNSPrefix
}

func (l local) NeedsSecret() bool { return l.boolean(VarSecretNeeded) }

func (l local) KubeConfig() []byte {
	if cfg := l.get(VarKubeConfig); cfg != "" {
		return []byte(cfg)
	}
	return nil
}
