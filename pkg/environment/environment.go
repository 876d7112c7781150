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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/NVIDIA/autocd/pkg/defaults"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/registry"
)

// SelectorVariable names the variable choosing the environment variant.
const SelectorVariable = "AUTOCD_ENV"

// Variables shared by all variants.
const (
	VarRegistry          = "CI_REGISTRY"
	VarRegistryUser      = "CI_REGISTRY_USER"
	VarRegistryEmail     = "CI_REGISTRY_EMAIL"
	VarRegistryPassword  = "CI_REGISTRY_PASSWORD"
	VarStorageClass      = "K8S_STORAGE_CLASS"
	VarKubeToken         = "K8S_REGISTRY_USER_TOKEN"
	VarKubeUser          = "K8S_REGISTRY_USER_NAME"
	VarKubeURL           = "KUBE_URL"
	VarKubeCAFile        = "KUBE_CA_PEM_FILE"
	VarDomainBase        = "AUTOCD_DOMAIN_BASE"
	VarBuildType         = "BUILD_TYPE"
	VarKubeConfig        = "KUBE_CONFIG"
	VarSecretNeeded      = "K8S_SECRET_NEEDED"
	VarGitHubRepository  = "GITHUB_REPOSITORY"
	VarGitLabProject     = "CI_PROJECT_NAME"
	VarGitLabNamespace   = "CI_PROJECT_NAMESPACE"
	VarLocalProject      = "AUTOCD_PROJECT_NAME"
	VarLocalNamespace    = "AUTOCD_PROJECT_NAMESPACE"
	defaultLocalProject  = "local"
	defaultLocalNSPrefix = "local"
)

// Environment is the capability set a deployment pass reads its settings from.
type Environment interface {
	// Name is the selector the environment was created from.
	Name() string

	// Registry returns the registry account. An empty server means a local run.
	Registry() registry.Credentials

	ProjectName() string
	ProjectNamespace() string

	// KubeURL and KubeToken address the cluster when no kubeconfig is supplied.
	KubeURL() string
	KubeToken() string

	// KubeCAFile is the path of the cluster CA bundle, if any.
	KubeCAFile() string

	// KubeConfig returns a complete kubeconfig document, or nil.
	KubeConfig() []byte

	// NeedsSecret reports whether workloads need an image pull secret.
	NeedsSecret() bool

	// StorageClass is the class requested by volume claims, empty for the cluster default.
	StorageClass() string

	// BuildType selects subdomains and environment variables; "dev" when unset.
	BuildType() string

	// DomainBase is appended to synthesized subdomains.
	DomainBase() string
}

// LookupFunc reads a variable, reporting whether it was set. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

type constructor func(LookupFunc) Environment

// variants is the registration table of supported environments.
var variants = map[string]constructor{
	"GITHUB": newGitHub,
	"GITLAB": newGitLab,
	"LOCAL":  newLocal,
}

// Names lists the supported selectors in sorted order.
func Names() []string {
	names := make([]string, 0, len(variants))
	for n := range variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New returns the environment registered under name, reading variables through lookup.
func New(name string, lookup LookupFunc) (Environment, error) {
	if name == "" {
		return nil, cderrors.New(cderrors.ErrCodeInvalidConfig,
			fmt.Sprintf("%s is not set, expected one of %s", SelectorVariable, strings.Join(Names(), ", ")))
	}
	ctor, ok := variants[strings.ToUpper(name)]
	if !ok {
		return nil, cderrors.NewWithContext(cderrors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown environment %q", name),
			map[string]any{"supported": Names()})
	}
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return ctor(lookup), nil
}

// IsLocal reports whether env has no registry, which switches naming to the
// fixed local namespace.
func IsLocal(env Environment) bool {
	return !env.Registry().Configured()
}

// vars is the variable access shared by every variant.
type vars struct {
	name   string
	lookup LookupFunc
}

func (v vars) get(key string) string {
	val, _ := v.lookup(key)
	return strings.TrimSpace(val)
}

func (v vars) Name() string { return v.name }

func (v vars) Registry() registry.Credentials {
	return registry.Credentials{
		Server:   v.get(VarRegistry),
		Username: v.get(VarRegistryUser),
		Password: v.get(VarRegistryPassword),
		Email:    v.get(VarRegistryEmail),
	}
}

func (v vars) KubeURL() string      { return v.get(VarKubeURL) }
func (v vars) KubeToken() string    { return v.get(VarKubeToken) }
func (v vars) KubeCAFile() string   { return v.get(VarKubeCAFile) }
func (v vars) StorageClass() string { return v.get(VarStorageClass) }
func (v vars) DomainBase() string   { return v.get(VarDomainBase) }
func (v vars) KubeConfig() []byte   { return nil }

func (v vars) BuildType() string {
	if bt := v.get(VarBuildType); bt != "" {
		return bt
	}
	return defaults.BuildType
}

func (v vars) boolean(key string) bool {
	b, err := strconv.ParseBool(v.get(key))
	return err == nil && b
}
