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

package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// ResourceLength is the hash length used for cluster object names.
	ResourceLength = 20

	// SubdomainLength is the hash length used to disambiguate synthesized subdomains.
	SubdomainLength = 5

	// maxLabelLength is the DNS-1123 label limit.
	maxLabelLength = 63

	localNamespace = "local-default"
	localName      = "local-default-name"
	localSubdomain = "local-test"
	servicePrefix  = "service-"
)

var lower = cases.Lower(language.Und)

// Hash returns the lowercase hex SHA-256 digest of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Name hashes the concatenation of parts and truncates the digest to length.
func Name(length int, parts ...string) string {
	h := Hash(strings.Join(parts, ""))
	if length <= 0 || length > len(h) {
		return h
	}
	return h[:length]
}

// Namer derives every identity string of one deployment pass.
// Local is set when no registry is configured and switches to the fixed
// local namespace and name.
type Namer struct {
	ProjectName      string
	ProjectNamespace string
	BuildType        string
	Local            bool
}

// Namespace returns the target namespace for the project and build type.
func (n Namer) Namespace() string {
	base := localNamespace
	if !n.Local {
		base = n.ProjectNamespace
	}
	return Sanitize(base + "-" + n.BuildType)
}

// Name returns the human readable project name used in labels and container names.
func (n Namer) Name() string {
	if n.Local {
		return localName
	}
	return n.ProjectName + "-" + n.BuildType
}

// Workload names the Deployment or StatefulSet of the service with the given identifier.
func (n Namer) Workload(identifier string) string {
	return Name(ResourceLength, n.Namespace(), identifier, n.ProjectName)
}

// AppLabel is the k8s-app selector value shared by the workload pods and the Service.
func (n Namer) AppLabel(identifier string) string {
	return Name(ResourceLength, n.Namespace(), "-", n.Name(), "-", Hash(identifier)) + "-" + n.BuildType
}

// Service returns override when set, otherwise the derived root service name.
func (n Namer) Service(override string) string {
	if override != "" {
		return override
	}
	return servicePrefix + Name(ResourceLength, n.Namespace(), "-", n.Name(), "-service")
}

// Ingress names the ingress of the service with the given identifier.
func (n Namer) Ingress(identifier string) string {
	return Name(ResourceLength, n.Namespace(), "-", n.Name(), "-ingress", identifier)
}

// Claim names the persistent volume claim of the volume at index.
func (n Namer) Claim(identifier string, index int) string {
	return Name(ResourceLength, n.Namespace(), "-", n.Name(), "-", identifier, "-", strconv.Itoa(index), "-claim")
}

// DependentService names a dependent of the service identified by parent.
// The child identifier keeps siblings of one parent apart. Pruning rebuilds
// the names of the previous run's dependents with this same formula, so it
// must stay stable across releases.
func (n Namer) DependentService(parent, child string) string {
	return servicePrefix + Name(ResourceLength, n.ProjectName, parent, child)
}

// Subdomain synthesizes a host for a service without a configured subdomain.
func (n Namer) Subdomain(identifier, domainBase string) string {
	if n.Local {
		return localSubdomain + domainBase
	}
	host := n.ProjectName + "-" +
		strings.ReplaceAll(n.ProjectNamespace, "/", "--") + "-" +
		n.BuildType + "-" +
		Name(SubdomainLength, identifier) +
		domainBase
	return lower.String(host)
}

// ServiceLabel turns a service name or image path into a valid label value.
func ServiceLabel(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ":", "")
	return trimLabel(strings.Map(labelRune, s))
}

// Sanitize converts s into a DNS-1123 label: lowercase alphanumerics and '-',
// starting and ending with an alphanumeric, at most 63 characters.
func Sanitize(s string) string {
	s = lower.String(strings.ReplaceAll(s, "/", "-"))
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, s)
	return trimLabel(s)
}

func labelRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '-', r == '_', r == '.':
		return r
	default:
		return '-'
	}
}

func trimLabel(s string) string {
	s = strings.Trim(s, "-_.")
	if len(s) > maxLabelLength {
		s = strings.TrimRight(s[:maxLabelLength], "-_.")
	}
	return s
}
