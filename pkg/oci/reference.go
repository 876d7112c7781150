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

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

// URIScheme is the URI scheme of OCI locations (e.g. "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// DefaultTag is used when the URI names no tag.
const DefaultTag = "latest"

// Reference is a parsed OCI location.
type Reference struct {
	// Registry is the registry host, with port when given (e.g. "localhost:5000").
	Registry string
	// Repository is the repository path (e.g. "acme/shop-autocd").
	Repository string
	// Tag is the artifact tag.
	Tag string
}

// IsURI reports whether s uses the oci:// scheme.
func IsURI(s string) bool {
	return strings.HasPrefix(s, URIScheme)
}

// ParseReference parses an oci://registry/repository[:tag] URI.
func ParseReference(uri string) (*Reference, error) {
	if !IsURI(uri) {
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest,
			fmt.Sprintf("OCI reference must start with %s: %q", URIScheme, uri))
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(uri, URIScheme))
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, "OCI reference must use a tag, not a digest")
	}

	tag := DefaultTag
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	return &Reference{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
		Tag:        tag,
	}, nil
}

// String returns the oci:// URI of r.
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns r without scheme, registry/repository:tag.
func (r *Reference) ImageReference() string {
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}
