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
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/registry"
)

const (
	// ArtifactType identifies descriptor snapshot artifacts.
	ArtifactType = "application/vnd.nvidia.autocd.descriptor"

	// MediaTypeDescriptor is the media type of the descriptor layer.
	MediaTypeDescriptor = "application/vnd.nvidia.autocd.descriptor.v1+json"
)

// RepositoryOptions configures the connection to a remote repository.
type RepositoryOptions struct {
	// Credentials are used when their server matches the reference registry.
	Credentials registry.Credentials
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// NewRepository connects to the repository named by ref.
func NewRepository(ref *Reference, opts RepositoryOptions) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref.Registry + "/" + ref.Repository)
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = authClient(ref.Registry, opts)
	return repo, nil
}

func authClient(host string, opts RepositoryOptions) *auth.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.PlainHTTP && opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}

	creds := opts.Credentials
	if creds.Configured() && sameHost(creds.Server, host) {
		client.Credential = auth.StaticCredential(host, auth.Credential{
			Username: creds.Username,
			Password: creds.Password,
		})
		return client
	}

	// Missing docker config is not an error; anonymous access is attempted.
	if store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{}); err == nil {
		client.Credential = credentials.Credential(store)
	}
	return client
}

func sameHost(server, host string) bool {
	server = strings.TrimPrefix(strings.TrimPrefix(server, "https://"), "http://")
	return strings.TrimSuffix(server, "/") == host
}

// Push stores data as a descriptor artifact in dst under tag.
func Push(ctx context.Context, dst oras.Target, tag string, data []byte, annotations map[string]string) (ociv1.Descriptor, error) {
	if tag == "" {
		return ociv1.Descriptor{}, cderrors.New(cderrors.ErrCodeInvalidRequest, "tag is required to push a descriptor")
	}

	store := memory.New()
	layer, err := oras.PushBytes(ctx, store, MediaTypeDescriptor, data)
	if err != nil {
		return ociv1.Descriptor{}, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to stage descriptor layer", err)
	}

	manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layer},
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return ociv1.Descriptor{}, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to pack manifest", err)
	}
	if err := store.Tag(ctx, manifest, tag); err != nil {
		return ociv1.Descriptor{}, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to tag manifest", err)
	}

	desc, err := oras.Copy(ctx, store, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return ociv1.Descriptor{}, cderrors.Wrap(cderrors.ErrCodeUnavailable, "failed to push descriptor artifact", err)
	}
	return desc, nil
}

// Pull returns the descriptor stored in src under tag.
func Pull(ctx context.Context, src oras.ReadOnlyTarget, tag string) ([]byte, error) {
	desc, err := src.Resolve(ctx, tag)
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeNotFound, fmt.Sprintf("descriptor artifact %q not found", tag), err)
	}

	raw, err := content.FetchAll(ctx, src, desc)
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeUnavailable, "failed to fetch manifest", err)
	}

	var manifest ociv1.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInvalidRequest, "artifact manifest is not an OCI image manifest", err)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, cderrors.NewWithContext(cderrors.ErrCodeInvalidRequest, "artifact is not a descriptor snapshot",
			map[string]any{"artifactType": manifest.ArtifactType})
	}

	for _, layer := range manifest.Layers {
		if layer.MediaType != MediaTypeDescriptor {
			continue
		}
		data, err := content.FetchAll(ctx, src, layer)
		if err != nil {
			return nil, cderrors.Wrap(cderrors.ErrCodeUnavailable, "failed to fetch descriptor layer", err)
		}
		return data, nil
	}
	return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, "artifact has no descriptor layer")
}
