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

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	oras "oras.land/oras-go/v2"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/oci"
)

// Sources carries the clients needed to reach non-file locations.
type Sources struct {
	// Client serves cm:// locations.
	Client kubernetes.Interface

	// HTTP serves http(s):// locations. Nil uses a default reader.
	HTTP *HTTPReader

	// OCI configures the connection for oci:// locations.
	OCI oci.RepositoryOptions

	// OCITarget overrides the remote repository resolved for an oci:// location.
	OCITarget func(ref *oci.Reference) (oras.Target, error)
}

func (s Sources) target(ref *oci.Reference) (oras.Target, error) {
	if s.OCITarget != nil {
		return s.OCITarget(ref)
	}
	return oci.NewRepository(ref, s.OCI)
}

func isHTTP(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// ReadBytes returns the raw document at location and its format.
// A location that does not exist yields an error with code NOT_FOUND.
func ReadBytes(ctx context.Context, location string, src Sources) ([]byte, Format, error) {
	switch {
	case strings.HasPrefix(location, ConfigMapURIScheme):
		return readConfigMap(ctx, location, src.Client)

	case oci.IsURI(location):
		ref, err := oci.ParseReference(location)
		if err != nil {
			return nil, "", err
		}
		target, err := src.target(ref)
		if err != nil {
			return nil, "", err
		}
		data, err := oci.Pull(ctx, target, ref.Tag)
		if err != nil {
			return nil, "", err
		}
		return data, FormatJSON, nil

	case isHTTP(location):
		reader := src.HTTP
		if reader == nil {
			reader = NewHTTPReader()
		}
		data, err := reader.ReadWithContext(ctx, location)
		if err != nil {
			return nil, "", err
		}
		return data, FormatFromPath(location), nil

	default:
		data, err := os.ReadFile(location)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, "", cderrors.Wrap(cderrors.ErrCodeNotFound, fmt.Sprintf("%s does not exist", location), err)
			}
			return nil, "", cderrors.Wrap(cderrors.ErrCodeInternal, fmt.Sprintf("failed to read %s", location), err)
		}
		return data, FormatFromPath(location), nil
	}
}

// Decode unmarshals data in format into v.
func Decode(format Format, data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("document is empty")
	}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format for deserialization: %s", format)
	}
	return nil
}

// FromFile reads and decodes the document at location into a new T.
// Undecodable documents yield an error with code INVALID_CONFIG.
func FromFile[T any](ctx context.Context, location string, src Sources) (*T, error) {
	data, format, err := ReadBytes(ctx, location, src)
	if err != nil {
		return nil, err
	}

	slog.Debug("decoding document",
		slog.String("location", location),
		slog.String("format", string(format)),
	)

	var v T
	if err := Decode(format, data, &v); err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInvalidConfig, fmt.Sprintf("failed to deserialize %s", location), err)
	}
	return &v, nil
}

func readConfigMap(ctx context.Context, uri string, client kubernetes.Interface) ([]byte, Format, error) {
	namespace, name, err := parseConfigMapURI(uri)
	if err != nil {
		return nil, "", cderrors.Wrap(cderrors.ErrCodeInvalidRequest, "invalid ConfigMap URI", err)
	}
	if client == nil {
		return nil, "", cderrors.New(cderrors.ErrCodeInvalidRequest, "a kubernetes client is required to read "+uri)
	}

	cm, err := client.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, "", cderrors.Wrap(cderrors.ErrCodeNotFound, fmt.Sprintf("ConfigMap %s/%s not found", namespace, name), err)
		}
		return nil, "", cderrors.Wrap(cderrors.ErrCodeClusterAPI, fmt.Sprintf("failed to get ConfigMap %s/%s", namespace, name), err)
	}

	format := FormatJSON
	if f := Format(cm.Data[formatKey]); !f.IsUnknown() {
		format = f
	}
	if content, ok := cm.Data[dataKey(format)]; ok {
		return []byte(content), format, nil
	}
	for _, f := range SupportedFormats() {
		if content, ok := cm.Data[dataKey(Format(f))]; ok {
			return []byte(content), Format(f), nil
		}
	}
	return nil, "", cderrors.New(cderrors.ErrCodeNotFound,
		fmt.Sprintf("ConfigMap %s/%s holds no descriptor", namespace, name))
}
