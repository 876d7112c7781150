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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/autocd/pkg/defaults"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

const (
	// FieldManager owns the fields written by server-side apply.
	FieldManager = "autocd"

	formatKey    = "format"
	timestampKey = "timestamp"
)

func dataKey(format Format) string {
	return "descriptor." + string(format)
}

// ConfigMapWriter writes documents to a ConfigMap.
// The ConfigMap is created when missing and replaced otherwise.
type ConfigMapWriter struct {
	client    kubernetes.Interface
	namespace string
	name      string
	format    Format
	now       func() time.Time
}

// NewConfigMapWriter creates a writer for namespace/name. Unknown formats default to JSON.
func NewConfigMapWriter(client kubernetes.Interface, namespace, name string, format Format) *ConfigMapWriter {
	return &ConfigMapWriter{
		client:    client,
		namespace: namespace,
		name:      name,
		format:    normalize(format),
		now:       time.Now,
	}
}

// Serialize stores v in the ConfigMap under descriptor.<format>, together
// with the format and an RFC 3339 timestamp.
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	content, err := Encode(w.format, v)
	if err != nil {
		return err
	}

	configMap := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":       "autocd",
			"app.kubernetes.io/component":  "descriptor",
			"app.kubernetes.io/managed-by": "autocd",
		}).
		WithData(map[string]string{
			dataKey(w.format): string(content),
			formatKey:         string(w.format),
			timestampKey:      w.now().UTC().Format(time.RFC3339),
		})

	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"format", w.format)

	_, err = w.client.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, configMap, metav1.ApplyOptions{
		FieldManager: FieldManager,
		Force:        true,
	})
	if err != nil {
		return cderrors.Wrap(cderrors.ErrCodeClusterAPI,
			fmt.Sprintf("failed to apply ConfigMap %s/%s", w.namespace, w.name), err)
	}
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}

// parseConfigMapURI splits cm://namespace/name.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	rest, ok := strings.CutPrefix(uri, ConfigMapURIScheme)
	if !ok {
		return "", "", cderrors.NewWithContext(cderrors.ErrCodeInvalidRequest,
			"ConfigMap location must use the "+ConfigMapURIScheme+" scheme", map[string]any{"location": uri})
	}
	namespace, name, _ = strings.Cut(rest, "/")
	namespace, name = strings.TrimSpace(namespace), strings.TrimSpace(name)
	if namespace == "" || name == "" || strings.Contains(name, "/") {
		return "", "", cderrors.NewWithContext(cderrors.ErrCodeInvalidRequest,
			"ConfigMap location must be "+ConfigMapURIScheme+"<namespace>/<name>", map[string]any{"location": uri})
	}
	return namespace, name, nil
}
