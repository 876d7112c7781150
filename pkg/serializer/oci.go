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
	"log/slog"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/oci"
)

// OCIWriter pushes documents as descriptor artifacts. Always JSON.
type OCIWriter struct {
	target oras.Target
	tag    string
	now    func() time.Time
}

// NewOCIWriter creates a writer tagging artifacts in target with tag.
func NewOCIWriter(target oras.Target, tag string) *OCIWriter {
	return &OCIWriter{target: target, tag: tag, now: time.Now}
}

// Serialize pushes v to the target.
func (w *OCIWriter) Serialize(ctx context.Context, v any) error {
	pushCtx, cancel := context.WithTimeout(ctx, defaults.ArtifactPushTimeout)
	defer cancel()

	content, err := Encode(FormatJSON, v)
	if err != nil {
		return err
	}

	desc, err := oci.Push(pushCtx, w.target, w.tag, content, map[string]string{
		ociv1.AnnotationCreated: w.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	slog.Info("descriptor artifact pushed", "tag", w.tag, "digest", desc.Digest.String())
	return nil
}

// Close is a no-op.
func (w *OCIWriter) Close() error {
	return nil
}
