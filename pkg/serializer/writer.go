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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/oci"
)

// Writer encodes values to an io.Writer.
// Close must be called to release the file of NewFileWriter.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter creates a Writer on output, os.Stdout when nil.
// Unknown formats default to JSON.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	return &Writer{format: normalize(format), output: output}
}

// NewStdoutWriter creates a Writer on stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriter creates a Writer truncating the file at path.
func NewFileWriter(format Format, path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInternal, fmt.Sprintf("failed to create %s", path), err)
	}
	return &Writer{format: normalize(format), output: file, closer: file}, nil
}

// NewWriterFor returns the serializer for location. An empty location writes
// to stdout as JSON.
func NewWriterFor(location string, src Sources) (Serializer, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return NewStdoutWriter(FormatJSON), nil

	case strings.HasPrefix(location, ConfigMapURIScheme):
		namespace, name, err := parseConfigMapURI(location)
		if err != nil {
			return nil, cderrors.Wrap(cderrors.ErrCodeInvalidRequest, "invalid ConfigMap URI", err)
		}
		if src.Client == nil {
			return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, "a kubernetes client is required to write "+location)
		}
		return NewConfigMapWriter(src.Client, namespace, name, FormatJSON), nil

	case oci.IsURI(location):
		ref, err := oci.ParseReference(location)
		if err != nil {
			return nil, err
		}
		target, err := src.target(ref)
		if err != nil {
			return nil, err
		}
		return NewOCIWriter(target, ref.Tag), nil

	case isHTTP(location):
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, "cannot write to an HTTP location: "+location)

	default:
		return NewFileWriter(FormatFromPath(location), location)
	}
}

// Close releases the underlying file, if any. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// Serialize writes v in the configured format.
func (w *Writer) Serialize(_ context.Context, v any) error {
	content, err := Encode(w.format, v)
	if err != nil {
		return err
	}
	if _, err := w.output.Write(content); err != nil {
		return cderrors.Wrap(cderrors.ErrCodeInternal, "failed to write document", err)
	}
	return nil
}

// Encode marshals v in format. JSON output is indented and newline terminated.
func Encode(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		content, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to serialize to JSON", err)
		}
		return append(content, '\n'), nil
	case FormatYAML:
		var sb strings.Builder
		encoder := yaml.NewEncoder(&sb)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return nil, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to serialize to YAML", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to serialize to YAML", err)
		}
		return []byte(sb.String()), nil
	default:
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, fmt.Sprintf("unsupported format: %s", format))
	}
}

func normalize(format Format) Format {
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		return FormatJSON
	}
	return format
}
