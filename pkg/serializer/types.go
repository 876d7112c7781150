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
	"path"
	"strings"
)

// Format represents the document format.
type Format string

const (
	// FormatJSON encodes documents as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML encodes documents as YAML.
	FormatYAML Format = "yaml"
)

// ConfigMapURIScheme is the scheme of ConfigMap locations (cm://namespace/name).
const ConfigMapURIScheme = "cm://"

// IsUnknown reports whether f is not a supported format.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML:
		return false
	default:
		return true
	}
}

// SupportedFormats returns the supported formats.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML)}
}

// FormatFromPath determines the format from the extension of p.
// Query strings and fragments of URLs are ignored. Unknown extensions
// default to JSON.
func FormatFromPath(p string) Format {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case "":
		return FormatJSON
	default:
		slog.Warn("unknown file extension, defaulting to JSON", "path", p)
		return FormatJSON
	}
}

// Serializer writes a value to a destination.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is implemented by serializers holding resources.
type Closer interface {
	Close() error
}
