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

// Package serializer reads and writes service descriptors.
//
// Descriptors are JSON or YAML documents. The format follows the extension
// of the location, with JSON as the fallback. A location is one of:
//
//   - a local path: autocd.json, ./deploy/autocd.yaml
//   - an HTTP(S) URL: https://config.example.com/shop/autocd.json
//   - a ConfigMap URI: cm://namespace/name
//   - an OCI artifact: oci://registry.example.com/acme/shop-autocd:dev
//
// Reading:
//
//	spec, err := serializer.FromFile[descriptor.ServiceSpec](ctx, "autocd.json", serializer.Sources{})
//
// A location that does not exist yields an error with code NOT_FOUND so
// callers can fall back to defaults.
//
// Writing:
//
//	w, err := serializer.NewWriterFor("cm://shop/autocd-record", serializer.Sources{Client: client})
//	defer w.Close()
//	err = w.Serialize(ctx, spec)
//
// ConfigMaps are written with server-side apply under the "autocd" field
// manager. The document is stored under the data key "descriptor.<format>"
// next to "format" and "timestamp" keys.
package serializer
