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

// Package logging configures the process-wide slog logger.
//
// Every record carries the module name and build version so logs from
// concurrent pipelines can be told apart. A pass additionally attaches a
// run ID (see the cli package).
//
// Levels are read from the --log-level flag or LOG_LEVEL and accept
// debug, info, warn (or warning) and error, case-insensitively. Unknown
// values fall back to info. Debug records include the source location.
//
// CI systems that parse logs should keep the JSON handler:
//
//	logging.SetDefaultStructuredLoggerWithLevel("autocd", version, "info")
//
// A human reading a terminal may prefer text:
//
//	autocd --log-text deploy
//
// Output goes to stderr so rendered manifests on stdout stay clean:
//
//	{"time":"...","level":"INFO","msg":"created","module":"autocd","version":"v1.0.0","kind":"Deployment","name":"4be1c0ffee2b9a1d03e7"}
package logging
