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

package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/environment"
)

const (
	flagEnv         = "env"
	flagConfig      = "config"
	flagPrevious    = "previous"
	flagRecord      = "record"
	flagWorkDir     = "workdir"
	flagSkipBuild   = "skip-build"
	flagPreflight   = "preflight"
	flagRetryDelay  = "conflict-retry-delay"
	flagKubeconfig  = "kubeconfig"
	flagLogLevel    = "log-level"
	flagLogText     = "log-text"
	flagOutput      = "output"
	flagPlainHTTP   = "plain-http"
	flagInsecureTLS = "insecure-tls"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagEnv,
			Aliases: []string{"e"},
			Usage: fmt.Sprintf("Environment variant (supported values: %s)",
				strings.Join(environment.Names(), ", ")),
			Sources: cli.EnvVars(environment.SelectorVariable),
		},
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Descriptor location: file, http(s)://, cm://namespace/name or oci://registry/repo:tag",
			Value:   defaults.DescriptorFile,
			Sources: cli.EnvVars("AUTOCD_CONFIG"),
		},
		&cli.StringFlag{
			Name:    flagWorkDir,
			Usage:   "Project directory the image is built from",
			Value:   ".",
			Sources: cli.EnvVars("AUTOCD_WORKDIR"),
		},
		&cli.StringFlag{
			Name:    flagKubeconfig,
			Usage:   "Path to kubeconfig file (default discovery when unset)",
			Sources: cli.EnvVars("KUBECONFIG"),
		},
		&cli.BoolFlag{
			Name:    flagPlainHTTP,
			Usage:   "Use plain HTTP for oci:// descriptor locations",
			Sources: cli.EnvVars("AUTOCD_OCI_PLAIN_HTTP"),
		},
		&cli.BoolFlag{
			Name:    flagInsecureTLS,
			Usage:   "Skip TLS verification for oci:// descriptor locations",
			Sources: cli.EnvVars("AUTOCD_OCI_INSECURE_TLS"),
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:  flagLogText,
			Usage: "Write human-readable logs instead of JSON",
		},
	}
}
