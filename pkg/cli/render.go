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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"sigs.k8s.io/yaml"

	"github.com/NVIDIA/autocd/pkg/deployer"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/resources"
)

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Print the desired objects of the service tree as YAML",
		Description: `Render every object a deploy would create, dependents first, without
building the image or contacting the cluster. The ingress host collision
check needs the cluster and is skipped.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagOutput,
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}

			d := deployer.New(env, nil, nil,
				deployer.WithRunID(runIDFrom(ctx)),
				deployer.WithSources(sources(cmd, nil)))
			desired, err := d.Render(ctx, deployer.Options{
				ConfigPath: cmd.String(flagConfig),
				WorkDir:    cmd.String(flagWorkDir),
			})
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			if path := cmd.String(flagOutput); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return cderrors.Wrap(cderrors.ErrCodeInternal, fmt.Sprintf("failed to create %s", path), err)
				}
				defer f.Close()
				out = f
			}
			return writeObjects(out, desired)
		},
	}
}

// writeObjects writes every object as a YAML document.
func writeObjects(w io.Writer, desired []*resources.Desired) error {
	if w == nil {
		w = os.Stdout
	}
	for _, d := range desired {
		for _, obj := range d.Objects() {
			data, err := yaml.Marshal(obj)
			if err != nil {
				return cderrors.Wrap(cderrors.ErrCodeInternal, "failed to render object", err)
			}
			if _, err := fmt.Fprintf(w, "---\n%s", data); err != nil {
				return cderrors.Wrap(cderrors.ErrCodeInternal, "failed to write object", err)
			}
		}
	}
	return nil
}
