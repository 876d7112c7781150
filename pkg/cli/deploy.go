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
	"os"

	"github.com/urfave/cli/v3"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/deployer"
	"github.com/NVIDIA/autocd/pkg/environment"
	"github.com/NVIDIA/autocd/pkg/image"
	k8sclient "github.com/NVIDIA/autocd/pkg/k8s/client"
	"github.com/NVIDIA/autocd/pkg/oci"
	"github.com/NVIDIA/autocd/pkg/reconciler"
	"github.com/NVIDIA/autocd/pkg/serializer"
)

func deployCmd() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Build the project image and apply the service tree",
		Description: `Apply the service described by the descriptor, together with its
dependents, to the cluster:
  1. Load the descriptor (defaults when it does not exist)
  2. Build and push the project image unless the descriptor names one
  3. Remove dependents listed in the previous descriptor but not in this one
  4. Create or replace every object, dependents first
  5. Record the applied descriptor for the next run

A service with shouldHost set to false is removed instead.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagPrevious,
				Aliases: []string{"p"},
				Usage:   "Previous descriptor location used to prune dropped dependents",
				Value:   defaults.PreviousDescriptorFile,
				Sources: cli.EnvVars("AUTOCD_PREVIOUS"),
			},
			&cli.StringFlag{
				Name:    flagRecord,
				Usage:   "Where to record the applied descriptor: file, cm://namespace/name or oci://registry/repo:tag",
				Sources: cli.EnvVars("AUTOCD_RECORD"),
			},
			&cli.BoolFlag{
				Name:    flagSkipBuild,
				Usage:   "Use the computed image tag without building",
				Sources: cli.EnvVars("AUTOCD_SKIP_BUILD"),
			},
			&cli.BoolFlag{
				Name:    flagPreflight,
				Usage:   "Verify cluster permissions before building or applying anything",
				Sources: cli.EnvVars("AUTOCD_PREFLIGHT"),
			},
			&cli.DurationFlag{
				Name:    flagRetryDelay,
				Usage:   "Wait between retries of objects still being deleted",
				Value:   defaults.ConflictRetryDelay,
				Sources: cli.EnvVars("AUTOCD_CONFLICT_RETRY_DELAY"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			client, err := newKubeClient(cmd, env)
			if err != nil {
				return err
			}

			var images deployer.ImageBuilder
			if !cmd.Bool(flagSkipBuild) {
				api, err := image.NewDockerClient()
				if err != nil {
					return err
				}
				defer api.Close()
				images = image.NewBuilder(api, env.Registry(), image.WithOutput(os.Stderr))
			}

			d := deployer.New(env, client, images,
				deployer.WithRunID(runIDFrom(ctx)),
				deployer.WithSources(sources(cmd, client)),
				deployer.WithEngineOptions(reconciler.WithRetryDelay(cmd.Duration(flagRetryDelay))))

			_, err = d.Deploy(ctx, deployer.Options{
				ConfigPath:   cmd.String(flagConfig),
				PreviousPath: cmd.String(flagPrevious),
				RecordPath:   cmd.String(flagRecord),
				WorkDir:      cmd.String(flagWorkDir),
				SkipBuild:    cmd.Bool(flagSkipBuild),
				Preflight:    cmd.Bool(flagPreflight),
			})
			return err
		},
	}
}

func removeCmd() *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove every service of the descriptor from the cluster",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			client, err := newKubeClient(cmd, env)
			if err != nil {
				return err
			}

			d := deployer.New(env, client, nil,
				deployer.WithRunID(runIDFrom(ctx)),
				deployer.WithSources(sources(cmd, client)))
			return d.Remove(ctx, deployer.Options{
				ConfigPath: cmd.String(flagConfig),
				WorkDir:    cmd.String(flagWorkDir),
			})
		},
	}
}

func newEnvironment(cmd *cli.Command) (environment.Environment, error) {
	return environment.New(cmd.String(flagEnv), os.LookupEnv)
}

func newKubeClient(cmd *cli.Command, env environment.Environment) (kubernetes.Interface, error) {
	client, _, err := k8sclient.NewClient(k8sclient.Options{
		Kubeconfig:     cmd.String(flagKubeconfig),
		KubeconfigData: env.KubeConfig(),
		Host:           env.KubeURL(),
		BearerToken:    env.KubeToken(),
		CAFile:         env.KubeCAFile(),
	})
	return client, err
}

func sources(cmd *cli.Command, client kubernetes.Interface) serializer.Sources {
	return serializer.Sources{
		Client: client,
		OCI: oci.RepositoryOptions{
			PlainHTTP:   cmd.Bool(flagPlainHTTP),
			InsecureTLS: cmd.Bool(flagInsecureTLS),
		},
	}
}
