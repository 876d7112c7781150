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

package deployer

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/descriptor"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/image"
)

// setupImage fills in the root image, building it when needed.
func (d *Deployer) setupImage(ctx context.Context, spec *descriptor.ServiceSpec, opts Options) error {
	if spec.RegistryImagePath != "" {
		slog.Info("descriptor names its image, skipping build", "image", spec.RegistryImagePath)
		return nil
	}

	tag := d.tag()
	if !spec.ShouldHost || opts.SkipBuild {
		slog.Info("using computed image tag without building", "image", tag, "hosted", spec.ShouldHost)
		spec.RegistryImagePath = tag
		if spec.ShouldHost {
			adjustPort(spec, detectKind(opts.WorkDir))
		}
		return nil
	}

	if d.images == nil {
		return cderrors.New(cderrors.ErrCodeInvalidRequest, "no image builder configured and the descriptor names no image")
	}
	res, err := d.images.Build(ctx, opts.WorkDir, tag, d.env.BuildType())
	if err != nil {
		return err
	}
	spec.RegistryImagePath = res.Tag
	adjustPort(spec, res.Kind)
	return nil
}

// computeTag sets the root image to the computed tag when it has none and
// reports whether it did.
func (d *Deployer) computeTag(spec *descriptor.ServiceSpec) bool {
	if spec.RegistryImagePath != "" {
		return false
	}
	spec.RegistryImagePath = d.tag()
	return true
}

func (d *Deployer) tag() string {
	return image.Tag(d.env.Registry(), d.env.ProjectNamespace(), d.env.ProjectName(), d.env.BuildType())
}

// adjustPort moves single-page apps to the nginx port unless the
// descriptor chose a port other than the default.
func adjustPort(spec *descriptor.ServiceSpec, kind image.Kind) {
	if port := kind.ContainerPort(); port != 0 && spec.ContainerPort == defaults.ContainerPort {
		slog.Debug("image serves a fixed port", "kind", kind, "port", port)
		spec.ContainerPort = port
	}
}

func detectKind(dir string) image.Kind {
	kind, err := image.Detect(dir)
	if err != nil {
		slog.Debug("project type not detected", "dir", dir, "error", err)
		return ""
	}
	return kind
}
