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

package walker

import (
	"context"
	"log/slog"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/NVIDIA/autocd/pkg/descriptor"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/reconciler"
	"github.com/NVIDIA/autocd/pkg/resources"
)

// Applier applies or removes a single service.
type Applier interface {
	Deploy(ctx context.Context, spec *descriptor.ServiceSpec, keep reconciler.Keep) error
	Remove(ctx context.Context, spec *descriptor.ServiceSpec) error
}

// Walker applies service trees through an Applier.
type Walker struct {
	applier    Applier
	builder    *resources.Builder
	domainBase string
}

// New creates a Walker. builder must be the one the applier builds with so
// derived names agree.
func New(applier Applier, builder *resources.Builder, domainBase string) *Walker {
	return &Walker{applier: applier, builder: builder, domainBase: domainBase}
}

// Resolve validates the tree and fills in subdomains and dependent service
// names. It does not touch the cluster.
func (w *Walker) Resolve(root *descriptor.ServiceSpec) error {
	if root == nil {
		return cderrors.New(cderrors.ErrCodeInvalidRequest, "service spec is nil")
	}
	if err := root.Validate(); err != nil {
		return err
	}
	if root.ShouldHost && root.RegistryImagePath == "" {
		return cderrors.New(cderrors.ErrCodeInvalidConfig, "root service has no registry image path")
	}

	w.ResolveSubdomain(root)
	w.resolveDependents(root)
	return nil
}

// ResolveSubdomain sets the host of spec for the current build type, keeping
// an already resolved one and synthesizing one when none is configured.
func (w *Walker) ResolveSubdomain(spec *descriptor.ServiceSpec) {
	n := w.builder.Config().Namer
	if host := spec.Subdomains[n.BuildType]; host != "" {
		spec.Subdomain = host
	}
	if spec.Subdomain == "" {
		spec.Subdomain = n.Subdomain(spec.Identifier(), w.domainBase)
	}
}

func (w *Walker) resolveDependents(parent *descriptor.ServiceSpec) {
	for i := range parent.OtherImages {
		child := &parent.OtherImages[i]
		w.ResolveSubdomain(child)
		w.resolveDependents(child)
		w.nameDependent(parent, child)
	}
}

func (w *Walker) nameDependent(parent, child *descriptor.ServiceSpec) {
	if child.ServiceName == "" {
		child.ServiceName = w.builder.Config().Namer.DependentService(parent.Identifier(), child.Identifier())
	}
}

// Namespace returns the namespace every service of the pass is deployed to.
func (w *Walker) Namespace() string {
	return w.builder.Config().Namer.Namespace()
}

// Retained returns the names of all retained claims in the tree.
func (w *Walker) Retained(root *descriptor.ServiceSpec) sets.Set[string] {
	keep := sets.New[string]()
	_ = root.Walk(func(spec *descriptor.ServiceSpec, _ int) error {
		keep.Insert(w.builder.Identify(spec).Retained...)
		return nil
	})
	return keep
}

// Keep returns the claims every service of the tree must leave alone: the
// retained claims of the whole tree and all claims of its hosted services.
func (w *Walker) Keep(root *descriptor.ServiceSpec) reconciler.Keep {
	claims := sets.New[string]()
	var collect func(spec *descriptor.ServiceSpec)
	collect = func(spec *descriptor.ServiceSpec) {
		if !spec.ShouldHost {
			return
		}
		claims.Insert(w.builder.Identify(spec).Claims...)
		for i := range spec.OtherImages {
			collect(&spec.OtherImages[i])
		}
	}
	collect(root)
	return reconciler.Keep{Retained: w.Retained(root), Claims: claims}
}

// Deploy resolves root and applies it with all dependents. Services with
// shouldHost unset are removed together with their dependents instead.
func (w *Walker) Deploy(ctx context.Context, root *descriptor.ServiceSpec) error {
	if err := w.Resolve(root); err != nil {
		return err
	}
	if !root.ShouldHost {
		slog.Info("service is not hosted, removing it", "image", root.RegistryImagePath)
		return w.remove(ctx, root)
	}

	slog.Info("deploying service tree", "image", root.RegistryImagePath, "services", root.Count())
	return w.deploy(ctx, root, w.Keep(root), 0)
}

func (w *Walker) deploy(ctx context.Context, spec *descriptor.ServiceSpec, keep reconciler.Keep, depth int) error {
	for i := range spec.OtherImages {
		child := &spec.OtherImages[i]
		if !child.ShouldHost {
			slog.Info("dependent is not hosted, removing it", "image", child.RegistryImagePath, "depth", depth+1)
			if err := w.remove(ctx, child); err != nil {
				return err
			}
			continue
		}
		if err := w.deploy(ctx, child, keep, depth+1); err != nil {
			return err
		}
	}

	slog.Debug("applying service", "image", spec.RegistryImagePath, "depth", depth)
	return w.applier.Deploy(ctx, spec, keep)
}

// Remove removes root and all its dependents, dependents first.
func (w *Walker) Remove(ctx context.Context, root *descriptor.ServiceSpec) error {
	if root == nil {
		return cderrors.New(cderrors.ErrCodeInvalidRequest, "service spec is nil")
	}
	w.resolveDependents(root)
	return w.remove(ctx, root)
}

func (w *Walker) remove(ctx context.Context, spec *descriptor.ServiceSpec) error {
	for i := range spec.OtherImages {
		child := &spec.OtherImages[i]
		w.nameDependent(spec, child)
		if err := w.remove(ctx, child); err != nil {
			return err
		}
	}
	return w.applier.Remove(ctx, spec)
}

// Prune removes the dependents of previous whose image is no longer a
// dependent anywhere in current. Dependents that are still present, and
// their own dependents, are left alone unless they were dropped too.
func (w *Walker) Prune(ctx context.Context, previous, current *descriptor.ServiceSpec) error {
	if previous == nil || current == nil {
		return nil
	}
	wanted := current.DependentImages()
	return w.prune(ctx, previous, wanted)
}

func (w *Walker) prune(ctx context.Context, parent *descriptor.ServiceSpec, wanted map[string]struct{}) error {
	for i := range parent.OtherImages {
		child := &parent.OtherImages[i]
		if child.RegistryImagePath == "" {
			continue
		}
		if _, ok := wanted[child.RegistryImagePath]; ok {
			if err := w.prune(ctx, child, wanted); err != nil {
				return err
			}
			continue
		}

		slog.Info("pruning dependent dropped from the descriptor", "image", child.RegistryImagePath)
		w.nameDependent(parent, child)
		if err := w.remove(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// Render resolves root and returns the desired objects of every hosted
// service in apply order.
func (w *Walker) Render(root *descriptor.ServiceSpec) ([]*resources.Desired, error) {
	if err := w.Resolve(root); err != nil {
		return nil, err
	}
	if !root.ShouldHost {
		return nil, nil
	}

	var out []*resources.Desired
	var render func(*descriptor.ServiceSpec) error
	render = func(spec *descriptor.ServiceSpec) error {
		for i := range spec.OtherImages {
			if child := &spec.OtherImages[i]; child.ShouldHost {
				if err := render(child); err != nil {
					return err
				}
			}
		}
		d, err := w.builder.Build(spec)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	}
	if err := render(root); err != nil {
		return nil, err
	}
	return out, nil
}
