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

	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/descriptor"
	"github.com/NVIDIA/autocd/pkg/environment"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/image"
	"github.com/NVIDIA/autocd/pkg/k8s/access"
	"github.com/NVIDIA/autocd/pkg/naming"
	"github.com/NVIDIA/autocd/pkg/reconciler"
	"github.com/NVIDIA/autocd/pkg/registry"
	"github.com/NVIDIA/autocd/pkg/resources"
	"github.com/NVIDIA/autocd/pkg/serializer"
	"github.com/NVIDIA/autocd/pkg/walker"
)

// ImageBuilder builds the project image. *image.Builder satisfies it.
type ImageBuilder interface {
	Build(ctx context.Context, dir, tag, buildType string) (*image.Result, error)
}

// Options locate the inputs and outputs of one pass.
type Options struct {
	// ConfigPath is the current descriptor. Defaults to autocd.json.
	ConfigPath string

	// PreviousPath is the descriptor of the last pass. Defaults to oldautocd.json.
	PreviousPath string

	// RecordPath receives the applied descriptor. Empty skips recording.
	RecordPath string

	// WorkDir is the project directory the image is built from.
	WorkDir string

	// SkipBuild uses the computed tag without building.
	SkipBuild bool

	// Preflight checks cluster permissions before anything is built or applied.
	Preflight bool
}

func (o Options) withDefaults() Options {
	if o.ConfigPath == "" {
		o.ConfigPath = defaults.DescriptorFile
	}
	if o.PreviousPath == "" {
		o.PreviousPath = defaults.PreviousDescriptorFile
	}
	if o.WorkDir == "" {
		o.WorkDir = "."
	}
	return o
}

// Deployer runs deployment passes for one environment.
type Deployer struct {
	env        environment.Environment
	client     kubernetes.Interface
	images     ImageBuilder
	sources    serializer.Sources
	runID      string
	engineOpts []reconciler.Option
}

// Option is a functional option for configuring Deployer instances.
type Option func(*Deployer)

// WithRunID annotates every applied object with id.
func WithRunID(id string) Option {
	return func(d *Deployer) {
		d.runID = id
	}
}

// WithEngineOptions passes options to the apply engine.
func WithEngineOptions(opts ...reconciler.Option) Option {
	return func(d *Deployer) {
		d.engineOpts = append(d.engineOpts, opts...)
	}
}

// WithSources replaces the descriptor sources. The kubernetes client of the
// deployer is used when src carries none.
func WithSources(src serializer.Sources) Option {
	return func(d *Deployer) {
		d.sources = src
	}
}

// New creates a Deployer. client may be nil for Render; images may be nil
// when the descriptor always names its image.
func New(env environment.Environment, client kubernetes.Interface, images ImageBuilder, opts ...Option) *Deployer {
	d := &Deployer{
		env:    env,
		client: client,
		images: images,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sources.Client == nil {
		d.sources.Client = client
	}
	if !d.sources.OCI.Credentials.Configured() {
		d.sources.OCI.Credentials = env.Registry()
	}
	return d
}

// BuilderConfig derives the pass-wide resource settings from env.
func BuilderConfig(env environment.Environment, runID string) (resources.Config, error) {
	dockerConfig, err := registry.DockerConfigJSON(env.Registry())
	if err != nil {
		return resources.Config{}, cderrors.Wrap(cderrors.ErrCodeInvalidConfig, "failed to build registry pull secret", err)
	}
	return resources.Config{
		Namer: naming.Namer{
			ProjectName:      env.ProjectName(),
			ProjectNamespace: env.ProjectNamespace(),
			BuildType:        env.BuildType(),
			Local:            environment.IsLocal(env),
		},
		NeedsSecret:  env.NeedsSecret(),
		DockerConfig: dockerConfig,
		StorageClass: env.StorageClass(),
		ProjectName:  env.ProjectName(),
		RunID:        runID,
	}, nil
}

func (d *Deployer) walker() (*walker.Walker, error) {
	cfg, err := BuilderConfig(d.env, d.runID)
	if err != nil {
		return nil, err
	}
	builder := resources.NewBuilder(cfg)

	var applier walker.Applier
	if d.client != nil {
		applier = reconciler.NewEngine(d.client, builder, d.engineOpts...)
	}
	return walker.New(applier, builder, d.env.DomainBase()), nil
}

func (d *Deployer) requireClient() error {
	if d.client == nil {
		return cderrors.New(cderrors.ErrCodeInvalidRequest, "a kubernetes client is required")
	}
	return nil
}

// Deploy runs a full pass and returns the applied descriptor.
func (d *Deployer) Deploy(ctx context.Context, opts Options) (*descriptor.ServiceSpec, error) {
	opts = opts.withDefaults()
	if err := d.requireClient(); err != nil {
		return nil, err
	}

	current, err := d.loadCurrent(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	previous, err := d.loadPrevious(ctx, opts.PreviousPath)
	if err != nil {
		return nil, err
	}
	if err := current.Validate(); err != nil {
		return nil, err
	}

	w, err := d.walker()
	if err != nil {
		return nil, err
	}

	if opts.Preflight {
		if err := d.preflight(ctx, w); err != nil {
			return nil, err
		}
	}

	if err := d.setupImage(ctx, current, opts); err != nil {
		return nil, err
	}
	if err := w.Resolve(current); err != nil {
		return nil, err
	}

	passCtx, cancel := context.WithTimeout(ctx, defaults.K8sPassTimeout)
	defer cancel()

	if previous != nil {
		slog.Info("pruning dependents of the previous descriptor", "location", opts.PreviousPath)
		if err := w.Prune(passCtx, previous, current); err != nil {
			return nil, err
		}
	}

	if err := w.Deploy(passCtx, current); err != nil {
		return nil, err
	}
	slog.Info("deployment pass complete",
		"image", current.RegistryImagePath,
		"services", current.Count(),
		"hosted", current.ShouldHost)

	if opts.RecordPath != "" {
		if err := d.record(ctx, opts.RecordPath, current); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Remove tears down the tree of the current descriptor regardless of shouldHost.
func (d *Deployer) Remove(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	if err := d.requireClient(); err != nil {
		return err
	}

	current, err := d.loadCurrent(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	d.computeTag(current)

	w, err := d.walker()
	if err != nil {
		return err
	}
	slog.Info("removing service tree", "image", current.RegistryImagePath, "services", current.Count())
	return w.Remove(ctx, current)
}

// Render returns the desired objects of the current descriptor without
// building or touching the cluster.
func (d *Deployer) Render(ctx context.Context, opts Options) ([]*resources.Desired, error) {
	opts = opts.withDefaults()

	current, err := d.loadCurrent(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := current.Validate(); err != nil {
		return nil, err
	}
	if d.computeTag(current) {
		adjustPort(current, detectKind(opts.WorkDir))
	}

	w, err := d.walker()
	if err != nil {
		return nil, err
	}
	return w.Render(current)
}

func (d *Deployer) preflight(ctx context.Context, w *walker.Walker) error {
	namespace := w.Namespace()
	checks, err := access.CheckPermissions(ctx, d.client, access.DeployRequirements(namespace))
	if err != nil {
		return err
	}
	slog.Info("cluster permissions verified", "namespace", namespace, "checks", len(checks))
	return nil
}

func (d *Deployer) record(ctx context.Context, location string, spec *descriptor.ServiceSpec) error {
	w, err := serializer.NewWriterFor(location, d.sources)
	if err != nil {
		return err
	}
	if c, ok := w.(serializer.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				slog.Warn("failed to close record writer", "error", cerr)
			}
		}()
	}
	if err := w.Serialize(ctx, spec); err != nil {
		return err
	}
	slog.Info("descriptor recorded", "location", location)
	return nil
}
