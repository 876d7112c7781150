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

package image

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	archive "github.com/moby/go-archive"
	"github.com/moby/patternmatcher/ignorefile"

	"github.com/NVIDIA/autocd/pkg/defaults"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/registry"
)

const placeholder = "default"

// API is the part of the docker engine client the builder uses.
type API interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePush(ctx context.Context, image string, options dockerimage.PushOptions) (io.ReadCloser, error)
}

// NewDockerClient connects to the docker daemon configured by DOCKER_HOST
// and related variables.
func NewDockerClient() (*client.Client, error) {
	c, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeUnavailable, "failed to create docker client", err)
	}
	return c, nil
}

// Tag returns the image reference registry/namespace/project:buildType.
// Missing parts are replaced with "default".
func Tag(creds registry.Credentials, namespace, project, buildType string) string {
	return orDefault(creds.Server) + "/" + orDefault(namespace) + "/" + orDefault(project) + ":" + buildType
}

func orDefault(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// Result describes a built image.
type Result struct {
	Tag    string
	Kind   Kind
	Pushed bool
}

// Builder builds and pushes project images.
type Builder struct {
	api          API
	creds        registry.Credentials
	out          io.Writer
	buildTimeout time.Duration
	pushTimeout  time.Duration
}

// Option is a functional option for configuring Builder instances.
type Option func(*Builder)

// WithOutput sets where build and push progress is written.
func WithOutput(w io.Writer) Option {
	return func(b *Builder) {
		b.out = w
	}
}

// WithTimeouts overrides the build and push timeouts.
func WithTimeouts(buildTimeout, pushTimeout time.Duration) Option {
	return func(b *Builder) {
		if buildTimeout > 0 {
			b.buildTimeout = buildTimeout
		}
		if pushTimeout > 0 {
			b.pushTimeout = pushTimeout
		}
	}
}

// NewBuilder creates a Builder pushing with creds.
func NewBuilder(api API, creds registry.Credentials, opts ...Option) *Builder {
	b := &Builder{
		api:          api,
		creds:        creds,
		out:          io.Discard,
		buildTimeout: defaults.ImageBuildTimeout,
		pushTimeout:  defaults.ImagePushTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build builds the project in dir as tag and pushes it when a registry is
// configured.
func (b *Builder) Build(ctx context.Context, dir, tag, buildType string) (*Result, error) {
	kind, err := Detect(dir)
	if err != nil {
		return nil, err
	}
	res := &Result{Tag: tag, Kind: kind}

	dockerfile := DockerfileName
	if kind != KindDockerfile {
		cleanup, err := writeDockerfile(dir, kind, buildType)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		dockerfile = generatedDockerfile
	}

	slog.Info("building image", "tag", tag, "kind", kind, "dir", dir)
	if err := b.build(ctx, dir, dockerfile, tag); err != nil {
		return nil, err
	}

	if !b.creds.Configured() {
		slog.Info("no registry configured, image left in the local daemon", "tag", tag)
		return res, nil
	}

	slog.Info("pushing image", "tag", tag)
	if err := b.push(ctx, tag); err != nil {
		return nil, err
	}
	res.Pushed = true
	return res, nil
}

func (b *Builder) build(ctx context.Context, dir, dockerfile, tag string) error {
	excludes, err := ignored(dir)
	if err != nil {
		return err
	}

	buildCtx, err := archive.TarWithOptions(dir, &archive.TarOptions{ExcludePatterns: excludes})
	if err != nil {
		return cderrors.Wrap(cderrors.ErrCodeInternal, "failed to archive build context", err)
	}
	defer buildCtx.Close()

	ctx, cancel := context.WithTimeout(ctx, b.buildTimeout)
	defer cancel()

	opts := build.ImageBuildOptions{
		Tags:        []string{tag},
		Dockerfile:  dockerfile,
		Remove:      true,
		ForceRemove: true,
		PullParent:  true,
	}
	if b.creds.Configured() {
		opts.AuthConfigs = registry.AuthConfigs(b.creds)
	}

	resp, err := b.api.ImageBuild(ctx, buildCtx, opts)
	if err != nil {
		return classify(err, "image build failed", tag)
	}
	defer resp.Body.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, b.out, 0, false, nil); err != nil {
		return classify(err, "image build failed", tag)
	}
	return nil
}

func (b *Builder) push(ctx context.Context, tag string) error {
	auth, err := registry.EncodedAuth(b.creds)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.pushTimeout)
	defer cancel()

	body, err := b.api.ImagePush(ctx, tag, dockerimage.PushOptions{RegistryAuth: auth})
	if err != nil {
		return classify(err, "image push failed", tag)
	}
	defer body.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(body, b.out, 0, false, nil); err != nil {
		return classify(err, "image push failed", tag)
	}
	return nil
}

func classify(err error, msg, tag string) error {
	code := cderrors.ErrCodeInternal
	var jerr *jsonmessage.JSONError
	switch {
	case cerrdefs.IsUnauthorized(err), cerrdefs.IsPermissionDenied(err):
		code = cderrors.ErrCodeUnauthorized
	case errors.As(err, &jerr) && isAuthMessage(jerr.Message):
		code = cderrors.ErrCodeUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		code = cderrors.ErrCodeTimeout
	case cerrdefs.IsUnavailable(err), client.IsErrConnectionFailed(err):
		code = cderrors.ErrCodeUnavailable
	}
	return cderrors.WrapWithContext(code, msg, err, map[string]any{"tag": tag})
}

func isAuthMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "unauthorized") || strings.Contains(msg, "denied")
}

// ignored returns the patterns of the project's .dockerignore, if any.
func ignored(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, ".dockerignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to open .dockerignore", err)
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInvalidConfig, "failed to parse .dockerignore", err)
	}
	return patterns, nil
}

func writeDockerfile(dir string, kind Kind, buildType string) (func(), error) {
	content, err := Dockerfile(kind, buildType)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, generatedDockerfile)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to write generated Dockerfile", err)
	}
	slog.Debug("generated Dockerfile", "kind", kind, "path", path)

	return func() {
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove generated Dockerfile", "path", path, "error", err)
		}
	}, nil
}
