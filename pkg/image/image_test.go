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
	"os"
	"path/filepath"
	"strings"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/registry"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Kind
	}{
		{"dockerfile wins", map[string]string{"Dockerfile": "FROM scratch", "go.mod": "module x"}, KindDockerfile},
		{"vue app", map[string]string{"package.json": `{"dependencies":{"vue":"^3.0.0"}}`}, KindSPA},
		{"react dev dependency", map[string]string{"package.json": `{"devDependencies":{"react":"18"}}`}, KindSPA},
		{"node service", map[string]string{"package.json": `{"dependencies":{"express":"4"}}`}, KindNode},
		{"go module", map[string]string{"go.mod": "module example.com/x"}, KindGo},
		{"maven project", map[string]string{"pom.xml": "<project/>"}, KindMaven},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			got, err := Detect(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Unknown(t *testing.T) {
	_, err := Detect(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, cderrors.ErrCodeInvalidConfig, cderrors.CodeOf(err))
}

func TestDetect_BadPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", "{")

	_, err := Detect(dir)
	require.Error(t, err)
	assert.Equal(t, cderrors.ErrCodeInvalidConfig, cderrors.CodeOf(err))
}

func TestDockerfile(t *testing.T) {
	for _, kind := range []Kind{KindSPA, KindGo, KindMaven, KindNode} {
		t.Run(string(kind), func(t *testing.T) {
			content, err := Dockerfile(kind, "prod")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(content), "FROM "))
			assert.Contains(t, string(content), "prod")
		})
	}

	spa, err := Dockerfile(KindSPA, "dev")
	require.NoError(t, err)
	assert.Contains(t, string(spa), "EXPOSE 80\n")

	_, err = Dockerfile(KindDockerfile, "dev")
	assert.Error(t, err)
}

func TestKindContainerPort(t *testing.T) {
	assert.Equal(t, int32(80), KindSPA.ContainerPort())
	assert.Zero(t, KindGo.ContainerPort())
}

func TestTag(t *testing.T) {
	creds := registry.Credentials{Server: "registry.example.com"}
	assert.Equal(t, "registry.example.com/acme/shop:dev", Tag(creds, "acme", "shop", "dev"))
	assert.Equal(t, "default/default/default:prod", Tag(registry.Credentials{}, "", "", "prod"))
}

type fakeDocker struct {
	buildOpts  build.ImageBuildOptions
	pushed     []string
	pushAuth   string
	buildBody  string
	pushBody   string
	buildErr   error
	pushErr    error
}

func (f *fakeDocker) ImageBuild(_ context.Context, ctx io.Reader, opts build.ImageBuildOptions) (build.ImageBuildResponse, error) {
	f.buildOpts = opts
	if f.buildErr != nil {
		return build.ImageBuildResponse{}, f.buildErr
	}
	if _, err := io.Copy(io.Discard, ctx); err != nil {
		return build.ImageBuildResponse{}, err
	}
	body := f.buildBody
	if body == "" {
		body = `{"stream":"Successfully built abc\n"}`
	}
	return build.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeDocker) ImagePush(_ context.Context, image string, opts dockerimage.PushOptions) (io.ReadCloser, error) {
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	f.pushed = append(f.pushed, image)
	f.pushAuth = opts.RegistryAuth
	body := f.pushBody
	if body == "" {
		body = `{"status":"Pushed"}`
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

var testCreds = registry.Credentials{Server: "registry.example.com", Username: "bot", Password: "pw"}

func TestBuild_GeneratedDockerfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/shop")
	docker := &fakeDocker{}

	res, err := NewBuilder(docker, testCreds).Build(context.Background(), dir, "registry.example.com/acme/shop:dev", "dev")
	require.NoError(t, err)

	assert.Equal(t, KindGo, res.Kind)
	assert.True(t, res.Pushed)
	assert.Equal(t, generatedDockerfile, docker.buildOpts.Dockerfile)
	assert.Equal(t, []string{"registry.example.com/acme/shop:dev"}, docker.buildOpts.Tags)
	assert.Contains(t, docker.buildOpts.AuthConfigs, "registry.example.com")
	assert.Equal(t, []string{"registry.example.com/acme/shop:dev"}, docker.pushed)
	assert.NotEmpty(t, docker.pushAuth)

	_, err = os.Stat(filepath.Join(dir, generatedDockerfile))
	assert.True(t, os.IsNotExist(err), "generated Dockerfile is cleaned up")
}

func TestBuild_ProjectDockerfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM scratch")
	writeFile(t, dir, ".dockerignore", "node_modules\n# comment\n.git\n")
	docker := &fakeDocker{}

	res, err := NewBuilder(docker, testCreds).Build(context.Background(), dir, "t:dev", "dev")
	require.NoError(t, err)
	assert.Equal(t, KindDockerfile, res.Kind)
	assert.Equal(t, DockerfileName, docker.buildOpts.Dockerfile)
}

func TestBuild_NoRegistrySkipsPush(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM scratch")
	docker := &fakeDocker{}

	res, err := NewBuilder(docker, registry.Credentials{}).Build(context.Background(), dir, "default/default/shop:dev", "dev")
	require.NoError(t, err)
	assert.False(t, res.Pushed)
	assert.Empty(t, docker.pushed)
	assert.Nil(t, docker.buildOpts.AuthConfigs)
}

func TestBuild_StreamError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM scratch")
	docker := &fakeDocker{buildBody: `{"errorDetail":{"message":"step failed"},"error":"step failed"}`}

	_, err := NewBuilder(docker, testCreds).Build(context.Background(), dir, "t:dev", "dev")
	require.Error(t, err)
	assert.Equal(t, cderrors.ErrCodeInternal, cderrors.CodeOf(err))
	assert.Empty(t, docker.pushed)
}

func TestBuild_PushUnauthorized(t *testing.T) {
	tests := []struct {
		name   string
		docker *fakeDocker
	}{
		{"api error", &fakeDocker{pushErr: cerrdefs.ErrUnauthenticated}},
		{"stream error", &fakeDocker{pushBody: `{"errorDetail":{"message":"denied: requested access to the resource is denied"},"error":"denied"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "Dockerfile", "FROM scratch")

			_, err := NewBuilder(tt.docker, testCreds).Build(context.Background(), dir, "t:dev", "dev")
			require.Error(t, err)
			assert.Equal(t, cderrors.ErrCodeUnauthorized, cderrors.CodeOf(err))
		})
	}
}

func TestBuild_BuildRequestError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM scratch")
	docker := &fakeDocker{buildErr: errors.New("daemon exploded")}

	_, err := NewBuilder(docker, testCreds).Build(context.Background(), dir, "t:dev", "dev")
	require.Error(t, err)
	assert.Equal(t, cderrors.ErrCodeInternal, cderrors.CodeOf(err))
}
