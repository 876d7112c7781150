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

package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestNew_Selection(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		want     string
		wantErr  bool
	}{
		{"github", "GITHUB", "GITHUB", false},
		{"gitlab lowercase", "gitlab", "GITLAB", false},
		{"local", "LOCAL", "LOCAL", false},
		{"empty", "", "", true},
		{"unknown", "JENKINS", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := New(tt.selector, mapLookup(nil))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, cderrors.ErrCodeInvalidConfig, cderrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.Name())
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"GITHUB", "GITLAB", "LOCAL"}, Names())
}

func TestGitHub(t *testing.T) {
	env, err := New("GITHUB", mapLookup(map[string]string{
		VarGitHubRepository: "acme/shop",
		VarRegistry:         "ghcr.io",
		VarRegistryUser:     "bot",
		VarRegistryPassword: "token",
		VarSecretNeeded:     "true",
		VarKubeConfig:       "apiVersion: v1\nkind: Config\n",
		VarStorageClass:     "do-block-storage",
		VarDomainBase:       ".apps.example.com",
		VarBuildType:        "prod",
	}))
	require.NoError(t, err)

	assert.Equal(t, "shop", env.ProjectName())
	assert.Equal(t, "shop", env.ProjectNamespace())
	assert.True(t, env.NeedsSecret())
	assert.NotNil(t, env.KubeConfig())
	assert.Equal(t, "do-block-storage", env.StorageClass())
	assert.Equal(t, ".apps.example.com", env.DomainBase())
	assert.Equal(t, "prod", env.BuildType())
	assert.Equal(t, "ghcr.io", env.Registry().Server)
	assert.False(t, IsLocal(env))
}

func TestGitHub_SecretNotNeeded(t *testing.T) {
	for _, v := range []string{"", "false", "nope"} {
		env, err := New("GITHUB", mapLookup(map[string]string{VarSecretNeeded: v}))
		require.NoError(t, err)
		assert.False(t, env.NeedsSecret(), "value %q", v)
		assert.Nil(t, env.KubeConfig())
	}
}

func TestGitLab(t *testing.T) {
	env, err := New("GITLAB", mapLookup(map[string]string{
		VarGitLabProject:   "shop",
		VarGitLabNamespace: "acme/web",
		VarKubeURL:         "https://k8s.example.com",
		VarKubeToken:       "abc",
		VarKubeCAFile:      "/tmp/ca.pem",
		VarKubeConfig:      "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, "shop", env.ProjectName())
	assert.Equal(t, "acme/web", env.ProjectNamespace())
	assert.True(t, env.NeedsSecret())
	assert.Nil(t, env.KubeConfig(), "gitlab always uses url and token")
	assert.Equal(t, "https://k8s.example.com", env.KubeURL())
	assert.Equal(t, "abc", env.KubeToken())
	assert.Equal(t, "/tmp/ca.pem", env.KubeCAFile())
	assert.Equal(t, "dev", env.BuildType())
	assert.True(t, IsLocal(env))
}

func TestLocal(t *testing.T) {
	env, err := New("LOCAL", mapLookup(map[string]string{
		VarLocalProject: "shop",
	}))
	require.NoError(t, err)

	assert.Equal(t, "shop", env.ProjectName())
	assert.Equal(t, "local", env.ProjectNamespace())
	assert.False(t, env.NeedsSecret())
	assert.True(t, IsLocal(env))
}

func TestLocal_ProjectFromWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	env, err := New("LOCAL", mapLookup(nil))
	require.NoError(t, err)
	assert.NotEmpty(t, env.ProjectName())
}
