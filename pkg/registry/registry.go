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

// Package registry builds the credentials used to pull from and push to the
// project's container registry.
package registry

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	registrytypes "github.com/docker/docker/api/types/registry"
)

// Credentials identifies a registry account.
type Credentials struct {
	Server   string
	Username string
	Password string
	Email    string
}

// Configured reports whether a registry server is set.
func (c Credentials) Configured() bool {
	return c.Server != ""
}

// dockerConfig is the payload of a kubernetes.io/dockerconfigjson secret.
type dockerConfig struct {
	Auths map[string]registrytypes.AuthConfig `json:"auths"`
}

// DockerConfigJSON renders the .dockerconfigjson document for c:
//
//	{"auths":{"<server>":{"auth":"base64(user:password)"}}}
//
// It returns nil without error when no registry is configured.
func DockerConfigJSON(c Credentials) ([]byte, error) {
	if !c.Configured() {
		return nil, nil
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	cfg := dockerConfig{
		Auths: map[string]registrytypes.AuthConfig{
			c.Server: {Auth: auth, Email: c.Email},
		},
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode docker config: %w", err)
	}
	return data, nil
}

// EncodedAuth returns the X-Registry-Auth header value the docker daemon
// expects when pushing to the registry.
func EncodedAuth(c Credentials) (string, error) {
	if !c.Configured() {
		return "", nil
	}
	return registrytypes.EncodeAuthConfig(registrytypes.AuthConfig{
		Username:      c.Username,
		Password:      c.Password,
		Email:         c.Email,
		ServerAddress: c.Server,
	})
}

// AuthConfigs returns the per-registry credentials the docker daemon uses to
// pull base images during a build.
func AuthConfigs(c Credentials) map[string]registrytypes.AuthConfig {
	if !c.Configured() {
		return nil
	}
	return map[string]registrytypes.AuthConfig{
		c.Server: {
			Username:      c.Username,
			Password:      c.Password,
			Email:         c.Email,
			ServerAddress: c.Server,
		},
	}
}
