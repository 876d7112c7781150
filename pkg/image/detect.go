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
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/NVIDIA/autocd/pkg/defaults"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

// Kind is the detected project type.
type Kind string

const (
	KindDockerfile Kind = "dockerfile"
	KindSPA        Kind = "spa"
	KindGo         Kind = "go"
	KindMaven      Kind = "maven"
	KindNode       Kind = "node"
)

// DockerfileName is the Dockerfile looked up in the project directory.
const DockerfileName = "Dockerfile"

// generatedDockerfile is written into the build context when the project has
// no Dockerfile of its own.
const generatedDockerfile = ".autocd.Dockerfile"

var (
	//go:embed templates/spa.Dockerfile.tmpl
	spaTemplate string

	//go:embed templates/go.Dockerfile.tmpl
	goTemplate string

	//go:embed templates/maven.Dockerfile.tmpl
	mavenTemplate string

	//go:embed templates/node.Dockerfile.tmpl
	nodeTemplate string
)

var templates = map[Kind]string{
	KindSPA:   spaTemplate,
	KindGo:    goTemplate,
	KindMaven: mavenTemplate,
	KindNode:  nodeTemplate,
}

// spaFrameworks mark a package.json as a single-page app.
var spaFrameworks = []string{"vue", "react", "@angular/core", "svelte"}

// Detect returns the project type of dir.
func Detect(dir string) (Kind, error) {
	switch {
	case exists(dir, DockerfileName):
		return KindDockerfile, nil
	case exists(dir, "package.json"):
		spa, err := isSPA(filepath.Join(dir, "package.json"))
		if err != nil {
			return "", err
		}
		if spa {
			return KindSPA, nil
		}
		return KindNode, nil
	case exists(dir, "go.mod"):
		return KindGo, nil
	case exists(dir, "pom.xml"):
		return KindMaven, nil
	}
	return "", cderrors.NewWithContext(cderrors.ErrCodeInvalidConfig,
		"no Dockerfile and no known project type", map[string]any{"dir": dir})
}

// ContainerPort returns the port images of kind listen on, or 0 when the
// descriptor decides.
func (k Kind) ContainerPort() int32 {
	if k == KindSPA {
		return defaults.SPAContainerPort
	}
	return 0
}

type templateData struct {
	BuildType string
	Port      int32
}

// Dockerfile renders the generated Dockerfile for kind.
func Dockerfile(kind Kind, buildType string) ([]byte, error) {
	text, ok := templates[kind]
	if !ok {
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, fmt.Sprintf("no Dockerfile template for %q", kind))
	}

	tmpl, err := template.New(string(kind)).Parse(text)
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to parse Dockerfile template", err)
	}

	port := kind.ContainerPort()
	if port == 0 {
		port = defaults.ContainerPort
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{BuildType: buildType, Port: port}); err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to render Dockerfile template", err)
	}
	return buf.Bytes(), nil
}

func isSPA(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, cderrors.Wrap(cderrors.ErrCodeInternal, "failed to read package.json", err)
	}

	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false, cderrors.Wrap(cderrors.ErrCodeInvalidConfig, "failed to parse package.json", err)
	}

	for _, name := range spaFrameworks {
		if _, ok := pkg.Dependencies[name]; ok {
			return true, nil
		}
		if _, ok := pkg.DevDependencies[name]; ok {
			return true, nil
		}
	}
	return false, nil
}

func exists(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
