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

package resources

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/NVIDIA/autocd/pkg/descriptor"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/naming"
)

// Config holds the pass-wide settings every service is built with.
type Config struct {
	// Namer derives object names for the project and build type.
	Namer naming.Namer

	// NeedsSecret attaches the registry pull secret to workloads.
	NeedsSecret bool

	// DockerConfig is the .dockerconfigjson payload of the pull secret.
	DockerConfig []byte

	// StorageClass is requested by every claim. Empty selects the cluster default.
	StorageClass string

	// ProjectName labels pods of services without an image or service name.
	ProjectName string

	// RunID is recorded as an annotation on every object when set.
	RunID string
}

// Identity lists the derived names of one service.
type Identity struct {
	Namespace  string
	Workload   string
	Service    string
	Ingress    string
	AppLabel   string
	Host       string
	Claims     []string
	Retained   []string
	Stateful   bool
	Identifier string
}

// Desired is the complete set of objects of one service.
// Exactly one of Deployment and StatefulSet is set.
type Desired struct {
	Identity Identity

	Namespace   *corev1.Namespace
	Secret      *corev1.Secret
	Claims      []*corev1.PersistentVolumeClaim
	Deployment  *appsv1.Deployment
	StatefulSet *appsv1.StatefulSet
	Service     *corev1.Service
	Ingress     *networkingv1.Ingress
}

// Builder produces desired state for services of one deployment pass.
type Builder struct {
	config Config
}

// NewBuilder creates a builder for the given pass settings.
func NewBuilder(config Config) *Builder {
	return &Builder{config: config}
}

// Config returns the settings the builder was created with.
func (b *Builder) Config() Config {
	return b.config
}

// Identify derives the names of spec without building any object.
func (b *Builder) Identify(spec *descriptor.ServiceSpec) Identity {
	n := b.config.Namer
	id := spec.Identifier()

	ident := Identity{
		Namespace:  n.Namespace(),
		Workload:   n.Workload(id),
		Service:    n.Service(spec.ServiceName),
		Ingress:    n.Ingress(id),
		AppLabel:   n.AppLabel(id),
		Host:       spec.Subdomain,
		Stateful:   spec.Stateful(),
		Identifier: id,
	}
	for i, v := range spec.Volumes {
		name := n.Claim(id, i)
		ident.Claims = append(ident.Claims, name)
		if v.RetainVolume {
			ident.Retained = append(ident.Retained, name)
		}
	}
	return ident
}

// Build returns the desired objects for spec.
func (b *Builder) Build(spec *descriptor.ServiceSpec) (*Desired, error) {
	if spec == nil {
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, "service spec is nil")
	}
	if spec.RegistryImagePath == "" {
		return nil, cderrors.New(cderrors.ErrCodeInvalidConfig, "service has no registry image path")
	}

	ident := b.Identify(spec)
	d := &Desired{
		Identity:  ident,
		Namespace: b.namespace(ident),
		Secret:    b.secret(ident),
		Service:   b.service(spec, ident),
	}

	if spec.PubliclyAccessible {
		if ident.Host == "" {
			return nil, cderrors.NewWithContext(cderrors.ErrCodeInvalidConfig,
				"public service has no subdomain", map[string]any{"image": spec.RegistryImagePath})
		}
		d.Ingress = b.ingress(spec, ident)
	}

	if ident.Stateful {
		sts, err := b.statefulSet(spec, ident)
		if err != nil {
			return nil, err
		}
		d.StatefulSet = sts
		return d, nil
	}

	claims, err := b.claims(spec, ident)
	if err != nil {
		return nil, err
	}
	d.Claims = claims
	d.Deployment = b.deployment(spec, ident)
	return d, nil
}

// Objects returns every built object in creation order, skipping absent ones.
func (d *Desired) Objects() []runtime.Object {
	objs := []runtime.Object{d.Namespace}
	if d.Secret != nil {
		objs = append(objs, d.Secret)
	}
	for _, c := range d.Claims {
		objs = append(objs, c)
	}
	if d.Deployment != nil {
		objs = append(objs, d.Deployment)
	}
	if d.StatefulSet != nil {
		objs = append(objs, d.StatefulSet)
	}
	objs = append(objs, d.Service)
	if d.Ingress != nil {
		objs = append(objs, d.Ingress)
	}
	return objs
}

// Kind names the workload shape for logging.
func (d *Desired) Kind() string {
	if d.StatefulSet != nil {
		return "StatefulSet"
	}
	return "Deployment"
}

func (b *Builder) secret(ident Identity) *corev1.Secret {
	if !b.config.NeedsSecret || len(b.config.DockerConfig) == 0 {
		return nil
	}
	return &corev1.Secret{
		TypeMeta:   typeMeta("v1", "Secret"),
		ObjectMeta: b.objectMeta(PullSecretName, ident.Namespace, nil),
		Type:       corev1.SecretTypeDockerConfigJson,
		Data: map[string][]byte{
			corev1.DockerConfigJsonKey: b.config.DockerConfig,
		},
	}
}

func (b *Builder) namespace(ident Identity) *corev1.Namespace {
	meta := b.objectMeta(ident.Namespace, "", nil)
	return &corev1.Namespace{
		TypeMeta:   typeMeta("v1", "Namespace"),
		ObjectMeta: meta,
	}
}

func invalidVolume(spec *descriptor.ServiceSpec, index int, err error) error {
	return cderrors.WrapWithContext(cderrors.ErrCodeInvalidConfig,
		fmt.Sprintf("invalid size for volume %d", index), err,
		map[string]any{"image": spec.RegistryImagePath})
}
