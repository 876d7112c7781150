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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/NVIDIA/autocd/pkg/descriptor"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/naming"
)

func testConfig() Config {
	return Config{
		Namer:        naming.Namer{ProjectName: "shop", ProjectNamespace: "acme/web", BuildType: "dev"},
		NeedsSecret:  true,
		DockerConfig: []byte(`{"auths":{}}`),
		StorageClass: "fast",
		ProjectName:  "shop",
	}
}

func testSpec() *descriptor.ServiceSpec {
	s := descriptor.Default()
	s.RegistryImagePath = "registry.example.com/acme/shop:dev"
	s.Subdomain = "shop.example.com"
	return &s
}

func volume(retain bool, perm string) descriptor.VolumeSpec {
	return descriptor.VolumeSpec{VolumeMount: "/var/data", VolumeSize: "1Gi", RetainVolume: retain, FolderPermission: perm}
}

func TestBuild_ShapeSelection(t *testing.T) {
	tests := []struct {
		name     string
		replicas int32
		volumes  []descriptor.VolumeSpec
		stateful bool
		claims   int
	}{
		{"single replica no volumes", 1, nil, false, 0},
		{"single replica with volume", 1, []descriptor.VolumeSpec{volume(false, "")}, false, 1},
		{"multi replica no volumes", 3, nil, false, 0},
		{"multi replica with volume", 3, []descriptor.VolumeSpec{volume(false, "")}, true, 0},
	}

	b := NewBuilder(testConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testSpec()
			spec.Replicas = tt.replicas
			spec.Volumes = tt.volumes

			d, err := b.Build(spec)
			require.NoError(t, err)

			if tt.stateful {
				require.NotNil(t, d.StatefulSet)
				assert.Nil(t, d.Deployment)
				assert.Len(t, d.StatefulSet.Spec.VolumeClaimTemplates, len(tt.volumes))
				assert.Equal(t, d.Identity.Service, d.StatefulSet.Spec.ServiceName)
				assert.Equal(t, "StatefulSet", d.Kind())
			} else {
				require.NotNil(t, d.Deployment)
				assert.Nil(t, d.StatefulSet)
				assert.Equal(t, tt.replicas, *d.Deployment.Spec.Replicas)
				assert.Equal(t, "Deployment", d.Kind())
			}
			assert.Len(t, d.Claims, tt.claims)
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	spec := testSpec()
	spec.Volumes = []descriptor.VolumeSpec{volume(true, "777")}
	spec.EnvironmentVariables = map[string]map[string]string{
		"dev": {"B": "2", "A": "1", "C": "3"},
	}

	b := NewBuilder(testConfig())
	first, err := b.Build(spec)
	require.NoError(t, err)
	second, err := b.Build(spec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_DeploymentVolumes(t *testing.T) {
	spec := testSpec()
	spec.Volumes = []descriptor.VolumeSpec{volume(true, "777"), volume(false, "")}

	d, err := NewBuilder(testConfig()).Build(spec)
	require.NoError(t, err)

	require.Len(t, d.Claims, 2)
	assert.Equal(t, d.Identity.Claims, []string{d.Claims[0].Name, d.Claims[1].Name})
	assert.Equal(t, []string{d.Claims[0].Name}, d.Identity.Retained)

	claim := d.Claims[0]
	assert.Equal(t, d.Identity.Namespace, claim.Namespace)
	assert.Equal(t, []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce}, claim.Spec.AccessModes)
	assert.Equal(t, "fast", *claim.Spec.StorageClassName)
	size := claim.Spec.Resources.Requests[corev1.ResourceStorage]
	assert.True(t, size.Equal(resource.MustParse("1Gi")))
	assert.Equal(t, d.Identity.AppLabel, claim.Labels[LabelApp])

	pod := d.Deployment.Spec.Template.Spec
	require.Len(t, pod.Volumes, 2)
	assert.Equal(t, d.Claims[1].Name, pod.Volumes[1].PersistentVolumeClaim.ClaimName)

	container := pod.Containers[0]
	require.Len(t, container.VolumeMounts, 2)
	assert.Equal(t, "/var/data", container.VolumeMounts[0].MountPath)

	require.Len(t, pod.InitContainers, 1, "only volumes with a permission get an init container")
	init := pod.InitContainers[0]
	assert.Equal(t, "busybox", init.Image)
	assert.Equal(t, []string{"/bin/chmod", "-R", "777", "/data"}, init.Command)
	assert.Equal(t, d.Claims[0].Name, init.VolumeMounts[0].Name)
	assert.Equal(t, "/data", init.VolumeMounts[0].MountPath)
}

func TestBuild_InitContainerNamesUnique(t *testing.T) {
	spec := testSpec()
	spec.Volumes = []descriptor.VolumeSpec{volume(false, "755"), volume(false, "700")}

	d, err := NewBuilder(testConfig()).Build(spec)
	require.NoError(t, err)

	inits := d.Deployment.Spec.Template.Spec.InitContainers
	require.Len(t, inits, 2)
	assert.NotEqual(t, inits[0].Name, inits[1].Name)
}

func TestBuild_Container(t *testing.T) {
	spec := testSpec()
	spec.ContainerPort = 3000
	spec.Args = []string{"--verbose"}
	spec.EnvironmentVariables = map[string]map[string]string{
		"dev":  {"B": "2", "A": "1"},
		"prod": {"SECRET": "x"},
	}

	d, err := NewBuilder(testConfig()).Build(spec)
	require.NoError(t, err)

	c := d.Deployment.Spec.Template.Spec.Containers[0]
	assert.Equal(t, "shop-dev-c", c.Name)
	assert.Equal(t, spec.RegistryImagePath, c.Image)
	assert.Equal(t, corev1.PullAlways, c.ImagePullPolicy)
	assert.Equal(t, []string{"--verbose"}, c.Args)
	assert.Equal(t, []corev1.EnvVar{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}, c.Env)
	require.Len(t, c.Ports, 1)
	assert.Equal(t, int32(3000), c.Ports[0].ContainerPort)
	assert.Equal(t, "http", c.Ports[0].Name)
	assert.Equal(t, int64(60), *d.Deployment.Spec.Template.Spec.TerminationGracePeriodSeconds)
}

func TestBuild_ServiceSelectsPods(t *testing.T) {
	d, err := NewBuilder(testConfig()).Build(testSpec())
	require.NoError(t, err)

	podLabels := d.Deployment.Spec.Template.Labels
	for k, v := range d.Service.Spec.Selector {
		assert.Equal(t, v, podLabels[k], "selector %s", k)
	}
	for k, v := range d.Deployment.Spec.Selector.MatchLabels {
		assert.Equal(t, v, podLabels[k], "match label %s", k)
	}

	port := d.Service.Spec.Ports[0]
	assert.Equal(t, "web", port.Name)
	assert.Equal(t, int32(80), port.Port)
	assert.Equal(t, int32(8080), port.TargetPort.IntVal)
}

func TestBuild_PullSecret(t *testing.T) {
	t.Run("needed", func(t *testing.T) {
		d, err := NewBuilder(testConfig()).Build(testSpec())
		require.NoError(t, err)

		require.NotNil(t, d.Secret)
		assert.Equal(t, corev1.SecretTypeDockerConfigJson, d.Secret.Type)
		assert.Equal(t, PullSecretName, d.Secret.Name)
		assert.Contains(t, d.Secret.Data, corev1.DockerConfigJsonKey)
		assert.Equal(t, []corev1.LocalObjectReference{{Name: PullSecretName}},
			d.Deployment.Spec.Template.Spec.ImagePullSecrets)
	})

	t.Run("not needed", func(t *testing.T) {
		cfg := testConfig()
		cfg.NeedsSecret = false
		d, err := NewBuilder(cfg).Build(testSpec())
		require.NoError(t, err)

		assert.Nil(t, d.Secret)
		assert.Empty(t, d.Deployment.Spec.Template.Spec.ImagePullSecrets)
	})
}

func TestBuild_Ingress(t *testing.T) {
	t.Run("public", func(t *testing.T) {
		d, err := NewBuilder(testConfig()).Build(testSpec())
		require.NoError(t, err)

		require.NotNil(t, d.Ingress)
		assert.Equal(t, []string{"shop.example.com"}, Hosts(d.Ingress))
		path := d.Ingress.Spec.Rules[0].HTTP.Paths[0]
		assert.Equal(t, "/", path.Path)
		assert.Equal(t, networkingv1.PathTypePrefix, *path.PathType)
		assert.Equal(t, d.Service.Name, path.Backend.Service.Name)
		assert.Equal(t, int32(80), path.Backend.Service.Port.Number)
	})

	t.Run("private", func(t *testing.T) {
		spec := testSpec()
		spec.PubliclyAccessible = false
		spec.Subdomain = ""
		d, err := NewBuilder(testConfig()).Build(spec)
		require.NoError(t, err)
		assert.Nil(t, d.Ingress)
	})

	t.Run("public without host", func(t *testing.T) {
		spec := testSpec()
		spec.Subdomain = ""
		_, err := NewBuilder(testConfig()).Build(spec)
		require.Error(t, err)
		assert.Equal(t, cderrors.ErrCodeInvalidConfig, cderrors.CodeOf(err))
	})
}

func TestBuild_RequiresImage(t *testing.T) {
	spec := testSpec()
	spec.RegistryImagePath = ""
	_, err := NewBuilder(testConfig()).Build(spec)
	require.Error(t, err)
}

func TestBuild_RunAnnotation(t *testing.T) {
	cfg := testConfig()
	cfg.RunID = "run-1"
	d, err := NewBuilder(cfg).Build(testSpec())
	require.NoError(t, err)

	assert.Equal(t, "run-1", d.Namespace.Annotations[AnnotationRunID])
	assert.Equal(t, ManagedBy, d.Service.Labels[LabelManagedBy])
}

func TestBuild_Objects(t *testing.T) {
	spec := testSpec()
	spec.Volumes = []descriptor.VolumeSpec{volume(false, "")}
	d, err := NewBuilder(testConfig()).Build(spec)
	require.NoError(t, err)

	// namespace, secret, claim, deployment, service, ingress
	assert.Len(t, d.Objects(), 6)
}

func TestIdentify_ServiceOverride(t *testing.T) {
	spec := testSpec()
	spec.ServiceName = "api"
	ident := NewBuilder(testConfig()).Identify(spec)
	assert.Equal(t, "api", ident.Service)
	assert.Equal(t, "acme-web-dev", ident.Namespace)
}
