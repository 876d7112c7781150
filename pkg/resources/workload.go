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
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/descriptor"
	"github.com/NVIDIA/autocd/pkg/naming"
)

func (b *Builder) deployment(spec *descriptor.ServiceSpec, ident Identity) *appsv1.Deployment {
	labels := selector(ident)
	pod := b.podSpec(spec, ident)

	for _, claim := range ident.Claims {
		pod.Volumes = append(pod.Volumes, corev1.Volume{
			Name: claim,
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
					ClaimName: claim,
				},
			},
		})
	}

	return &appsv1.Deployment{
		TypeMeta:   typeMeta("apps/v1", "Deployment"),
		ObjectMeta: b.objectMeta(ident.Workload, ident.Namespace, labels),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(spec.Replicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: b.podLabels(spec, ident)},
				Spec:       pod,
			},
		},
	}
}

func (b *Builder) statefulSet(spec *descriptor.ServiceSpec, ident Identity) (*appsv1.StatefulSet, error) {
	labels := selector(ident)
	labels[LabelServiceName] = b.serviceLabel(spec)

	templates := make([]corev1.PersistentVolumeClaim, 0, len(spec.Volumes))
	for i, v := range spec.Volumes {
		claimSpec, err := b.claimSpec(v)
		if err != nil {
			return nil, invalidVolume(spec, i, err)
		}
		templates = append(templates, corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Name: ident.Claims[i]},
			Spec:       claimSpec,
		})
	}

	return &appsv1.StatefulSet{
		TypeMeta:   typeMeta("apps/v1", "StatefulSet"),
		ObjectMeta: b.objectMeta(ident.Workload, ident.Namespace, labels),
		Spec: appsv1.StatefulSetSpec{
			Replicas:    ptr.To(spec.Replicas),
			ServiceName: ident.Service,
			Selector:    &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: b.podLabels(spec, ident)},
				Spec:       b.podSpec(spec, ident),
			},
			VolumeClaimTemplates: templates,
		},
	}, nil
}

// podSpec builds the pod shared by both workload shapes. Volumes are mounted
// by claim name; the Deployment adds the matching pod volumes.
func (b *Builder) podSpec(spec *descriptor.ServiceSpec, ident Identity) corev1.PodSpec {
	container := corev1.Container{
		Name:            naming.Sanitize(b.config.Namer.Name() + "-c"),
		Image:           spec.RegistryImagePath,
		ImagePullPolicy: corev1.PullAlways,
		Args:            spec.Args,
		Ports: []corev1.ContainerPort{{
			Name:          defaults.ContainerPortName,
			ContainerPort: spec.ContainerPort,
		}},
		Env: envVars(spec.EnvironmentFor(b.config.Namer.BuildType)),
	}

	var inits []corev1.Container
	for i, v := range spec.Volumes {
		container.VolumeMounts = append(container.VolumeMounts, corev1.VolumeMount{
			Name:      ident.Claims[i],
			MountPath: v.VolumeMount,
		})
		if v.FolderPermission != "" {
			inits = append(inits, permissionInit(i, v.FolderPermission, ident.Claims[i]))
		}
	}

	pod := corev1.PodSpec{
		TerminationGracePeriodSeconds: ptr.To(spec.TerminationGracePeriod),
		InitContainers:                inits,
		Containers:                    []corev1.Container{container},
	}
	if b.config.NeedsSecret && len(b.config.DockerConfig) > 0 {
		pod.ImagePullSecrets = []corev1.LocalObjectReference{{Name: PullSecretName}}
	}
	return pod
}

func (b *Builder) podLabels(spec *descriptor.ServiceSpec, ident Identity) map[string]string {
	return map[string]string{
		LabelApp:         ident.AppLabel,
		LabelName:        naming.ServiceLabel(b.config.Namer.Name()),
		LabelServiceName: b.serviceLabel(spec),
		LabelManagedBy:   ManagedBy,
	}
}

// serviceLabel prefers the explicit service name, then the image, then the project.
func (b *Builder) serviceLabel(spec *descriptor.ServiceSpec) string {
	switch {
	case spec.ServiceName != "":
		return naming.ServiceLabel(spec.ServiceName)
	case spec.RegistryImagePath != "":
		return naming.ServiceLabel(spec.RegistryImagePath)
	default:
		return naming.ServiceLabel(b.config.ProjectName)
	}
}

// permissionInit returns the init container applying perm to the volume at index.
func permissionInit(index int, perm, volume string) corev1.Container {
	return corev1.Container{
		Name:    fmt.Sprintf("chmod-%d", index),
		Image:   defaults.InitImage,
		Command: []string{"/bin/chmod", "-R", perm, defaults.InitMountPath},
		VolumeMounts: []corev1.VolumeMount{{
			Name:      volume,
			MountPath: defaults.InitMountPath,
		}},
	}
}

// envVars converts vars into container variables sorted by name.
func envVars(vars map[string]string) []corev1.EnvVar {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)

	env := make([]corev1.EnvVar, 0, len(names))
	for _, k := range names {
		env = append(env, corev1.EnvVar{Name: k, Value: vars[k]})
	}
	return env
}
