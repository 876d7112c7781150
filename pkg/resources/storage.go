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
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/autocd/pkg/descriptor"
)

// claims returns the named claims of a stateless service, one per volume.
// They carry the app label so removal can find them next to claims created
// from StatefulSet templates.
func (b *Builder) claims(spec *descriptor.ServiceSpec, ident Identity) ([]*corev1.PersistentVolumeClaim, error) {
	if len(spec.Volumes) == 0 {
		return nil, nil
	}

	claims := make([]*corev1.PersistentVolumeClaim, 0, len(spec.Volumes))
	for i, v := range spec.Volumes {
		claimSpec, err := b.claimSpec(v)
		if err != nil {
			return nil, invalidVolume(spec, i, err)
		}
		claims = append(claims, &corev1.PersistentVolumeClaim{
			TypeMeta:   typeMeta("v1", "PersistentVolumeClaim"),
			ObjectMeta: b.objectMeta(ident.Claims[i], ident.Namespace, selector(ident)),
			Spec:       claimSpec,
		})
	}
	return claims, nil
}

func (b *Builder) claimSpec(v descriptor.VolumeSpec) (corev1.PersistentVolumeClaimSpec, error) {
	size, err := resource.ParseQuantity(v.VolumeSize)
	if err != nil {
		return corev1.PersistentVolumeClaimSpec{}, err
	}

	spec := corev1.PersistentVolumeClaimSpec{
		AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
		Resources: corev1.VolumeResourceRequirements{
			Requests: corev1.ResourceList{corev1.ResourceStorage: size},
		},
	}
	if b.config.StorageClass != "" {
		spec.StorageClassName = ptr.To(b.config.StorageClass)
	}
	return spec, nil
}
