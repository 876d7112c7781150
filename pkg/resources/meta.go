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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/autocd/pkg/defaults"
)

// Label and annotation keys set on built objects.
const (
	LabelApp         = "k8s-app"
	LabelName        = "name"
	LabelServiceName = "serviceName"
	LabelManagedBy   = "app.kubernetes.io/managed-by"
	AnnotationRunID  = "autocd.nvidia.com/run-id"

	// ManagedBy is the value of LabelManagedBy.
	ManagedBy = "autocd"

	// PullSecretName is the name of the registry pull secret.
	PullSecretName = defaults.RegistrySecretName
)

func typeMeta(apiVersion, kind string) metav1.TypeMeta {
	return metav1.TypeMeta{APIVersion: apiVersion, Kind: kind}
}

// objectMeta returns metadata carrying the managed-by label, the given
// labels and the run annotation.
func (b *Builder) objectMeta(name, namespace string, labels map[string]string) metav1.ObjectMeta {
	l := map[string]string{LabelManagedBy: ManagedBy}
	for k, v := range labels {
		l[k] = v
	}

	meta := metav1.ObjectMeta{
		Name:      name,
		Namespace: namespace,
		Labels:    l,
	}
	if b.config.RunID != "" {
		meta.Annotations = map[string]string{AnnotationRunID: b.config.RunID}
	}
	return meta
}

// selector is the label set pods are matched by.
func selector(ident Identity) map[string]string {
	return map[string]string{LabelApp: ident.AppLabel}
}
