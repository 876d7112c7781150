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
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/descriptor"
)

func (b *Builder) service(spec *descriptor.ServiceSpec, ident Identity) *corev1.Service {
	return &corev1.Service{
		TypeMeta:   typeMeta("v1", "Service"),
		ObjectMeta: b.objectMeta(ident.Service, ident.Namespace, selector(ident)),
		Spec: corev1.ServiceSpec{
			Selector: selector(ident),
			Ports: []corev1.ServicePort{{
				Name:       defaults.ServicePortName,
				Port:       spec.ServicePort,
				TargetPort: intstr.FromInt32(spec.ContainerPort),
			}},
		},
	}
}

func (b *Builder) ingress(spec *descriptor.ServiceSpec, ident Identity) *networkingv1.Ingress {
	return &networkingv1.Ingress{
		TypeMeta:   typeMeta("networking.k8s.io/v1", "Ingress"),
		ObjectMeta: b.objectMeta(ident.Ingress, ident.Namespace, selector(ident)),
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				Host: ident.Host,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     "/",
							PathType: ptr.To(networkingv1.PathTypePrefix),
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: ident.Service,
									Port: networkingv1.ServiceBackendPort{Number: spec.ServicePort},
								},
							},
						}},
					},
				},
			}},
		},
	}
}

// Hosts returns the hosts claimed by ing.
func Hosts(ing *networkingv1.Ingress) []string {
	var hosts []string
	for _, r := range ing.Spec.Rules {
		if r.Host != "" {
			hosts = append(hosts, r.Host)
		}
	}
	return hosts
}
