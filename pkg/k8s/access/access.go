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

// Package access verifies that the cluster identity can perform every call a
// deployment pass makes, using SelfSubjectAccessReviews.
package access

import (
	"context"
	"fmt"
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

// Requirement is one verb on one resource. An empty Namespace checks
// cluster scope.
type Requirement struct {
	Group     string
	Resource  string
	Verb      string
	Namespace string
}

func (r Requirement) String() string {
	resource := r.Resource
	if r.Group != "" {
		resource += "." + r.Group
	}
	scope := "cluster-scoped"
	if r.Namespace != "" {
		scope = fmt.Sprintf("namespace %q", r.Namespace)
	}
	return fmt.Sprintf("%s %s (%s)", r.Verb, resource, scope)
}

// Check is the outcome of one requirement.
type Check struct {
	Requirement
	Allowed bool
	Reason  string
}

// DeployRequirements lists the calls a pass makes against namespace.
// Ingress hosts are checked across all namespaces, and persistent volumes
// are cluster scoped.
func DeployRequirements(namespace string) []Requirement {
	ns := func(group, resource string, verbs ...string) []Requirement {
		out := make([]Requirement, 0, len(verbs))
		for _, v := range verbs {
			out = append(out, Requirement{Group: group, Resource: resource, Verb: v, Namespace: namespace})
		}
		return out
	}

	var reqs []Requirement
	reqs = append(reqs, Requirement{Resource: "namespaces", Verb: "create"})
	reqs = append(reqs, ns("", "secrets", "create", "update")...)
	reqs = append(reqs, ns("", "services", "create", "delete")...)
	reqs = append(reqs, ns("", "persistentvolumeclaims", "create", "delete", "list")...)
	reqs = append(reqs, ns("", "pods", "list")...)
	reqs = append(reqs, ns("apps", "deployments", "create", "delete")...)
	reqs = append(reqs, ns("apps", "statefulsets", "create", "delete")...)
	reqs = append(reqs, ns("networking.k8s.io", "ingresses", "create", "delete")...)
	reqs = append(reqs,
		Requirement{Group: "networking.k8s.io", Resource: "ingresses", Verb: "list"},
		Requirement{Resource: "persistentvolumes", Verb: "list"},
		Requirement{Resource: "persistentvolumes", Verb: "patch"},
	)
	return reqs
}

// CheckPermissions reviews every requirement and returns all results. The
// error carries code UNAUTHORIZED and lists each denied requirement.
func CheckPermissions(ctx context.Context, client kubernetes.Interface, reqs []Requirement) ([]Check, error) {
	checks := make([]Check, 0, len(reqs))
	var missing []string

	for _, req := range reqs {
		review := &authv1.SelfSubjectAccessReview{
			Spec: authv1.SelfSubjectAccessReviewSpec{
				ResourceAttributes: &authv1.ResourceAttributes{
					Group:     req.Group,
					Resource:  req.Resource,
					Verb:      req.Verb,
					Namespace: req.Namespace,
				},
			},
		}

		result, err := client.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
		if err != nil {
			return checks, cderrors.Wrap(cderrors.ErrCodeClusterAPI,
				fmt.Sprintf("failed to check permission to %s", req), err)
		}

		check := Check{Requirement: req, Allowed: result.Status.Allowed, Reason: result.Status.Reason}
		checks = append(checks, check)
		if !check.Allowed {
			missing = append(missing, req.String())
		}
	}

	if len(missing) > 0 {
		return checks, cderrors.NewWithContext(cderrors.ErrCodeUnauthorized,
			"missing required permissions:\n  - "+strings.Join(missing, "\n  - "),
			map[string]any{"missing": len(missing)})
	}
	return checks, nil
}
