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

package reconciler

import (
	"context"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/autocd/pkg/defaults"
	"github.com/NVIDIA/autocd/pkg/descriptor"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/resources"
	"github.com/NVIDIA/autocd/pkg/retention"
)

// Engine reconciles services against one cluster.
type Engine struct {
	client     kubernetes.Interface
	builder    *resources.Builder
	protector  *retention.Protector
	retryDelay time.Duration
	attempts   uint
	timeout    time.Duration
}

// Option is a functional option for configuring Engine instances.
type Option func(*Engine)

// WithRetryDelay sets the wait between create attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retryDelay = d
		}
	}
}

// WithAttempts sets the total number of create attempts.
func WithAttempts(n uint) Option {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithRequestTimeout bounds every single API call.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates an Engine building objects with builder.
func NewEngine(client kubernetes.Interface, builder *resources.Builder, opts ...Option) *Engine {
	e := &Engine{
		client:     client,
		builder:    builder,
		protector:  retention.NewProtector(client),
		retryDelay: defaults.ConflictRetryDelay,
		attempts:   defaults.ConflictRetryAttempts,
		timeout:    defaults.K8sRequestTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Builder returns the builder desired state is derived with.
func (e *Engine) Builder() *resources.Builder {
	return e.builder
}

// Keep names the claims of the rest of the service tree, which shares the
// namespace with every service being deployed.
type Keep struct {
	// Retained claims stay protected by Unprotect.
	Retained sets.Set[string]
	// Claims are never removed by orphan claim cleanup.
	Claims sets.Set[string]
}

// Deploy makes the cluster match spec without touching the claims in keep.
func (e *Engine) Deploy(ctx context.Context, spec *descriptor.ServiceSpec, keep Keep) error {
	d, err := e.builder.Build(spec)
	if err != nil {
		return err
	}
	ident := d.Identity

	log := slog.With("namespace", ident.Namespace, "workload", ident.Workload, "kind", d.Kind())
	log.Info("deploying service", "image", spec.RegistryImagePath, "host", ident.Host)

	if d.Ingress != nil {
		if err := e.checkHosts(ctx, ident.Namespace, resources.Hosts(d.Ingress)); err != nil {
			return err
		}
	}

	if err := e.deleteIngress(ctx, ident.Namespace, ident.Ingress); err != nil {
		return err
	}
	if err := e.deleteService(ctx, ident.Namespace, ident.Service); err != nil {
		return err
	}

	if ident.Stateful {
		err = e.deployStateful(ctx, d)
	} else {
		err = e.deployStateless(ctx, d, keep)
	}
	if err != nil {
		return err
	}

	log.Info("service deployed")
	return nil
}

func (e *Engine) deployStateless(ctx context.Context, d *resources.Desired, keep Keep) error {
	ident := d.Identity
	ns := ident.Namespace

	protected, err := e.protector.Protect(ctx, ns, ident.Retained, d.Claims)
	if err != nil {
		return err
	}
	if err := e.protector.Unprotect(ctx, ns, keep.Retained.Clone().Insert(ident.Retained...)); err != nil {
		return err
	}

	if err := e.deleteStatefulSet(ctx, ns, ident.Workload); err != nil {
		return err
	}
	if err := e.deleteDeployment(ctx, ns, ident.Workload); err != nil {
		return err
	}
	desired := sets.New[string]()
	for _, c := range d.Claims {
		desired.Insert(c.Name)
		if err := e.deleteClaim(ctx, ns, c.Name); err != nil {
			return err
		}
	}
	if err := e.cleanupClaims(ctx, ns, desired.Union(keep.Retained).Union(keep.Claims)); err != nil {
		return err
	}

	if err := e.createCommon(ctx, d); err != nil {
		return err
	}
	for _, c := range d.Claims {
		if err := e.create(ctx, "PersistentVolumeClaim", c.Name, func(ctx context.Context) error {
			_, err := e.client.CoreV1().PersistentVolumeClaims(ns).Create(ctx, c, metav1.CreateOptions{})
			return err
		}); err != nil {
			return err
		}
	}
	if err := e.create(ctx, "Deployment", ident.Workload, func(ctx context.Context) error {
		_, err := e.client.AppsV1().Deployments(ns).Create(ctx, d.Deployment, metav1.CreateOptions{})
		return err
	}); err != nil {
		return err
	}
	if err := e.createService(ctx, d); err != nil {
		return err
	}

	if err := e.protector.Reclaim(ctx, protected); err != nil {
		return err
	}
	return e.createIngress(ctx, d)
}

func (e *Engine) deployStateful(ctx context.Context, d *resources.Desired) error {
	ident := d.Identity
	ns := ident.Namespace

	if err := e.deleteDeployment(ctx, ns, ident.Workload); err != nil {
		return err
	}
	for _, name := range ident.Claims {
		if err := e.deleteClaim(ctx, ns, name); err != nil {
			return err
		}
	}
	if err := e.deleteStatefulSet(ctx, ns, ident.Workload); err != nil {
		return err
	}

	if err := e.createCommon(ctx, d); err != nil {
		return err
	}
	if err := e.create(ctx, "StatefulSet", ident.Workload, func(ctx context.Context) error {
		_, err := e.client.AppsV1().StatefulSets(ns).Create(ctx, d.StatefulSet, metav1.CreateOptions{})
		return err
	}); err != nil {
		return err
	}
	if err := e.createService(ctx, d); err != nil {
		return err
	}
	return e.createIngress(ctx, d)
}

// Remove deletes every object of spec. It never creates anything and leaves
// volume retention state alone.
func (e *Engine) Remove(ctx context.Context, spec *descriptor.ServiceSpec) error {
	ident := e.builder.Identify(spec)
	ns := ident.Namespace
	slog.Info("removing service", "namespace", ns, "workload", ident.Workload, "image", spec.RegistryImagePath)

	steps := []func() error{
		func() error { return e.deleteIngress(ctx, ns, ident.Ingress) },
		func() error { return e.deleteService(ctx, ns, ident.Service) },
		func() error { return e.deleteDeployment(ctx, ns, ident.Workload) },
		func() error { return e.deleteStatefulSet(ctx, ns, ident.Workload) },
	}
	for _, name := range ident.Claims {
		steps = append(steps, func() error { return e.deleteClaim(ctx, ns, name) })
	}
	steps = append(steps, func() error { return e.deleteLabelledClaims(ctx, ns, ident.AppLabel) })

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// createCommon creates the namespace and the pull secret.
func (e *Engine) createCommon(ctx context.Context, d *resources.Desired) error {
	if err := e.create(ctx, "Namespace", d.Namespace.Name, func(ctx context.Context) error {
		_, err := e.client.CoreV1().Namespaces().Create(ctx, d.Namespace, metav1.CreateOptions{})
		return err
	}); err != nil {
		return err
	}
	if d.Secret == nil {
		return nil
	}
	return e.create(ctx, "Secret", d.Secret.Name, func(ctx context.Context) error {
		secrets := e.client.CoreV1().Secrets(d.Secret.Namespace)
		_, err := secrets.Create(ctx, d.Secret, metav1.CreateOptions{})
		if isAlreadyExists(err) {
			// credentials rotate between runs
			_, err = secrets.Update(ctx, d.Secret, metav1.UpdateOptions{})
		}
		return err
	})
}

func (e *Engine) createService(ctx context.Context, d *resources.Desired) error {
	return e.create(ctx, "Service", d.Service.Name, func(ctx context.Context) error {
		_, err := e.client.CoreV1().Services(d.Service.Namespace).Create(ctx, d.Service, metav1.CreateOptions{})
		return err
	})
}

func (e *Engine) createIngress(ctx context.Context, d *resources.Desired) error {
	if d.Ingress == nil {
		return nil
	}
	return e.create(ctx, "Ingress", d.Ingress.Name, func(ctx context.Context) error {
		_, err := e.client.NetworkingV1().Ingresses(d.Ingress.Namespace).Create(ctx, d.Ingress, metav1.CreateOptions{})
		return err
	})
}

// checkHosts fails when another namespace already routes one of hosts.
func (e *Engine) checkHosts(ctx context.Context, namespace string, hosts []string) error {
	if len(hosts) == 0 {
		return nil
	}
	want := sets.New(hosts...)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	list, err := e.client.NetworkingV1().Ingresses(metav1.NamespaceAll).List(callCtx, metav1.ListOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, "listing ingresses")
		}
		slog.Warn("could not list ingresses for host collision check", "namespace", namespace, "error", err)
		return nil
	}

	for i := range list.Items {
		ing := &list.Items[i]
		if ing.Namespace == namespace {
			continue
		}
		for _, h := range resources.Hosts(ing) {
			if want.Has(h) {
				return cderrors.NewWithContext(cderrors.ErrCodeConflict,
					"ingress host is already used by another namespace",
					map[string]any{"host": h, "namespace": ing.Namespace, "ingress": ing.Name})
			}
		}
	}
	return nil
}

// cleanupClaims deletes managed claims in namespace that no pod mounts and
// that are not in keep.
func (e *Engine) cleanupClaims(ctx context.Context, namespace string, keep sets.Set[string]) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	pods, err := e.client.CoreV1().Pods(namespace).List(callCtx, metav1.ListOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, "listing pods")
		}
		slog.Warn("could not list pods for claim cleanup", "namespace", namespace, "error", err)
		return nil
	}
	mounted := mountedClaims(pods.Items)

	claims, err := e.client.CoreV1().PersistentVolumeClaims(namespace).List(callCtx, metav1.ListOptions{
		LabelSelector: resources.LabelManagedBy + "=" + resources.ManagedBy,
	})
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, "listing claims")
		}
		slog.Warn("could not list claims for cleanup", "namespace", namespace, "error", err)
		return nil
	}

	for _, c := range claims.Items {
		if mounted.Has(c.Name) || keep.Has(c.Name) {
			continue
		}
		slog.Info("deleting orphaned claim", "namespace", namespace, "claim", c.Name)
		if err := e.deleteClaim(ctx, namespace, c.Name); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) deleteLabelledClaims(ctx context.Context, namespace, appLabel string) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	claims, err := e.client.CoreV1().PersistentVolumeClaims(namespace).List(callCtx, metav1.ListOptions{
		LabelSelector: resources.LabelApp + "=" + appLabel,
	})
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx, "listing claims")
		}
		slog.Warn("could not list claims for removal", "namespace", namespace, "error", err)
		return nil
	}
	for _, c := range claims.Items {
		if err := e.deleteClaim(ctx, namespace, c.Name); err != nil {
			return err
		}
	}
	return nil
}

func mountedClaims(pods []corev1.Pod) sets.Set[string] {
	mounted := sets.New[string]()
	for _, p := range pods {
		for _, v := range p.Spec.Volumes {
			if v.PersistentVolumeClaim != nil {
				mounted.Insert(v.PersistentVolumeClaim.ClaimName)
			}
		}
	}
	return mounted
}
