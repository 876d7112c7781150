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
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avast/retry-go"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

const beingDeleted = "being deleted"

type callFunc func(ctx context.Context) error

// create runs fn until it succeeds, the object turns out to exist, or a
// foreground delete of the previous object outlasts the retry budget.
func (e *Engine) create(ctx context.Context, kind, name string, fn callFunc) error {
	err := retry.Do(
		func() error { return e.call(ctx, fn) },
		retry.Attempts(e.attempts),
		retry.Delay(e.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(isBeingDeleted),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("previous object still being deleted, waiting",
				"kind", kind, "name", name, "attempt", n+1, "delay", e.retryDelay)
		}),
	)

	switch {
	case err == nil:
		slog.Info("created", "kind", kind, "name", name)
		return nil
	case ctx.Err() != nil:
		return cancelled(ctx, "creating "+kind)
	case isBeingDeleted(err):
		return cderrors.WrapWithContext(cderrors.ErrCodeConflict,
			"previous object is still being deleted", err,
			map[string]any{"kind": kind, "name": name, "attempts": e.attempts})
	case isAlreadyExists(err):
		slog.Info("already exists", "kind", kind, "name", name)
		return nil
	case isConflict(err):
		return cderrors.WrapWithContext(cderrors.ErrCodeConflict,
			"create conflicts with existing state", err,
			map[string]any{"kind": kind, "name": name})
	default:
		slog.Error("could not create object, skipping", "kind", kind, "name", name, "error", err)
		return nil
	}
}

// remove deletes one object with foreground propagation.
func (e *Engine) remove(ctx context.Context, kind, namespace, name string,
	fn func(ctx context.Context, name string, opts metav1.DeleteOptions) error) error {
	opts := metav1.DeleteOptions{PropagationPolicy: ptr.To(metav1.DeletePropagationForeground)}

	err := e.call(ctx, func(ctx context.Context) error { return fn(ctx, name, opts) })
	switch {
	case err == nil:
		slog.Info("deleted", "kind", kind, "namespace", namespace, "name", name)
	case apierrors.IsNotFound(err):
		slog.Debug("nothing to delete", "kind", kind, "namespace", namespace, "name", name)
	case ctx.Err() != nil:
		return cancelled(ctx, "deleting "+kind)
	case isUndecodable(err):
		slog.Debug("delete response could not be decoded, treating as deleted",
			"kind", kind, "namespace", namespace, "name", name, "error", err)
	default:
		slog.Warn("could not delete object, continuing",
			"kind", kind, "namespace", namespace, "name", name, "error", err)
	}
	return nil
}

func (e *Engine) deleteIngress(ctx context.Context, namespace, name string) error {
	return e.remove(ctx, "Ingress", namespace, name, e.client.NetworkingV1().Ingresses(namespace).Delete)
}

func (e *Engine) deleteService(ctx context.Context, namespace, name string) error {
	return e.remove(ctx, "Service", namespace, name, e.client.CoreV1().Services(namespace).Delete)
}

func (e *Engine) deleteDeployment(ctx context.Context, namespace, name string) error {
	return e.remove(ctx, "Deployment", namespace, name, e.client.AppsV1().Deployments(namespace).Delete)
}

func (e *Engine) deleteStatefulSet(ctx context.Context, namespace, name string) error {
	return e.remove(ctx, "StatefulSet", namespace, name, e.client.AppsV1().StatefulSets(namespace).Delete)
}

func (e *Engine) deleteClaim(ctx context.Context, namespace, name string) error {
	return e.remove(ctx, "PersistentVolumeClaim", namespace, name, e.client.CoreV1().PersistentVolumeClaims(namespace).Delete)
}

func (e *Engine) call(ctx context.Context, fn callFunc) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return fn(ctx)
}

func cancelled(ctx context.Context, op string) error {
	return cderrors.WrapWithContext(cderrors.ErrCodeTimeout, "pass cancelled", ctx.Err(),
		map[string]any{"operation": op})
}

// isBeingDeleted matches the 409 returned while an object of the same name
// is terminating. The API reports it as AlreadyExists, so check it first.
func isBeingDeleted(err error) bool {
	return err != nil && isConflictStatus(err) && strings.Contains(err.Error(), beingDeleted)
}

func isAlreadyExists(err error) bool {
	return apierrors.IsAlreadyExists(err) && !isBeingDeleted(err)
}

func isConflict(err error) bool {
	return isConflictStatus(err) && !apierrors.IsAlreadyExists(err)
}

func isConflictStatus(err error) bool {
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		return status.Status().Code == http.StatusConflict
	}
	return false
}

// isUndecodable reports whether err came from decoding a complete response
// body rather than from the API server. Truncated bodies are transport
// failures and do not count.
func isUndecodable(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return false
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return true
	case runtime.IsNotRegisteredError(err), runtime.IsMissingKind(err), runtime.IsMissingVersion(err):
		return true
	}
	return false
}
