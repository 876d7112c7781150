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

package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/autocd/pkg/defaults"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

var (
	retainPatch  = policyPatch(corev1.PersistentVolumeReclaimRetain)
	deletePatch  = policyPatch(corev1.PersistentVolumeReclaimDelete)
	releasePatch = []byte(`{"spec":{"claimRef":null}}`)
)

func policyPatch(policy corev1.PersistentVolumeReclaimPolicy) []byte {
	return []byte(fmt.Sprintf(`{"spec":{"persistentVolumeReclaimPolicy":%q}}`, policy))
}

// Protector runs the retention protocol against the cluster.
type Protector struct {
	client  kubernetes.Interface
	timeout time.Duration
}

// NewProtector creates a Protector using client.
func NewProtector(client kubernetes.Interface) *Protector {
	return &Protector{client: client, timeout: defaults.K8sRequestTimeout}
}

// Protect sets reclaim policy Retain on every PV bound to one of the retained
// claims in namespace and pins the matching desired claim to it.
// It returns the names of the protected PVs. A failed patch is returned:
// deleting the claim of a PV still on Delete would destroy its data.
func (p *Protector) Protect(ctx context.Context, namespace string, retained []string, claims []*corev1.PersistentVolumeClaim) ([]string, error) {
	if len(retained) == 0 {
		return nil, nil
	}
	want := sets.New(retained...)

	pvs, err := p.list(ctx)
	if err != nil {
		slog.Warn("could not list persistent volumes for protection", "namespace", namespace, "error", err)
		return nil, nil
	}

	var protected []string
	for i := range pvs {
		pv := &pvs[i]
		ref := pv.Spec.ClaimRef
		if ref == nil || ref.Namespace != namespace || !want.Has(ref.Name) {
			continue
		}

		if err := p.patch(ctx, pv.Name, retainPatch); err != nil {
			return protected, cderrors.WrapWithContext(cderrors.ErrCodeReclaim,
				"could not protect persistent volume", err,
				map[string]any{"pv": pv.Name, "claim": ref.Name, "namespace": namespace})
		}

		for _, c := range claims {
			if c.Name == ref.Name {
				c.Spec.VolumeName = pv.Name
			}
		}
		protected = append(protected, pv.Name)
		slog.Info("protected persistent volume", "pv", pv.Name, "claim", ref.Name, "namespace", namespace)
	}
	return protected, nil
}

// Unprotect sets reclaim policy Delete on every PV bound to a claim in
// namespace whose name is not in keep. A failed patch is returned.
func (p *Protector) Unprotect(ctx context.Context, namespace string, keep sets.Set[string]) error {
	pvs, err := p.list(ctx)
	if err != nil {
		slog.Warn("could not list persistent volumes for unprotection", "namespace", namespace, "error", err)
		return nil
	}

	for i := range pvs {
		pv := &pvs[i]
		ref := pv.Spec.ClaimRef
		if ref == nil || ref.Namespace != namespace || keep.Has(ref.Name) {
			continue
		}
		if pv.Spec.PersistentVolumeReclaimPolicy == corev1.PersistentVolumeReclaimDelete {
			continue
		}
		if err := p.patch(ctx, pv.Name, deletePatch); err != nil {
			return cderrors.WrapWithContext(cderrors.ErrCodeReclaim,
				"could not unprotect persistent volume", err,
				map[string]any{"pv": pv.Name, "claim": ref.Name, "namespace": namespace})
		}
		slog.Info("unprotected persistent volume", "pv", pv.Name, "claim", ref.Name, "namespace", namespace)
	}
	return nil
}

// Reclaim removes the claimRef of every named PV so the recreated claim can
// bind it again. The first failure is returned.
func (p *Protector) Reclaim(ctx context.Context, pvs []string) error {
	for _, name := range pvs {
		if err := p.patch(ctx, name, releasePatch); err != nil {
			return cderrors.WrapWithContext(cderrors.ErrCodeReclaim,
				"could not release protected persistent volume", err,
				map[string]any{"pv": name})
		}
		slog.Info("reclaimed persistent volume", "pv", name)
	}
	return nil
}

func (p *Protector) list(ctx context.Context) ([]corev1.PersistentVolume, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	list, err := p.client.CoreV1().PersistentVolumes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (p *Protector) patch(ctx context.Context, name string, patch []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.client.CoreV1().PersistentVolumes().Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
	return err
}
