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

package walker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/NVIDIA/autocd/pkg/descriptor"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/naming"
	"github.com/NVIDIA/autocd/pkg/reconciler"
	"github.com/NVIDIA/autocd/pkg/resources"
)

type call struct {
	op    string
	image string
	name  string
	keep  reconciler.Keep
}

type recorder struct {
	calls []call
	fail  string
}

func (r *recorder) Deploy(_ context.Context, spec *descriptor.ServiceSpec, keep reconciler.Keep) error {
	r.calls = append(r.calls, call{op: "deploy", image: spec.RegistryImagePath, name: spec.ServiceName, keep: keep})
	if spec.RegistryImagePath == r.fail {
		return errors.New("apply failed")
	}
	return nil
}

func (r *recorder) Remove(_ context.Context, spec *descriptor.ServiceSpec) error {
	r.calls = append(r.calls, call{op: "remove", image: spec.RegistryImagePath, name: spec.ServiceName})
	return nil
}

func (r *recorder) ops() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.op+" "+c.image)
	}
	return out
}

func testBuilder() *resources.Builder {
	return resources.NewBuilder(resources.Config{
		Namer:       naming.Namer{ProjectName: "shop", ProjectNamespace: "acme", BuildType: "dev"},
		ProjectName: "shop",
	})
}

func service(image string, deps ...descriptor.ServiceSpec) descriptor.ServiceSpec {
	s := descriptor.Default()
	s.RegistryImagePath = image
	s.OtherImages = deps
	return s
}

func TestDeploy_DependentsFirst(t *testing.T) {
	rec := &recorder{}
	w := New(rec, testBuilder(), ".example.com")

	root := service("reg/acme/shop:dev",
		service("reg/acme/db:1", service("reg/acme/backup:1")),
		service("reg/acme/cache:1"),
	)
	require.NoError(t, w.Deploy(context.Background(), &root))

	assert.Equal(t, []string{
		"deploy reg/acme/backup:1",
		"deploy reg/acme/db:1",
		"deploy reg/acme/cache:1",
		"deploy reg/acme/shop:dev",
	}, rec.ops())
}

func TestDeploy_NamesDependents(t *testing.T) {
	rec := &recorder{}
	b := testBuilder()
	w := New(rec, b, ".example.com")

	root := service("reg/acme/shop:dev", service("reg/acme/db:1"), service("reg/acme/cache:1"))
	root.OtherImages[1].ServiceName = "redis"
	require.NoError(t, w.Deploy(context.Background(), &root))

	n := b.Config().Namer
	assert.Equal(t, n.DependentService("reg/acme/shop", "reg/acme/db"), root.OtherImages[0].ServiceName)
	assert.Equal(t, "redis", root.OtherImages[1].ServiceName, "explicit names are kept")
	assert.Empty(t, root.ServiceName, "the root keeps its derived service name")
}

func TestDeploy_Subdomains(t *testing.T) {
	rec := &recorder{}
	b := testBuilder()
	w := New(rec, b, ".example.com")

	root := service("reg/acme/shop:dev", service("reg/acme/api:1"), service("reg/acme/db:1"))
	root.Subdomains = map[string]string{"dev": "shop.dev.example.com", "prod": "shop.example.com"}
	root.OtherImages[0].Subdomains = map[string]string{"dev": "api.dev.example.com"}
	require.NoError(t, w.Deploy(context.Background(), &root))

	assert.Equal(t, "shop.dev.example.com", root.Subdomain)
	assert.Equal(t, "api.dev.example.com", root.OtherImages[0].Subdomain)
	assert.Equal(t, b.Config().Namer.Subdomain("reg/acme/db", ".example.com"), root.OtherImages[1].Subdomain)
}

func TestDeploy_RetainedClaimsSharedAcrossTree(t *testing.T) {
	rec := &recorder{}
	b := testBuilder()
	w := New(rec, b, ".example.com")

	db := service("reg/acme/db:1")
	db.Volumes = []descriptor.VolumeSpec{{VolumeMount: "/data", VolumeSize: "1Gi", RetainVolume: true}}
	root := service("reg/acme/shop:dev", db)
	require.NoError(t, w.Deploy(context.Background(), &root))

	claim := b.Identify(&root.OtherImages[0]).Claims[0]
	require.Len(t, rec.calls, 2)
	for _, c := range rec.calls {
		assert.True(t, c.keep.Retained.Has(claim), "%s sees the retained claim", c.image)
	}
}

func TestKeep(t *testing.T) {
	b := testBuilder()
	w := New(&recorder{}, b, ".example.com")

	volume := func(retain bool) []descriptor.VolumeSpec {
		return []descriptor.VolumeSpec{{VolumeMount: "/data", VolumeSize: "1Gi", RetainVolume: retain}}
	}
	db := service("reg/acme/db:1")
	db.Volumes = volume(false)
	cache := service("reg/acme/cache:1")
	cache.Volumes = volume(true)
	gone := service("reg/acme/gone:1")
	gone.Volumes = volume(false)
	gone.ShouldHost = false
	root := service("reg/acme/shop:dev", db, cache, gone)

	keep := w.Keep(&root)

	dbClaim := b.Identify(&root.OtherImages[0]).Claims[0]
	cacheClaim := b.Identify(&root.OtherImages[1]).Claims[0]
	goneClaim := b.Identify(&root.OtherImages[2]).Claims[0]
	assert.True(t, keep.Claims.Has(dbClaim))
	assert.True(t, keep.Claims.Has(cacheClaim))
	assert.False(t, keep.Claims.Has(goneClaim), "claims of services being removed are not kept")
	assert.False(t, keep.Retained.Has(dbClaim), "only retained claims stay protected")
	assert.True(t, keep.Retained.Has(cacheClaim))
}

func TestDeploy_DependentClaimSurvivesRoot(t *testing.T) {
	ctx := context.Background()
	client := fake.NewClientset()
	b := testBuilder()
	engine := reconciler.NewEngine(client, b, reconciler.WithRetryDelay(time.Millisecond), reconciler.WithAttempts(2))
	w := New(engine, b, ".example.com")

	db := service("reg/acme/db:1")
	db.Volumes = []descriptor.VolumeSpec{{VolumeMount: "/data", VolumeSize: "1Gi"}}
	root := service("reg/acme/shop:dev", db)
	require.NoError(t, w.Deploy(ctx, &root))

	ident := b.Identify(&root.OtherImages[0])
	_, err := client.CoreV1().PersistentVolumeClaims(ident.Namespace).Get(ctx, ident.Claims[0], metav1.GetOptions{})
	require.NoError(t, err, "the root deploy must not clean up the dependent's claim")

	dep, err := client.AppsV1().Deployments(ident.Namespace).Get(ctx, ident.Workload, metav1.GetOptions{})
	require.NoError(t, err)
	var mounted []string
	for _, v := range dep.Spec.Template.Spec.Volumes {
		if v.PersistentVolumeClaim != nil {
			mounted = append(mounted, v.PersistentVolumeClaim.ClaimName)
		}
	}
	assert.Contains(t, mounted, ident.Claims[0])
}

func TestDeploy_InvalidTreeMutatesNothing(t *testing.T) {
	rec := &recorder{}
	w := New(rec, testBuilder(), ".example.com")

	bad := service("reg/acme/db:1")
	bad.Replicas = 2
	bad.Volumes = []descriptor.VolumeSpec{{VolumeMount: "/data", VolumeSize: "1Gi", RetainVolume: true}}
	root := service("reg/acme/shop:dev", service("reg/acme/cache:1"), bad)

	err := w.Deploy(context.Background(), &root)
	require.Error(t, err)
	assert.Equal(t, cderrors.ErrCodeInvalidConfig, cderrors.CodeOf(err))
	assert.Empty(t, rec.calls)
}

func TestDeploy_RootWithoutImage(t *testing.T) {
	rec := &recorder{}
	w := New(rec, testBuilder(), ".example.com")
	root := service("")

	err := w.Deploy(context.Background(), &root)
	require.Error(t, err)
	assert.Equal(t, cderrors.ErrCodeInvalidConfig, cderrors.CodeOf(err))
	assert.Empty(t, rec.calls)
}

func TestDeploy_StopsAtFirstFailure(t *testing.T) {
	rec := &recorder{fail: "reg/acme/db:1"}
	w := New(rec, testBuilder(), ".example.com")

	root := service("reg/acme/shop:dev", service("reg/acme/db:1"), service("reg/acme/cache:1"))
	require.Error(t, w.Deploy(context.Background(), &root))
	assert.Equal(t, []string{"deploy reg/acme/db:1"}, rec.ops())
}

func TestDeploy_NotHosted(t *testing.T) {
	rec := &recorder{}
	w := New(rec, testBuilder(), ".example.com")

	root := service("reg/acme/shop:dev", service("reg/acme/db:1"))
	root.ShouldHost = false
	require.NoError(t, w.Deploy(context.Background(), &root))

	assert.Equal(t, []string{"remove reg/acme/db:1", "remove reg/acme/shop:dev"}, rec.ops())
}

func TestDeploy_DependentNotHosted(t *testing.T) {
	rec := &recorder{}
	w := New(rec, testBuilder(), ".example.com")

	old := service("reg/acme/old:1", service("reg/acme/olddb:1"))
	old.ShouldHost = false
	root := service("reg/acme/shop:dev", old, service("reg/acme/db:1"))
	require.NoError(t, w.Deploy(context.Background(), &root))

	assert.Equal(t, []string{
		"remove reg/acme/olddb:1",
		"remove reg/acme/old:1",
		"deploy reg/acme/db:1",
		"deploy reg/acme/shop:dev",
	}, rec.ops())
}

func TestRemove_DependentsFirst(t *testing.T) {
	rec := &recorder{}
	b := testBuilder()
	w := New(rec, b, ".example.com")

	root := service("reg/acme/shop:dev", service("reg/acme/db:1", service("reg/acme/backup:1")))
	require.NoError(t, w.Remove(context.Background(), &root))

	assert.Equal(t, []string{
		"remove reg/acme/backup:1",
		"remove reg/acme/db:1",
		"remove reg/acme/shop:dev",
	}, rec.ops())
	assert.Equal(t, b.Config().Namer.DependentService("reg/acme/shop", "reg/acme/db"), rec.calls[1].name)
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name     string
		previous descriptor.ServiceSpec
		current  descriptor.ServiceSpec
		want     []string
	}{
		{
			name:     "dropped dependent removed",
			previous: service("reg/acme/shop:dev", service("reg/acme/a:1"), service("reg/acme/b:1")),
			current:  service("reg/acme/shop:dev", service("reg/acme/a:1")),
			want:     []string{"remove reg/acme/b:1"},
		},
		{
			name:     "dropped dependent removed with its subtree",
			previous: service("reg/acme/shop:dev", service("reg/acme/b:1", service("reg/acme/c:1"))),
			current:  service("reg/acme/shop:dev"),
			want:     []string{"remove reg/acme/c:1", "remove reg/acme/b:1"},
		},
		{
			name:     "nested dependent dropped",
			previous: service("reg/acme/shop:dev", service("reg/acme/a:1", service("reg/acme/c:1"))),
			current:  service("reg/acme/shop:dev", service("reg/acme/a:1")),
			want:     []string{"remove reg/acme/c:1"},
		},
		{
			name:     "dependent moved deeper is kept",
			previous: service("reg/acme/shop:dev", service("reg/acme/a:1"), service("reg/acme/c:1")),
			current:  service("reg/acme/shop:dev", service("reg/acme/a:1", service("reg/acme/c:1"))),
			want:     nil,
		},
		{
			name:     "new tag is a different dependent",
			previous: service("reg/acme/shop:dev", service("reg/acme/a:1")),
			current:  service("reg/acme/shop:dev", service("reg/acme/a:2")),
			want:     []string{"remove reg/acme/a:1"},
		},
		{
			name:     "unchanged",
			previous: service("reg/acme/shop:dev", service("reg/acme/a:1")),
			current:  service("reg/acme/shop:dev", service("reg/acme/a:1")),
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			w := New(rec, testBuilder(), ".example.com")

			require.NoError(t, w.Prune(context.Background(), &tt.previous, &tt.current))
			if tt.want == nil {
				assert.Empty(t, rec.calls)
				return
			}
			assert.Equal(t, tt.want, rec.ops())
		})
	}
}

func TestPrune_NoPrevious(t *testing.T) {
	rec := &recorder{}
	w := New(rec, testBuilder(), ".example.com")
	current := service("reg/acme/shop:dev")

	require.NoError(t, w.Prune(context.Background(), nil, &current))
	assert.Empty(t, rec.calls)
}

func TestRender(t *testing.T) {
	w := New(&recorder{}, testBuilder(), ".example.com")
	hidden := service("reg/acme/hidden:1")
	hidden.ShouldHost = false
	root := service("reg/acme/shop:dev", service("reg/acme/db:1"), hidden)

	got, err := w.Render(&root)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "reg/acme/db", got[0].Identity.Identifier)
	assert.Equal(t, "reg/acme/shop", got[1].Identity.Identifier)
	assert.NotNil(t, got[1].Ingress)
}

// Pruning a dependent against a real cluster state must leave the
// dependents that are still declared untouched.
func TestPrune_LeavesKeptDependentsUntouched(t *testing.T) {
	ctx := context.Background()
	client := fake.NewClientset()
	b := testBuilder()
	engine := reconciler.NewEngine(client, b, reconciler.WithRetryDelay(time.Millisecond), reconciler.WithAttempts(2))
	w := New(engine, b, ".example.com")

	previous := service("reg/acme/shop:dev", service("reg/acme/a:1"), service("reg/acme/b:1"))
	require.NoError(t, w.Deploy(ctx, &previous))
	client.ClearActions()

	current := service("reg/acme/shop:dev", service("reg/acme/a:1"))
	require.NoError(t, w.Prune(ctx, &previous, &current))

	a := b.Identify(&previous.OtherImages[0])
	bIdent := b.Identify(&previous.OtherImages[1])
	for _, action := range client.Actions() {
		assert.NotEqual(t, "create", action.GetVerb())
		if del, ok := action.(interface{ GetName() string }); ok && action.GetVerb() == "delete" {
			assert.NotEqual(t, a.Workload, del.GetName(), "kept dependent is not deleted")
		}
	}
	_, err := client.AppsV1().Deployments(a.Namespace).Get(ctx, a.Workload, metav1.GetOptions{})
	assert.NoError(t, err)
	_, err = client.AppsV1().Deployments(bIdent.Namespace).Get(ctx, bIdent.Workload, metav1.GetOptions{})
	assert.Error(t, err)
}

func TestDeploy_NotHostedCreatesNothing(t *testing.T) {
	client := fake.NewClientset()
	b := testBuilder()
	w := New(reconciler.NewEngine(client, b), b, ".example.com")

	root := service("reg/acme/shop:dev", service("reg/acme/db:1"))
	root.ShouldHost = false
	require.NoError(t, w.Deploy(context.Background(), &root))

	for _, action := range client.Actions() {
		assert.NotEqual(t, "create", action.GetVerb())
	}
}

func TestNamespace(t *testing.T) {
	w := New(&recorder{}, testBuilder(), "")
	assert.Equal(t, "acme-dev", w.Namespace())
}
