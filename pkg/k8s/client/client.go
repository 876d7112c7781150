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

package client

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Interface lets callers accept the client-go fake clientset.
type Interface = kubernetes.Interface

const userAgent = "autocd"

// Options selects how the cluster is reached. See the package documentation
// for the order in which sources are considered.
type Options struct {
	// Kubeconfig is a kubeconfig path. Empty triggers discovery.
	Kubeconfig string

	// KubeconfigData is a complete kubeconfig document.
	KubeconfigData []byte

	// Host is the API server URL used together with BearerToken.
	Host string

	// BearerToken authenticates requests against Host.
	BearerToken string

	// CAFile verifies the API server certificate of Host.
	CAFile string
}

// NewClient creates a Kubernetes client from opts.
func NewClient(opts Options) (Interface, *rest.Config, error) {
	config, err := BuildRESTConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return client, config, nil
}

// BuildRESTConfig resolves the rest configuration described by opts.
func BuildRESTConfig(opts Options) (*rest.Config, error) {
	var config *rest.Config
	var err error

	switch {
	case len(opts.KubeconfigData) > 0:
		config, err = clientcmd.RESTConfigFromKubeConfig(opts.KubeconfigData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kubeconfig data: %w", err)
		}
	case opts.Host != "" && opts.BearerToken != "":
		config = &rest.Config{
			Host:        opts.Host,
			BearerToken: opts.BearerToken,
			TLSClientConfig: rest.TLSClientConfig{
				CAFile: opts.CAFile,
			},
		}
		if opts.CAFile != "" {
			if _, err = os.Stat(opts.CAFile); err != nil {
				return nil, fmt.Errorf("failed to read CA file %s: %w", opts.CAFile, err)
			}
		}
	default:
		config, err = discoverConfig(opts.Kubeconfig)
		if err != nil {
			return nil, err
		}
	}

	config.UserAgent = userAgent
	return config, nil
}

// kubeconfigPath returns the first of explicit, $KUBECONFIG and
// ~/.kube/config that is set, or "" to fall back to in-cluster config.
func kubeconfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}

func discoverConfig(kubeconfig string) (*rest.Config, error) {
	path := kubeconfigPath(kubeconfig)
	if path == "" {
		// BuildConfigFromFlags would warn about missing flags before doing the same.
		config, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("no kubeconfig found and not running in a cluster: %w", err)
		}
		return config, nil
	}

	config, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig %s: %w", path, err)
	}
	return config, nil
}
