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

package defaults

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// K8s timeouts
		{"K8sRequestTimeout", K8sRequestTimeout, 5 * time.Second, 60 * time.Second},
		{"K8sPassTimeout", K8sPassTimeout, 1 * time.Minute, 60 * time.Minute},
		{"ConfigMapWriteTimeout", ConfigMapWriteTimeout, 5 * time.Second, 60 * time.Second},

		// Conflict retry
		{"ConflictRetryDelay", ConflictRetryDelay, 1 * time.Second, 30 * time.Second},

		// Image timeouts
		{"ImageBuildTimeout", ImageBuildTimeout, 1 * time.Minute, 60 * time.Minute},
		{"ImagePushTimeout", ImagePushTimeout, 1 * time.Minute, 30 * time.Minute},
		{"ArtifactPushTimeout", ArtifactPushTimeout, 10 * time.Second, 10 * time.Minute},

		// HTTP client timeouts
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestConflictRetryWindow(t *testing.T) {
	window := time.Duration(ConflictRetryAttempts) * ConflictRetryDelay
	grace := time.Duration(TerminationGracePeriod) * time.Second
	if window <= grace {
		t.Errorf("conflict retry window (%v) should outlast the termination grace period (%v)", window, grace)
	}
	if window >= K8sPassTimeout {
		t.Errorf("conflict retry window (%v) should be less than K8sPassTimeout (%v)", window, K8sPassTimeout)
	}
	if ConflictRetryAttempts < 1 {
		t.Errorf("ConflictRetryAttempts (%d) must allow at least one attempt", ConflictRetryAttempts)
	}
}

func TestHTTPClientTimeoutRelationships(t *testing.T) {
	if HTTPConnectTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPConnectTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPConnectTimeout, HTTPClientTimeout)
	}
	if HTTPTLSHandshakeTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPTLSHandshakeTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPTLSHandshakeTimeout, HTTPClientTimeout)
	}
}

func TestImagePushShorterThanBuild(t *testing.T) {
	if ImagePushTimeout > ImageBuildTimeout {
		t.Errorf("ImagePushTimeout (%v) should not exceed ImageBuildTimeout (%v)",
			ImagePushTimeout, ImageBuildTimeout)
	}
}

func TestDescriptorDefaults(t *testing.T) {
	if Replicas < 1 {
		t.Errorf("Replicas default (%d) must be at least 1", Replicas)
	}
	if ContainerPort == SPAContainerPort {
		t.Error("SPA port override must differ from the container port default")
	}
	if BuildType == "" {
		t.Error("BuildType default must not be empty")
	}
}
