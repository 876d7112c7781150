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

// Package errors defines the coded errors returned across a deployment pass.
//
// The code tells the caller which phase failed and whether the cluster may
// have been touched: INVALID_CONFIG is always raised before any mutation,
// while CLUSTER_API, CONFLICT and RECLAIM come from the reconcile phase.
//
//	return errors.WrapWithContext(errors.ErrCodeConflict,
//	    "ingress host already claimed", err,
//	    map[string]any{"host": host, "namespace": owner})
//
// HasCode walks nested StructuredErrors, so a wrapper added by an outer
// layer does not hide the code of the failure underneath.
package errors
