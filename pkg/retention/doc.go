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

// Package retention keeps the data of retained volumes across redeploys.
//
// A redeploy deletes and recreates a service's claims. Without intervention
// the bound PersistentVolume would be deleted with its claim, or stay
// Released and never bind again. The protocol runs in three steps:
//
//  1. Protect, before the claims are deleted: every PV bound to a retained
//     claim gets reclaim policy Retain, and the desired claim is pinned to
//     that PV through spec.volumeName.
//  2. Unprotect, before the claims are deleted: every other PV bound to a
//     claim in the namespace that nobody wants retained gets reclaim policy
//     Delete so it is garbage collected normally.
//  3. Reclaim, after the claims are recreated: the stale claimRef is removed
//     from each protected PV, making it Available for the pinned claim.
//
// Errors while scanning or patching in steps 1 and 2 are logged. A failed
// reclaim is returned as an error because the volume would stay unbindable.
package retention
