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

/*
Package reconciler applies the desired objects of one service to the cluster.

A pass is delete-then-create: the ingress and service are deleted first, then
the workload of either shape and its claims, and everything is created again in
dependency order. Deletes use foreground propagation so a create can only
succeed once the old object is gone; creates racing a delete that is still
propagating are retried with a fixed delay.

	engine := reconciler.NewEngine(client, builder)
	if err := engine.Deploy(ctx, spec, keep); err != nil {
	    return err
	}

Error classification:

  - NotFound on delete, AlreadyExists on create: success
  - an undecodable delete response: success
  - "object is being deleted" on create: retried, then ErrCodeConflict
  - any other 409: ErrCodeConflict
  - a cancelled pass: ErrCodeTimeout
  - anything else: logged, the object is skipped and the pass continues

Retained volumes go through the retention protocol (see package retention)
around the claim deletes, so the recreated claims bind the same volumes.
*/
package reconciler
