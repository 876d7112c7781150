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
Package deployer drives one deployment pass from descriptor to cluster.

A pass runs these steps in order and stops at the first fatal error:

 1. Load the current descriptor (defaults when the location does not exist)
    and the previous one (no pruning when it does not exist).
 2. Validate the current tree. Nothing is built or mutated when it is invalid.
 3. Set up the root image. When the descriptor names none, the project in
    the working directory is built and pushed as
    registry/namespace/project:buildType. A root that is not hosted only
    gets the tag so its objects can be found.
 4. Single-page apps keep nginx on port 80 unless another port was chosen.
 5. Prune dependents of the previous descriptor missing from the current one.
 6. Deploy the tree, dependents first.
 7. Record the applied descriptor when a record location is set, producing
    the previous descriptor of the next pass.

Usage:

	d := deployer.New(env, client, builder, deployer.WithRunID(runID))
	spec, err := d.Deploy(ctx, deployer.Options{ConfigPath: "autocd.json"})
*/
package deployer
