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
Package image builds the container image of the project being deployed and
pushes it to the configured registry.

A Dockerfile in the project directory is used as is. Without one the project
type is detected from its build files and a Dockerfile is generated from an
embedded template:

  - package.json depending on a single-page app framework: static build served by nginx
  - go.mod: static Go binary on distroless
  - pom.xml: Maven jar on a JRE
  - package.json otherwise: Node service started with npm start

Images are tagged registry/namespace/project:buildType. Without a configured
registry the image is built for the local daemon and not pushed.
*/
package image
