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

package deployer

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/autocd/pkg/descriptor"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/serializer"
)

// loadCurrent reads the descriptor at location, falling back to the defaults
// when it does not exist.
func (d *Deployer) loadCurrent(ctx context.Context, location string) (*descriptor.ServiceSpec, error) {
	spec, err := serializer.FromFile[descriptor.ServiceSpec](ctx, location, d.sources)
	if err == nil {
		slog.Info("descriptor loaded", "location", location)
		return spec, nil
	}
	if cderrors.HasCode(err, cderrors.ErrCodeNotFound) {
		slog.Info("no descriptor found, using defaults", "location", location)
		def := descriptor.Default()
		return &def, nil
	}
	return nil, err
}

// loadPrevious reads the previous descriptor. A missing or undecodable
// one disables pruning.
func (d *Deployer) loadPrevious(ctx context.Context, location string) (*descriptor.ServiceSpec, error) {
	spec, err := serializer.FromFile[descriptor.ServiceSpec](ctx, location, d.sources)
	switch {
	case err == nil:
		return spec, nil
	case cderrors.HasCode(err, cderrors.ErrCodeNotFound):
		slog.Debug("no previous descriptor, skipping pruning", "location", location)
		return nil, nil
	case cderrors.HasCode(err, cderrors.ErrCodeInvalidConfig):
		slog.Warn("previous descriptor is unreadable, skipping pruning", "location", location, "error", err)
		return nil, nil
	default:
		return nil, err
	}
}
