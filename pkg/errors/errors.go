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

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure for callers and logs.
type ErrorCode string

// Input and transport failures. None of these mutate the cluster.
const (
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeTimeout        ErrorCode = "TIMEOUT"
	ErrCodeInternal       ErrorCode = "INTERNAL"
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeUnavailable    ErrorCode = "SERVICE_UNAVAILABLE"

	// ErrCodeInvalidConfig marks a descriptor rejected by validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Reconcile failures. The cluster may be partially updated.
const (
	// ErrCodeConflict is a conflict retrying cannot fix, such as an
	// ingress host owned by another namespace.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeReclaim means a retained volume could not be bound to its new claim.
	ErrCodeReclaim ErrorCode = "RECLAIM"

	ErrCodeClusterAPI ErrorCode = "CLUSTER_API"
)

// StructuredError is an error with a code, an optional cause and
// key/value context for logging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

func (e *StructuredError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Cause == nil {
		return msg
	}
	return msg + ": " + e.Cause.Error()
}

func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New returns an error without a cause.
func New(code ErrorCode, message string) *StructuredError {
	return WrapWithContext(code, message, nil, nil)
}

// NewWithContext returns an error without a cause carrying context.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return WrapWithContext(code, message, nil, context)
}

// Wrap attaches code and message to cause.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return WrapWithContext(code, message, cause, nil)
}

// WrapWithContext attaches code, message and context to cause.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: context}
}

// CodeOf returns the code of the outermost StructuredError in err,
// or "" when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// HasCode reports whether any StructuredError in err carries code.
func HasCode(err error, code ErrorCode) bool {
	var se *StructuredError
	for errors.As(err, &se) {
		if se.Code == code {
			return true
		}
		err = se.Cause
	}
	return false
}
