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

package serializer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/NVIDIA/autocd/pkg/defaults"
	cderrors "github.com/NVIDIA/autocd/pkg/errors"
)

// HTTPReaderUserAgent is sent with every request.
const HTTPReaderUserAgent = "autocd/1.0"

// maxDocumentSize bounds remote descriptors.
const maxDocumentSize = 4 << 20

// HTTPReaderOption configures an HTTPReader.
type HTTPReaderOption func(*HTTPReader)

// HTTPReader fetches documents over HTTP(S).
type HTTPReader struct {
	userAgent string
	client    *http.Client
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) HTTPReaderOption {
	return func(r *HTTPReader) {
		if userAgent != "" {
			r.userAgent = userAgent
		}
	}
}

// WithTotalTimeout bounds each request including the body read.
func WithTotalTimeout(timeout time.Duration) HTTPReaderOption {
	return func(r *HTTPReader) {
		if timeout > 0 {
			r.client.Timeout = timeout
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) HTTPReaderOption {
	return func(r *HTTPReader) {
		if tr, ok := r.client.Transport.(*http.Transport); ok {
			tr.TLSClientConfig.InsecureSkipVerify = skip //nolint:gosec
		}
	}
}

// WithClient replaces the HTTP client. Options applied after it act on the new client.
func WithClient(client *http.Client) HTTPReaderOption {
	return func(r *HTTPReader) {
		if client != nil {
			r.client = client
		}
	}
}

// NewHTTPReader creates an HTTPReader with the default timeouts.
func NewHTTPReader(options ...HTTPReaderOption) *HTTPReader {
	r := &HTTPReader{
		userAgent: HTTPReaderUserAgent,
		client: &http.Client{
			Timeout:   defaults.HTTPClientTimeout,
			Transport: newDefaultHTTPTransport(),
		},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func newDefaultHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// ReadWithContext fetches url and returns its body.
// A 404 response yields an error with code NOT_FOUND.
func (r *HTTPReader) ReadWithContext(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, "url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeInvalidRequest, fmt.Sprintf("failed to create request for %s", url), err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cderrors.Wrap(cderrors.ErrCodeTimeout, fmt.Sprintf("request for %s cancelled", url), err)
		}
		return nil, cderrors.Wrap(cderrors.ErrCodeUnavailable, fmt.Sprintf("http request failed for %s", url), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, cderrors.New(cderrors.ErrCodeNotFound, fmt.Sprintf("%s not found", url))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, cderrors.New(cderrors.ErrCodeUnauthorized, fmt.Sprintf("access to %s denied: %s", url, resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, cderrors.New(cderrors.ErrCodeUnavailable, fmt.Sprintf("failed to fetch %s: status %s", url, resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, cderrors.Wrap(cderrors.ErrCodeUnavailable, fmt.Sprintf("failed to read body of %s", url), err)
	}
	if len(data) > maxDocumentSize {
		return nil, cderrors.New(cderrors.ErrCodeInvalidRequest, fmt.Sprintf("%s exceeds %d bytes", url, maxDocumentSize))
	}
	return data, nil
}
