// Copyright © 2024 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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

package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecryptotoken/deployctl/internal/log"
)

var (
	requestTimeout = -1
	retries        = 30
	retryDelay     = 1 * time.Second
)

// SetRequestTimeout bounds each request, including reading the response.
// Zero or less means no limit beyond the caller's context.
func SetRequestTimeout(customRequestTimeoutSecs int) {
	requestTimeout = customRequestTimeoutSecs
}

func SetRetryPolicy(maxRetries int, delay time.Duration) {
	retries = maxRetries
	retryDelay = delay
}

// RequestWithRetry repeats Request until it succeeds, the retries are used
// up or ctx is done. Retries are only logged in verbose mode.
func RequestWithRetry(ctx context.Context, method, endpoint string, body, result interface{}) (err error) {
	l := log.LoggerFromContext(ctx)
	verbose := log.VerbosityFromContext(ctx)
	remaining := retries
	for {
		if err = Request(ctx, method, endpoint, body, result); err == nil {
			return nil
		}
		if remaining <= 0 {
			return err
		}
		remaining--
		if verbose {
			l.Debug(fmt.Sprintf("%s - retrying request...", err))
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(retryDelay):
		}
	}
}

// Request sends body as a form when it is url.Values and as JSON otherwise,
// decoding a JSON response into result.
func Request(ctx context.Context, method, endpoint string, body, result interface{}) (err error) {
	var bodyReader io.Reader
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case url.Values:
		bodyReader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		requestBody, err := json.Marshal(b)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(requestBody)
	}

	if requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(requestTimeout)*time.Second)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var responseBytes []byte
		if resp.StatusCode != http.StatusNoContent {
			responseBytes, _ = io.ReadAll(resp.Body)
		}
		return fmt.Errorf("%s [%d] %s", endpoint, resp.StatusCode, responseBytes)
	}

	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(&result)
}
