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

package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ecryptotoken/deployctl/internal/core"
	"github.com/ecryptotoken/deployctl/internal/log"
)

var compilerVersionRegex = regexp.MustCompile(`^v?(\d+\.\d+\.\d+\+commit\.[0-9a-f]+)`)

var (
	ErrAlreadyVerified    = errors.New("contract source code already verified")
	ErrVerificationFailed = errors.New("verification failed")
)

const (
	statusPending       = "Pending in queue"
	statusPass          = "Pass - Verified"
	statusAlreadyPassed = "Already Verified"
)

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Client talks to an Etherscan-compatible contract verification API, such
// as BscScan.
type Client struct {
	apiURL       string
	apiKey       string
	PollInterval time.Duration
}

func NewClient(apiURL, apiKey string) (*Client, error) {
	if apiURL == "" {
		return nil, errors.New("block explorer API url is not set")
	}
	if apiKey == "" {
		return nil, errors.New("block explorer API key is not set")
	}
	return &Client{apiURL: apiURL, apiKey: apiKey, PollInterval: 5 * time.Second}, nil
}

type VerifyRequest struct {
	Address              string
	ContractName         string // <sourceName>:<contractName>
	CompilerVersion      string // long solc version, e.g. 0.8.20+commit.a1b79de6
	StandardJSONInput    string
	ConstructorArguments string // ABI encoded, hex
}

// VerifySource submits the sources for verification and returns the GUID
// used to poll for the outcome.
func (c *Client) VerifySource(ctx context.Context, req *VerifyRequest) (string, error) {
	form := url.Values{
		"apikey":                {c.apiKey},
		"module":                {"contract"},
		"action":                {"verifysourcecode"},
		"contractaddress":       {req.Address},
		"sourceCode":            {req.StandardJSONInput},
		"codeformat":            {"solidity-standard-json-input"},
		"contractname":          {req.ContractName},
		"compilerversion":       {compilerVersion(req.CompilerVersion)},
		"constructorArguements": {strings.TrimPrefix(req.ConstructorArguments, "0x")},
	}
	var resp *apiResponse
	if err := core.Request(ctx, "POST", c.apiURL, form, &resp); err != nil {
		return "", err
	}
	if resp.Status != "1" {
		if strings.Contains(strings.ToLower(resp.Result), "already verified") {
			return "", ErrAlreadyVerified
		}
		return "", fmt.Errorf("%w: %s: %s", ErrVerificationFailed, resp.Message, resp.Result)
	}
	return resp.Result, nil
}

// CheckStatus returns the explorer's status text for a submission, and
// whether that status is final.
func (c *Client) CheckStatus(ctx context.Context, guid string) (status string, done bool, err error) {
	query := url.Values{
		"apikey": {c.apiKey},
		"module": {"contract"},
		"action": {"checkverifystatus"},
		"guid":   {guid},
	}
	var resp *apiResponse
	if err := core.RequestWithRetry(ctx, "GET", c.apiURL+"?"+query.Encode(), nil, &resp); err != nil {
		return "", false, err
	}
	switch {
	case resp.Result == statusPending:
		return resp.Result, false, nil
	case resp.Result == statusPass, resp.Result == statusAlreadyPassed:
		return resp.Result, true, nil
	default:
		return resp.Result, true, fmt.Errorf("%w: %s", ErrVerificationFailed, resp.Result)
	}
}

func (c *Client) WaitForVerification(ctx context.Context, guid string) error {
	l := log.LoggerFromContext(ctx)
	for {
		status, done, err := c.CheckStatus(ctx, guid)
		if done || err != nil {
			return err
		}
		l.Info(fmt.Sprintf("verification status: %s", status))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

type standardJSONSource struct {
	Content string `json:"content"`
}

type standardJSONInput struct {
	Language string                        `json:"language"`
	Sources  map[string]standardJSONSource `json:"sources"`
	Settings map[string]interface{}        `json:"settings"`
}

// StandardJSONInput builds the solc standard JSON input for sources. Each
// source unit name is resolved against projectDir first, then against each
// of includePaths (relative to projectDir).
func StandardJSONInput(projectDir string, sources, includePaths []string, optimizerEnabled bool, optimizerRuns int) (string, error) {
	input := &standardJSONInput{
		Language: "Solidity",
		Sources:  map[string]standardJSONSource{},
		Settings: map[string]interface{}{
			"optimizer": map[string]interface{}{
				"enabled": optimizerEnabled,
				"runs":    optimizerRuns,
			},
			"outputSelection": map[string]interface{}{
				"*": map[string]interface{}{"*": []string{"abi", "evm.bytecode", "evm.deployedBytecode"}},
			},
		},
	}
	for _, source := range sources {
		b, err := readSource(projectDir, source, includePaths)
		if err != nil {
			return "", fmt.Errorf("failed to read source '%s': %w", source, err)
		}
		input.Sources[source] = standardJSONSource{Content: string(b)}
	}
	b, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// compilerVersion drops the platform suffix solc reports, which the
// explorer does not accept.
func compilerVersion(v string) string {
	if m := compilerVersionRegex.FindStringSubmatch(v); m != nil {
		return "v" + m[1]
	}
	return "v" + strings.TrimPrefix(v, "v")
}

func readSource(projectDir, source string, includePaths []string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(projectDir, filepath.FromSlash(source)))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return b, err
	}
	for _, includePath := range includePaths {
		if lib, libErr := os.ReadFile(filepath.Join(projectDir, filepath.FromSlash(includePath), filepath.FromSlash(source))); libErr == nil {
			return lib, nil
		}
	}
	return nil, err
}
