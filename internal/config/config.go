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

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrUnknownNetwork = errors.New("unknown network")

type OptimizerConfig struct {
	Enabled bool `yaml:"enabled"`
	Runs    int  `yaml:"runs"`
}

type CompilerSettings struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
}

type SolidityConfig struct {
	Version  string           `yaml:"version"`
	Settings CompilerSettings `yaml:"settings"`
}

type NetworkConfig struct {
	URL            string        `yaml:"url"`
	Accounts       []string      `yaml:"accounts"`
	ChainID        *int64        `yaml:"chainId,omitempty"`
	Confirmations  int           `yaml:"confirmations,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	ExplorerAPIURL string        `yaml:"explorerApiUrl,omitempty"`
}

type EtherscanConfig struct {
	APIKey string `yaml:"apiKey,omitempty"`
	APIURL string `yaml:"apiUrl,omitempty"`
}

type PathsConfig struct {
	Sources     string `yaml:"sources"`
	Artifacts   string `yaml:"artifacts"`
	Deployments string `yaml:"deployments"`
}

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Solidity       SolidityConfig            `yaml:"solidity"`
	DefaultNetwork string                    `yaml:"defaultNetwork"`
	Networks       map[string]*NetworkConfig `yaml:"networks"`
	Etherscan      EtherscanConfig           `yaml:"etherscan"`
	Paths          PathsConfig               `yaml:"paths"`
}

// Network returns the named network, or the default network when name is empty.
func (c *Config) Network(name string) (*NetworkConfig, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	n, ok := c.Networks[name]
	if !ok || n == nil {
		return nil, fmt.Errorf("%w '%s'. configured networks are: %v", ErrUnknownNetwork, name, c.NetworkNames())
	}
	return n, nil
}

func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExplorerAPIURL resolves the block explorer endpoint for a network, preferring
// a per-network override over the global setting.
func (c *Config) ExplorerAPIURL(n *NetworkConfig) string {
	if n != nil && n.ExplorerAPIURL != "" {
		return n.ExplorerAPIURL
	}
	return c.Etherscan.APIURL
}

// Redacted returns a copy that is safe to print: credentials and API keys are masked.
func (c *Config) Redacted() *Config {
	r := *c
	r.Networks = make(map[string]*NetworkConfig, len(c.Networks))
	for name, n := range c.Networks {
		nc := *n
		nc.Accounts = make([]string, len(n.Accounts))
		for i, a := range n.Accounts {
			nc.Accounts[i] = redact(a)
		}
		r.Networks[name] = &nc
	}
	r.Etherscan.APIKey = redact(c.Etherscan.APIKey)
	return &r
}

func redact(s string) string {
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, KeystorePrefix):
		return s
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

func (c *Config) WriteConfig(filename string) error {
	configYamlBytes, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, configYamlBytes, 0644)
}
