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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/miracl/conflate"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// KeystorePrefix marks an account entry that points at a V3 keystore file
// instead of carrying a raw private key.
const KeystorePrefix = "keystore:"

var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type LoadOptions struct {
	// WorkingDir is where the default config and .env files are looked up.
	WorkingDir string
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string
	// ExtraConfigFile is deep-merged over ConfigFile.
	ExtraConfigFile string
	// EnvFile overrides the default <WorkingDir>/.env location.
	EnvFile string
}

// Env resolves variables from the process environment, falling back to the
// values of a dotenv file. The process environment always wins.
type Env struct {
	v *viper.Viper
}

func LoadEnv(envFile string) (*Env, error) {
	v := viper.New()
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read env file '%s': %w", envFile, err)
			}
		}
	}
	v.AutomaticEnv()
	return &Env{v: v}, nil
}

func (e *Env) Lookup(name string) string {
	return e.v.GetString(name)
}

// Interpolate replaces ${NAME} references with values from the environment.
func (e *Env) Interpolate(s string) string {
	return envReference.ReplaceAllStringFunc(s, func(ref string) string {
		return e.Lookup(envReference.FindStringSubmatch(ref)[1])
	})
}

// Default builds the configuration used when no config file is present. The
// default network is wired to BSC_TESTNET_RPC and PRIVATE_KEY.
func Default(lookup func(string) string) *Config {
	accounts := []string{}
	if pk := lookup(constants.EnvPrivateKey); pk != "" {
		accounts = append(accounts, WithHexPrefix(pk))
	}
	apiKey := lookup(constants.EnvExplorerAPIKey)
	if apiKey == "" {
		apiKey = lookup(constants.EnvBscscanAPIKey)
	}
	return &Config{
		Solidity: SolidityConfig{
			Version: constants.DefaultSolcVersion,
			Settings: CompilerSettings{
				Optimizer: OptimizerConfig{
					Enabled: true,
					Runs:    constants.DefaultOptimizerRuns,
				},
			},
		},
		DefaultNetwork: constants.DefaultNetwork,
		Networks: map[string]*NetworkConfig{
			constants.DefaultNetwork: {
				URL:      lookup(constants.EnvRPCURL),
				Accounts: accounts,
			},
		},
		Etherscan: EtherscanConfig{
			APIKey: apiKey,
			APIURL: constants.DefaultExplorerAPIURL,
		},
		Paths: PathsConfig{
			Sources:     constants.SourcesDir,
			Artifacts:   constants.ArtifactsDir,
			Deployments: constants.DeploymentsDir,
		},
	}
}

func Load(opts *LoadOptions) (*Config, error) {
	workingDir := opts.WorkingDir
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workingDir = wd
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = filepath.Join(workingDir, constants.DefaultEnvFileName)
	}
	env, err := LoadEnv(envFile)
	if err != nil {
		return nil, err
	}

	cfg := Default(env.Lookup)

	configFile := opts.ConfigFile
	if configFile == "" {
		candidate := filepath.Join(workingDir, constants.DefaultConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}

	var layers [][]byte
	for _, f := range []string{configFile, opts.ExtraConfigFile} {
		if f == "" {
			continue
		}
		data, err := readInterpolated(f, env)
		if err != nil {
			return nil, err
		}
		layers = append(layers, data)
	}

	if len(layers) > 0 {
		data := layers[0]
		if len(layers) > 1 {
			c, err := conflate.FromData(layers...)
			if err != nil {
				return nil, fmt.Errorf("failed to merge config files: %w", err)
			}
			if data, err = c.MarshalYAML(); err != nil {
				return nil, err
			}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file '%s': %w", configFile, err)
		}
	}

	if err := cfg.normalize(workingDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readInterpolated decodes filename and replaces ${NAME} references in its
// string values, so substituted text never reaches the YAML parser.
func readInterpolated(filename string, env *Env) ([]byte, error) {
	expanded, err := homedir.Expand(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid config file '%s': %w", filename, err)
	}
	interpolateNode(&doc, env)
	return yaml.Marshal(&doc)
}

func interpolateNode(n *yaml.Node, env *Env) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			interpolateNode(c, env)
		}
	case yaml.MappingNode:
		// keys are left as written
		for i := 1; i < len(n.Content); i += 2 {
			interpolateNode(n.Content[i], env)
		}
	case yaml.ScalarNode:
		if n.Tag != "!!str" || !envReference.MatchString(n.Value) {
			return
		}
		// An unquoted value that is a single reference takes the type of
		// the substituted text, e.g. chainId: ${CHAIN_ID}.
		whole := envReference.FindStringIndex(n.Value)
		if n.Style == 0 && whole[0] == 0 && whole[1] == len(n.Value) {
			n.Tag = ""
		}
		n.Value = env.Interpolate(n.Value)
	}
}

// normalize fills per-network defaults and resolves paths relative to the
// working directory. It does not validate URLs or keys.
func (c *Config) normalize(workingDir string) error {
	for _, n := range c.Networks {
		if n == nil {
			continue
		}
		if n.Confirmations <= 0 {
			n.Confirmations = constants.DefaultConfirmations
		}
		if n.Timeout <= 0 {
			n.Timeout = constants.DefaultDeployTimeout
		}
		accounts := make([]string, 0, len(n.Accounts))
		for _, a := range n.Accounts {
			if a = strings.TrimSpace(a); a == "" || a == "0x" {
				continue
			}
			if !strings.HasPrefix(a, KeystorePrefix) {
				a = WithHexPrefix(a)
			}
			accounts = append(accounts, a)
		}
		n.Accounts = accounts
	}
	for _, p := range []*string{&c.Paths.Sources, &c.Paths.Artifacts, &c.Paths.Deployments} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(workingDir, expanded)
		}
		*p = expanded
	}
	return nil
}

// WithHexPrefix returns s with exactly one leading 0x.
func WithHexPrefix(s string) string {
	for strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	return "0x" + s
}
