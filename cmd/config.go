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

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecryptotoken/deployctl/internal/config"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the project configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: fmt.Sprintf(`Write a starter %s to the project directory. The default network reads
its URL and deployer key from ${%s} and ${%s}, which are resolved from the
environment or the .env file each time the config is loaded.`,
		constants.DefaultConfigFileName, constants.EnvRPCURL, constants.EnvPrivateKey),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := cfgFile
		if filename == "" {
			dir, err := projectDir()
			if err != nil {
				return err
			}
			filename = filepath.Join(dir, constants.DefaultConfigFileName)
		}
		if _, err := os.Stat(filename); err == nil && !forceInit {
			if err := confirm(cmd, fmt.Sprintf("%s already exists. overwrite?", filename)); err != nil {
				return err
			}
		}
		cfg := config.Default(func(name string) string {
			return fmt.Sprintf("${%s}", name)
		})
		// left unset so either explorer key variable still applies
		cfg.Etherscan.APIKey = ""
		if err := cfg.WriteConfig(filename); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filename)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing config file without asking")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
