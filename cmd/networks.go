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
	"strconv"

	"github.com/spf13/cobra"
)

var networksCmd = &cobra.Command{
	Use:     "networks",
	Aliases: []string{"network"},
	Short:   "Work with the configured networks",
}

var networksListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the configured networks",
	Long:    `List the configured networks. The default network is marked with *.`,
	Args:    cobra.NoArgs,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  %-16s %-10s %-9s %s\n", "NAME", "CHAIN ID", "ACCOUNTS", "URL")
		for _, name := range cfg.NetworkNames() {
			network := cfg.Networks[name]
			marker := " "
			if name == cfg.DefaultNetwork {
				marker = "*"
			}
			chainID := "auto"
			if network.ChainID != nil {
				chainID = strconv.FormatInt(*network.ChainID, 10)
			}
			url := network.URL
			if url == "" {
				url = "<not set>"
			}
			fmt.Fprintf(out, "%s %-16s %-10s %-9d %s\n", marker, name, chainID, len(network.Accounts), url)
		}
		return nil
	},
}

func init() {
	networksCmd.AddCommand(networksListCmd)
	rootCmd.AddCommand(networksCmd)
}
