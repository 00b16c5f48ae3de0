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
	"encoding/json"
	"fmt"

	"github.com/ecryptotoken/deployctl/internal/accounts"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/spf13/cobra"
)

var accountsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the accounts configured for a network",
	Long:    `List the addresses of the accounts configured for a network. Private keys are never printed.`,
	Args:    cobra.NoArgs,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		name, network, err := selectedNetwork(cfg)
		if err != nil {
			return err
		}
		env, err := loadEnv()
		if err != nil {
			return err
		}
		list := make([]*accounts.Account, 0, len(network.Accounts))
		for i, credential := range network.Accounts {
			account, err := accounts.Describe(credential, env.Lookup(constants.EnvKeystorePassword))
			if err != nil {
				return fmt.Errorf("account %d of network '%s': %w", i, name, err)
			}
			list = append(list, account)
		}
		b, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
}
