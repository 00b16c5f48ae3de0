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

	"github.com/ecryptotoken/deployctl/internal/deployments"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "Work with recorded deployments",
}

var deploymentsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List recorded deployments",
	Long:    `List the deployments recorded by the deploy command, for one network when --network is set or for all networks otherwise.`,
	Args:    cobra.NoArgs,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		records, err := deployments.NewStore(cfg.Paths.Deployments).List(viper.GetString("network"))
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	deploymentsCmd.AddCommand(deploymentsListCmd)
	rootCmd.AddCommand(deploymentsCmd)
}
