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

var accountsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new private key for a test account",
	Long: fmt.Sprintf(`Generate a new random private key and print it with its address.

The key is printed in the clear and is meant for test networks, for example as
%s in a .env file. Use "accounts create" for an encrypted keystore.`, constants.EnvPrivateKey),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		address, privateKey, err := accounts.GenerateAddressAndPrivateKey()
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(&accounts.Account{
			Address:    address,
			PrivateKey: privateKey,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsGenerateCmd)
}
