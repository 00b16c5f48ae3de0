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
	"errors"
	"fmt"

	"github.com/ecryptotoken/deployctl/internal/accounts"
	"github.com/ecryptotoken/deployctl/internal/config"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/spf13/cobra"
)

var lightKeystore bool

var accountsCreateCmd = &cobra.Command{
	Use:   "create <output_directory>",
	Short: "Create a new account in a V3 keystore file",
	Long: fmt.Sprintf(`Create a new account and write it to an encrypted V3 keystore file in the
output directory. The keystore password is read from %s, or prompted for.

Reference the new file from a network's accounts as keystore:<path>.`, constants.EnvKeystorePassword),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		password := env.Lookup(constants.EnvKeystorePassword)
		if password == "" {
			password, err = prompt(cmd, "keystore password: ", func(s string) error {
				if s == "" {
					return errors.New("password must not be empty")
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		keyPair, filename, err := accounts.CreateWalletFile(args[0], "keystore", password, lightKeystore)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(&accounts.Account{
			Address:  keyPair.Address.String(),
			Keystore: filename,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		fmt.Fprintf(cmd.ErrOrStderr(), "add %s%s to a network's accounts to deploy from it\n", config.KeystorePrefix, filename)
		return nil
	},
}

func init() {
	accountsCreateCmd.Flags().BoolVar(&lightKeystore, "light", false, "use light scrypt parameters (faster, for test accounts only)")
	accountsCmd.AddCommand(accountsCreateCmd)
}
