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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ecryptotoken/deployctl/internal/artifacts"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/ecryptotoken/deployctl/internal/deployments"
	"github.com/spf13/cobra"
)

var stdin io.Reader = os.Stdin

func prompt(cmd *cobra.Command, promptText string, validate func(string) error) (string, error) {
	reader := bufio.NewReader(stdin)
	for {
		fmt.Fprint(cmd.ErrOrStderr(), promptText)
		if str, err := reader.ReadString('\n'); err != nil {
			return "", err
		} else {
			str = strings.TrimSpace(str)
			if err := validate(str); err != nil {
				printError(cmd, err)
			} else {
				return str, nil
			}
		}
	}
}

func confirm(cmd *cobra.Command, promptText string) error {
	reader := bufio.NewReader(stdin)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", promptText)
	str, err := reader.ReadString('\n')
	if err != nil && str == "" {
		return err
	}
	str = strings.ToLower(strings.TrimSpace(str))
	if str == "y" || str == "yes" {
		return nil
	}
	return fmt.Errorf("confirmation declined with response: '%s'", str)
}

func printError(cmd *cobra.Command, err error) {
	if fancyFeatures {
		fmt.Fprintf(cmd.ErrOrStderr(), "\u001b[31mError: %s\u001b[0m\n", err.Error())
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
	}
}

func defaultContract(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return constants.DefaultContractName
}

// listNetworks aids in completion of the --network flag.
func listNetworks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return cfg.NetworkNames(), cobra.ShellCompDirectiveNoFileComp
}

// listContracts aids in completion of the contract argument with every
// deployable contract in the artifacts directory.
func listContracts(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names, err := artifacts.List(cfg.Paths.Artifacts)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// listDeployedContracts aids in completion of the contract argument with the
// contracts recorded on the selected network.
func listDeployedContracts(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	name, _, err := selectedNetwork(cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	records, err := deployments.NewStore(cfg.Paths.Deployments).List(name)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.ContractName)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
