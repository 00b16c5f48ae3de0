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
	"errors"
	"fmt"
	"time"

	"github.com/ecryptotoken/deployctl/internal/compiler"
	"github.com/ecryptotoken/deployctl/internal/core"
	"github.com/ecryptotoken/deployctl/internal/deployments"
	"github.com/ecryptotoken/deployctl/internal/explorer"
	"github.com/ecryptotoken/deployctl/internal/log"
	"github.com/spf13/cobra"
)

var (
	verifyPollInterval = 5 * time.Second
	requestTimeoutSecs int
)

var verifyCmd = &cobra.Command{
	Use:   "verify [contract]",
	Short: "Verify a deployed contract's source code on the block explorer",
	Long: `Verify a deployed contract's source code on an Etherscan compatible block
explorer such as BscScan.

The address and constructor arguments are taken from the deployment record
written by the deploy command, and the sources and compiler settings from the
last compile. The explorer API key is read from ETHERSCAN_API_KEY or
BSCSCAN_API_KEY.
`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: listDeployedContracts,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		name, network, err := selectedNetwork(cfg)
		if err != nil {
			return err
		}
		contractName := defaultContract(args)

		record, err := deployments.NewStore(cfg.Paths.Deployments).Load(name, contractName)
		if err != nil {
			return err
		}
		buildInfo, err := compiler.ReadBuildInfo(cfg.Paths.Artifacts)
		if err != nil {
			return err
		}
		dir, err := projectDir()
		if err != nil {
			return err
		}
		input, err := explorer.StandardJSONInput(dir, buildInfo.Sources, buildInfo.IncludePaths, buildInfo.OptimizerEnabled, buildInfo.OptimizerRuns)
		if err != nil {
			return err
		}
		client, err := explorer.NewClient(cfg.ExplorerAPIURL(network), cfg.Etherscan.APIKey)
		if err != nil {
			return err
		}
		client.PollInterval = verifyPollInterval
		core.SetRequestTimeout(requestTimeoutSecs)

		ctx, stop := withSpinner(cmd)
		defer func() { stop(err) }()
		l := log.LoggerFromContext(ctx)

		qualifiedName := record.ContractName
		if record.SourceName != "" {
			qualifiedName = record.SourceName + ":" + record.ContractName
		}
		l.Info(fmt.Sprintf("submitting %s at %s for verification", qualifiedName, record.Address))
		guid, err := client.VerifySource(ctx, &explorer.VerifyRequest{
			Address:              record.Address,
			ContractName:         qualifiedName,
			CompilerVersion:      buildInfo.SolcLongVersion,
			StandardJSONInput:    input,
			ConstructorArguments: record.ConstructorArguments,
		})
		if errors.Is(err, explorer.ErrAlreadyVerified) {
			stop(nil)
			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s is already verified\n", record.ContractName, record.Address)
			return nil
		}
		if err != nil {
			return err
		}
		if err := client.WaitForVerification(ctx, guid); err != nil {
			return err
		}
		stop(nil)
		fmt.Fprintf(cmd.OutOrStdout(), "%s verified at: %s\n", record.ContractName, record.Address)
		return nil
	},
}

func init() {
	verifyCmd.Flags().IntVar(&requestTimeoutSecs, "request-timeout", 30, "seconds to wait for each block explorer response, 0 for no limit")
	rootCmd.AddCommand(verifyCmd)
}
