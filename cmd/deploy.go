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
	"context"
	"fmt"
	"math/big"

	"github.com/ecryptotoken/deployctl/internal/accounts"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/ecryptotoken/deployctl/internal/deployer"
	"github.com/ecryptotoken/deployctl/internal/deployments"
	"github.com/ecryptotoken/deployctl/internal/log"
	"github.com/spf13/cobra"
)

var (
	skipRecord   bool
	artifactFile string
)

// dialNetwork is replaced in tests with an in-memory chain.
var dialNetwork = func(ctx context.Context, url string) (deployer.Backend, error) {
	return deployer.Dial(ctx, url, nil)
}

var deployCmd = &cobra.Command{
	Use:   "deploy [contract] [constructor_param1 [constructor_param2 ...]]",
	Short: "Deploy a compiled contract to the selected network",
	Long: fmt.Sprintf(`Deploy a compiled contract to the selected network.

The contract defaults to %s and is looked up in the artifacts directory, so run
"%s compile" first. Use --artifact to deploy from a solc combined-json output or
a Truffle/Hardhat artifact file instead. The first account configured for the
network signs the deployment transaction. If the contract has a constructor that
takes arguments specify them after the contract name. Put arguments that start
with a dash, such as negative numbers, after "--" so they are not read as flags:

  deployctl deploy Vesting -- 0x5FbDB2315678afecb367f032d93F642f64180aa3 -5

The command waits until the transaction is confirmed and code is present at the
new address, then prints:

  <contract> deployed to: <address>
`, constants.DefaultContractName, constants.ExecutableName),
	Args:              cobra.ArbitraryArgs,
	ValidArgsFunction: listContracts,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		contractName := constants.DefaultContractName
		if len(args) > 0 {
			contractName = args[0]
			args = args[1:]
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		name, network, err := selectedNetwork(cfg)
		if err != nil {
			return err
		}
		if len(network.Accounts) == 0 {
			return fmt.Errorf("no accounts configured for network '%s'. set %s or add accounts to the network config", name, constants.EnvPrivateKey)
		}
		env, err := loadEnv()
		if err != nil {
			return err
		}
		key, err := accounts.Resolve(network.Accounts[0], env.Lookup(constants.EnvKeystorePassword))
		if err != nil {
			return fmt.Errorf("invalid account for network '%s': %w", name, err)
		}

		ctx, stop := withSpinner(cmd)
		defer func() { stop(err) }()
		l := log.LoggerFromContext(ctx)

		backend, err := dialNetwork(ctx, network.URL)
		if err != nil {
			return fmt.Errorf("%w: %w", deployer.ErrDeploymentFailed, err)
		}
		if closer, ok := backend.(interface{ Close() }); ok {
			defer closer.Close()
		}

		opts := &deployer.Options{
			Confirmations: network.Confirmations,
			Timeout:       network.Timeout,
			ArtifactFile:  artifactFile,
		}
		if network.ChainID != nil {
			opts.ChainID = big.NewInt(*network.ChainID)
		}
		d := deployer.New(backend, key, cfg.Paths.Artifacts, opts)

		l.Info(fmt.Sprintf("deploying %s to %s", contractName, name))
		deployment, err := deployer.Run(ctx, d, contractName, args, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		if !skipRecord {
			if err := saveDeployment(cfg.Paths.Deployments, name, deployment); err != nil {
				l.Warn(fmt.Sprintf("unable to record deployment: %s", err))
			}
		}
		return nil
	},
}

func saveDeployment(dir, network string, deployment *deployer.Deployment) error {
	record := &deployments.Record{
		Network:         network,
		ContractName:    deployment.ContractName,
		Address:         deployment.Address.Hex(),
		TransactionHash: deployment.Transaction.Hash().Hex(),
		BlockNumber:     deployment.BlockNumber(),
		GasUsed:         deployment.GasUsed(),
		Deployer:        deployment.From.Hex(),
		ChainID:         deployment.ChainID.Int64(),
		SourceName:      deployment.SourceName,
	}
	if len(deployment.ConstructorArgs) > 0 {
		record.ConstructorArguments = fmt.Sprintf("0x%x", deployment.ConstructorArgs)
	}
	return deployments.NewStore(dir).Save(record, deployment.ArtifactPath)
}

func init() {
	deployCmd.Flags().BoolVar(&skipRecord, "no-record", false, "do not write a deployment record")
	deployCmd.Flags().StringVar(&artifactFile, "artifact", "", "deploy from this compiled contract file instead of the artifacts directory")
	rootCmd.AddCommand(deployCmd)
}
