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

	"github.com/ecryptotoken/deployctl/internal/compiler"
	"github.com/ecryptotoken/deployctl/internal/docker"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/spf13/cobra"
)

var compileOptions struct {
	runtime  string
	solcPath string
}

var newDockerManager = func() docker.IDockerManager {
	return docker.NewDockerManager()
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the project's Solidity sources",
	Long: `Compile every .sol file under the sources directory with the configured solc
version and optimizer settings.

Artifacts are written in the Hardhat layout, artifacts/<source>/<Contract>.json,
together with artifacts/build-info.json which records the exact compiler used.
By default solc runs in the ethereum/solc docker image matching the configured
version. Use --compiler-runtime native to run a local solc binary instead.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := projectDir()
		if err != nil {
			return err
		}

		ctx, stop := withSpinner(cmd)
		defer func() { stop(err) }()

		runtime, err := compiler.ParseRuntime(ctx, compileOptions.runtime)
		if err != nil {
			return err
		}
		var runner compiler.Runner
		var digest func(string) (string, error)
		switch runtime {
		case compiler.RuntimeDocker:
			dockerManager := newDockerManager()
			if err := dockerManager.CheckDockerConfig(ctx); err != nil {
				return err
			}
			runner = compiler.NewDockerRunner(dockerManager, cfg.Solidity.Version, dir)
			digest = dockerManager.GetImageDigest
		default:
			runner = compiler.NewNativeRunner(compileOptions.solcPath, dir)
		}

		optimizer := cfg.Solidity.Settings.Optimizer
		buildInfo, err := compiler.New(runner, digest).Compile(ctx, &compiler.Options{
			ProjectDir:       dir,
			SourcesDir:       cfg.Paths.Sources,
			ArtifactsDir:     cfg.Paths.Artifacts,
			Version:          cfg.Solidity.Version,
			OptimizerEnabled: optimizer.Enabled,
			OptimizerRuns:    optimizer.Runs,
		})
		stop(err)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Compiled %d contract(s) with solc %s\n", len(buildInfo.Contracts), buildInfo.SolcLongVersion)
		for _, name := range buildInfo.Contracts {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOptions.runtime, "compiler-runtime", "r", string(compiler.RuntimeDocker), fmt.Sprintf("Where to run solc. Options are: %v", fftypes.FFEnumValues(compiler.RuntimeEnumType)))
	compileCmd.Flags().StringVar(&compileOptions.solcPath, "solc", "solc", "path to the solc binary for the native runtime")
	rootCmd.AddCommand(compileCmd)
}
