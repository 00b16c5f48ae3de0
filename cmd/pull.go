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
	"time"

	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/ecryptotoken/deployctl/internal/log"
	"github.com/spf13/cobra"
)

var pullRetries int

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the solc docker image for the configured compiler version",
	Long: `Pull the solc docker image for the configured compiler version

Compiling pulls the image on first use. Pulling ahead of time is useful on CI
runners and before working offline.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := withSpinner(cmd)
		defer func() { stop(err) }()
		l := log.LoggerFromContext(ctx)

		dockerManager := newDockerManager()
		if err := dockerManager.CheckDockerConfig(ctx); err != nil {
			return err
		}
		image := fmt.Sprintf("%s:%s", constants.SolcImageName, cfg.Solidity.Version)
		for attempt := 0; ; attempt++ {
			l.Info(fmt.Sprintf("pulling %s", image))
			err = dockerManager.RunDockerCommand(ctx, "", "pull", image)
			if err == nil || attempt >= pullRetries {
				break
			}
			l.Warn(fmt.Sprintf("pull failed, retrying: %s", err))
			time.Sleep(time.Second)
		}
		if err != nil {
			return err
		}
		digest, err := dockerManager.GetImageDigest(image)
		stop(nil)
		if err != nil {
			l.Warn(err.Error())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", image)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s@%s\n", image, digest)
		return nil
	},
}

func init() {
	pullCmd.Flags().IntVarP(&pullRetries, "retries", "r", 0, "Retry attempts to perform on image pull failure")
	rootCmd.AddCommand(pullCmd)
}
