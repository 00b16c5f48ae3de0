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

package deployer

import (
	"context"
	"fmt"
	"io"

	"github.com/ecryptotoken/deployctl/internal/log"
)

// Run performs the deployment procedure. Each step blocks on the previous
// one: resolve the factory, submit the transaction, wait for confirmation,
// then report the address on out. Any failure is returned wrapped in
// ErrDeploymentFailed.
func Run(ctx context.Context, d *Deployer, contractName string, args []string, out io.Writer) (*Deployment, error) {
	l := log.LoggerFromContext(ctx)

	factory, err := d.GetContractFactory(contractName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeploymentFailed, err)
	}

	fmt.Fprintf(out, "Deploying %s...\n", factory.Name)
	l.Debug(fmt.Sprintf("deploying %s from %s", factory.Name, d.From().Hex()))
	deployment, err := factory.Deploy(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeploymentFailed, err)
	}

	l.Info(fmt.Sprintf("waiting for transaction %s", deployment.Transaction.Hash().Hex()))
	if err := deployment.Deployed(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeploymentFailed, err)
	}

	fmt.Fprintf(out, "%s deployed to: %s\n", factory.Name, deployment.Address.Hex())
	return deployment, nil
}
