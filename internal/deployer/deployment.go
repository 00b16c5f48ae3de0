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
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Deployment is a submitted deployment transaction. The receipt fields are
// populated by Deployed.
type Deployment struct {
	ContractName    string
	Address         common.Address
	Transaction     *types.Transaction
	From            common.Address
	ChainID         *big.Int
	ConstructorArgs []byte
	SourceName      string
	ArtifactPath    string
	Receipt         *types.Receipt

	deployer *Deployer
}

// Deployed blocks until the deployment transaction is mined with the required
// number of confirmations and code is present at the contract address.
func (dep *Deployment) Deployed(ctx context.Context) error {
	d := dep.deployer
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	receipt, err := bind.WaitMined(ctx, d.backend, dep.Transaction)
	if err != nil {
		return waitError(err, dep)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s in block %s", ErrDeploymentReverted, dep.Transaction.Hash().Hex(), receipt.BlockNumber)
	}
	dep.Receipt = receipt
	if receipt.ContractAddress != (common.Address{}) {
		dep.Address = receipt.ContractAddress
	}

	if err := d.waitForConfirmations(ctx, receipt.BlockNumber.Uint64()); err != nil {
		return waitError(err, dep)
	}

	code, err := d.backend.CodeAt(ctx, dep.Address, nil)
	if err != nil {
		return waitError(err, dep)
	}
	if len(code) == 0 {
		return bind.ErrNoCodeAfterDeploy
	}
	return nil
}

func (d *Deployer) waitForConfirmations(ctx context.Context, minedIn uint64) error {
	target := minedIn + uint64(d.opts.Confirmations) - 1
	for {
		head, err := d.backend.BlockNumber(ctx)
		if err != nil {
			return err
		}
		if head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.opts.PollInterval):
		}
	}
}

func waitError(err error, dep *Deployment) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: transaction %s after %s", ErrConfirmationTimeout, dep.Transaction.Hash().Hex(), dep.deployer.opts.Timeout)
	}
	return err
}

func (dep *Deployment) BlockNumber() uint64 {
	if dep.Receipt == nil || dep.Receipt.BlockNumber == nil {
		return 0
	}
	return dep.Receipt.BlockNumber.Uint64()
}

func (dep *Deployment) GasUsed() uint64 {
	if dep.Receipt == nil {
		return 0
	}
	return dep.Receipt.GasUsed
}
