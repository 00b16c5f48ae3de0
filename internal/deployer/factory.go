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
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ecryptotoken/deployctl/internal/artifacts"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrDeploymentFailed    = errors.New("deployment failed")
	ErrDeploymentReverted  = errors.New("deployment transaction reverted")
	ErrConfirmationTimeout = errors.New("timed out waiting for deployment confirmation")
	ErrChainIDMismatch     = errors.New("chain id mismatch")
)

type Options struct {
	// ChainID, when set, must match the chain ID reported by the node.
	ChainID *big.Int
	// Confirmations is the number of blocks, including the inclusion block,
	// required before a deployment is reported.
	Confirmations int
	// Timeout bounds the wait for confirmation.
	Timeout      time.Duration
	PollInterval time.Duration
	GasLimit     uint64
	// ArtifactFile, when set, is read instead of searching the artifacts
	// directory. It may hold solc combined-json output or a single artifact.
	ArtifactFile string
}

// Deployer signs deployment transactions with a single account.
type Deployer struct {
	backend      Backend
	key          *ecdsa.PrivateKey
	from         common.Address
	artifactsDir string
	opts         Options
}

func New(backend Backend, key *ecdsa.PrivateKey, artifactsDir string, opts *Options) *Deployer {
	d := &Deployer{
		backend:      backend,
		key:          key,
		from:         crypto.PubkeyToAddress(key.PublicKey),
		artifactsDir: artifactsDir,
	}
	if opts != nil {
		d.opts = *opts
	}
	if d.opts.Confirmations <= 0 {
		d.opts.Confirmations = constants.DefaultConfirmations
	}
	if d.opts.Timeout <= 0 {
		d.opts.Timeout = constants.DefaultDeployTimeout
	}
	if d.opts.PollInterval <= 0 {
		d.opts.PollInterval = constants.DefaultReceiptPollPeriod
	}
	return d
}

func (d *Deployer) From() common.Address {
	return d.from
}

// ContractFactory is a handle for deploying one compiled contract.
type ContractFactory struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
	Artifact *artifacts.CompiledContract
	// ArtifactPath is empty when the factory was built from an in-memory artifact.
	ArtifactPath string

	deployer *Deployer
}

// GetContractFactory resolves the compiled artifact for name. It fails when
// the contract has not been compiled or cannot be deployed.
func (d *Deployer) GetContractFactory(name string) (*ContractFactory, error) {
	var contract *artifacts.CompiledContract
	path := d.opts.ArtifactFile
	if path != "" {
		contracts, err := artifacts.ReadContractJSON(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read artifact file '%s': %w", path, err)
		}
		if contract, err = contracts.Get(name); err != nil {
			return nil, err
		}
	} else {
		var err error
		if path, err = artifacts.Find(d.artifactsDir, name); err != nil {
			return nil, err
		}
		if contract, err = artifacts.ReadArtifact(path); err != nil {
			return nil, err
		}
	}
	f, err := d.NewContractFactory(contract)
	if err != nil {
		return nil, err
	}
	f.ArtifactPath = path
	return f, nil
}

func (d *Deployer) NewContractFactory(contract *artifacts.CompiledContract) (*ContractFactory, error) {
	if strings.Contains(contract.Bytecode, "__$") {
		return nil, fmt.Errorf("contract '%s' has unlinked library references", contract.ContractName)
	}
	if !contract.HasBytecode() {
		return nil, fmt.Errorf("contract '%s' has no bytecode. is it abstract or an interface?", contract.ContractName)
	}
	bytecode, err := hexutil.Decode(withHexPrefix(contract.Bytecode))
	if err != nil {
		return nil, fmt.Errorf("contract '%s' has invalid bytecode: %w", contract.ContractName, err)
	}
	abiJSON := contract.ABI
	if len(abiJSON) == 0 {
		abiJSON = []byte("[]")
	}
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("contract '%s' has invalid abi: %w", contract.ContractName, err)
	}
	return &ContractFactory{
		Name:     contract.ContractName,
		ABI:      parsed,
		Bytecode: bytecode,
		Artifact: contract,
		deployer: d,
	}, nil
}

// Deploy signs and submits the deployment transaction. It returns as soon as
// the node accepts the transaction; call Deployed to wait for confirmation.
func (f *ContractFactory) Deploy(ctx context.Context, args ...string) (*Deployment, error) {
	d := f.deployer
	params, err := ConvertArgs(f.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, err
	}
	encodedArgs, err := f.ABI.Pack("", params...)
	if err != nil {
		return nil, err
	}

	chainID, err := d.chainID(ctx)
	if err != nil {
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(d.key, chainID)
	if err != nil {
		return nil, err
	}
	auth.Context = ctx
	auth.GasLimit = d.opts.GasLimit

	address, tx, _, err := bind.DeployContract(auth, f.ABI, f.Bytecode, d.backend, params...)
	if err != nil {
		return nil, err
	}
	return &Deployment{
		ContractName:    f.Name,
		Address:         address,
		Transaction:     tx,
		From:            d.from,
		ChainID:         chainID,
		ConstructorArgs: encodedArgs,
		SourceName:      f.Artifact.SourceName,
		ArtifactPath:    f.ArtifactPath,
		deployer:        d,
	}, nil
}

func (d *Deployer) chainID(ctx context.Context) (*big.Int, error) {
	remote, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}
	if d.opts.ChainID != nil && d.opts.ChainID.Cmp(remote) != 0 {
		return nil, fmt.Errorf("%w: configured %s, node reports %s", ErrChainIDMismatch, d.opts.ChainID, remote)
	}
	return remote, nil
}

func withHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}
