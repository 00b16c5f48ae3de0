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

package constants

import "time"

var ExecutableName = "deployctl"

// Defaults mirror the project's original toolchain configuration.
var (
	DefaultContractName   = "eCryptoToken"
	DefaultNetwork        = "bscTestnet"
	DefaultSolcVersion    = "0.8.20"
	DefaultOptimizerRuns  = 200
	DefaultConfigFileName = "deployctl.yaml"
	DefaultEnvFileName    = ".env"
)

var (
	SourcesDir     = "contracts"
	ArtifactsDir   = "artifacts"
	DeploymentsDir = "deployments"
	BuildInfoFile  = "build-info.json"
	// Package imports such as @openzeppelin/... resolve against this directory.
	LibrariesDir = "node_modules"
)

// Environment variables read by the configuration loader.
var (
	EnvRPCURL           = "BSC_TESTNET_RPC"
	EnvPrivateKey       = "PRIVATE_KEY"
	EnvExplorerAPIKey   = "ETHERSCAN_API_KEY"
	EnvBscscanAPIKey    = "BSCSCAN_API_KEY"
	EnvKeystorePassword = "KEYSTORE_PASSWORD"
)

var (
	SolcImageName            = "ethereum/solc"
	DefaultExplorerAPIURL    = "https://api-testnet.bscscan.com/api"
	DefaultDeployTimeout     = 5 * time.Minute
	DefaultConfirmations     = 1
	DefaultReceiptPollPeriod = time.Second
)
