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

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/otiai10/copy"
)

// Hardhat's well known development accounts. Never use them on a public network.
const (
	TestPrivateKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	TestAddress     = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	TestPrivateKey2 = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	TestAddress2    = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
)

// EnvVars are the variables read by the config loader and CLI.
var EnvVars = []string{
	"BSC_TESTNET_RPC",
	"PRIVATE_KEY",
	"ETHERSCAN_API_KEY",
	"BSCSCAN_API_KEY",
	"KEYSTORE_PASSWORD",
	"DEPLOYCTL_NETWORK",
	"DEPLOYCTL_ANSI",
}

func StartMockServer(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// ClearEnv blanks every variable the CLI reads for the duration of the test.
func ClearEnv(t *testing.T) {
	for _, name := range EnvVars {
		t.Setenv(name, "")
	}
}

// SetupProject copies the fixture directory into a fresh temp directory and
// returns its path.
func SetupProject(t *testing.T, fixtureDir string) string {
	dir := t.TempDir()
	if err := copy.Copy(fixtureDir, dir); err != nil {
		t.Fatalf("unable to copy fixture project %s: %s", fixtureDir, err)
	}
	return dir
}

// ReadFileToString reads the contents of a file and returns it as a string.
func ReadFileToString(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func FileExists(path ...string) bool {
	_, err := os.Stat(filepath.Join(path...))
	return err == nil
}
