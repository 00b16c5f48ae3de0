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

package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// CompiledContract is the subset of a compiler artifact needed to deploy and
// verify a contract.
type CompiledContract struct {
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName,omitempty"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode,omitempty"`
	// Metadata is the solc metadata document, only present in compiler output.
	Metadata string `json:"-"`
}

// QualifiedName returns "<sourceName>:<contractName>", or just the contract
// name when the source is unknown.
func (c *CompiledContract) QualifiedName() string {
	if c.SourceName == "" {
		return c.ContractName
	}
	return c.SourceName + ":" + c.ContractName
}

// HasBytecode is false for interfaces and abstract contracts.
func (c *CompiledContract) HasBytecode() bool {
	b := strings.TrimPrefix(c.Bytecode, "0x")
	return b != ""
}

type solcContract struct {
	ABI        json.RawMessage `json:"abi"`
	Bin        string          `json:"bin"`
	BinRuntime string          `json:"bin-runtime,omitempty"`
	Metadata   string          `json:"metadata,omitempty"`
}

// CombinedJSON is the output of solc --combined-json.
type CombinedJSON struct {
	Contracts map[string]*solcContract `json:"contracts"`
	Version   string                   `json:"version,omitempty"`
}

// CompiledContracts holds contracts keyed by qualified name.
type CompiledContracts struct {
	Contracts map[string]*CompiledContract `json:"contracts"`
	Version   string                       `json:"version,omitempty"`
}

func ReadArtifact(filePath string) (*CompiledContract, error) {
	d, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var contract *CompiledContract
	if err := json.Unmarshal(d, &contract); err != nil {
		return nil, fmt.Errorf("invalid artifact '%s': %w", filePath, err)
	}
	if contract == nil || contract.ContractName == "" {
		return nil, fmt.Errorf("invalid artifact '%s': missing contractName", filePath)
	}
	contract.ABI = normalizeABI(contract.ABI)
	return contract, nil
}

func ReadSolcCombinedJSON(filePath string) (*CompiledContracts, error) {
	d, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSolcCombinedJSON(d)
}

func ParseSolcCombinedJSON(d []byte) (*CompiledContracts, error) {
	var combined *CombinedJSON
	if err := json.Unmarshal(d, &combined); err != nil {
		return nil, err
	}
	contracts := &CompiledContracts{
		Contracts: map[string]*CompiledContract{},
	}
	if combined == nil {
		return contracts, nil
	}
	contracts.Version = combined.Version
	for qualifiedName, c := range combined.Contracts {
		sourceName, contractName := splitQualifiedName(qualifiedName)
		contracts.Contracts[qualifiedName] = &CompiledContract{
			ContractName:     contractName,
			SourceName:       sourceName,
			ABI:              normalizeABI(c.ABI),
			Bytecode:         withHexPrefix(c.Bin),
			DeployedBytecode: withHexPrefix(c.BinRuntime),
			Metadata:         c.Metadata,
		}
	}
	return contracts, nil
}

// ReadContractJSON accepts either solc combined-json output or a single
// Hardhat/Truffle artifact.
func ReadContractJSON(filePath string) (*CompiledContracts, error) {
	contracts, err := ReadSolcCombinedJSON(filePath)
	if err != nil {
		return nil, err
	}
	if len(contracts.Contracts) > 0 {
		return contracts, nil
	}
	contract, err := ReadArtifact(filePath)
	if err != nil {
		return nil, err
	}
	return &CompiledContracts{
		Contracts: map[string]*CompiledContract{
			contract.QualifiedName(): contract,
		},
	}, nil
}

// Get returns the contract named name, either by qualified name or by bare
// contract name when that is unambiguous.
func (c *CompiledContracts) Get(name string) (*CompiledContract, error) {
	if contract, ok := c.Contracts[name]; ok {
		return contract, nil
	}
	var matches []string
	for key, contract := range c.Contracts {
		if contract.ContractName == name {
			matches = append(matches, key)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no contract '%s' in compiler output", ErrArtifactNotFound, name)
	case 1:
		return c.Contracts[matches[0]], nil
	default:
		sort.Strings(matches)
		return nil, fmt.Errorf("multiple contracts named '%s', use a fully qualified name: %v", name, matches)
	}
}

// Find locates the artifact for name under dir. name is either a bare
// contract name or "<sourceName>:<contractName>".
func Find(dir, name string) (string, error) {
	sourceName, contractName := splitQualifiedName(name)
	var matches []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != contractName+".json" {
			return nil
		}
		if sourceName != "" {
			rel, err := filepath.Rel(dir, filepath.Dir(path))
			if err != nil || filepath.ToSlash(rel) != sourceName {
				return nil
			}
		}
		matches = append(matches, path)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no compiled artifact for '%s' in '%s'. have you run compile?", ErrArtifactNotFound, name, dir)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("multiple artifacts found for '%s', use a fully qualified name: %v", name, matches)
	}
}

// List returns the qualified names of every deployable artifact under dir.
func List(dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		contract, err := ReadArtifact(path)
		if err != nil {
			// build-info and other metadata files live alongside artifacts
			return nil
		}
		if contract.HasBytecode() {
			names = append(names, contract.QualifiedName())
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// MetadataSources returns the source unit names recorded in the contract's
// solc metadata, which includes every imported file.
func (c *CompiledContract) MetadataSources() ([]string, error) {
	if c.Metadata == "" {
		return nil, nil
	}
	var metadata struct {
		Sources map[string]json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal([]byte(c.Metadata), &metadata); err != nil {
		return nil, fmt.Errorf("invalid metadata for '%s': %w", c.QualifiedName(), err)
	}
	sources := make([]string, 0, len(metadata.Sources))
	for source := range metadata.Sources {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources, nil
}

func splitQualifiedName(name string) (sourceName, contractName string) {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// normalizeABI unwraps ABIs that older solc versions emit as a JSON string.
func normalizeABI(raw json.RawMessage) json.RawMessage {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return json.RawMessage(s)
		}
	}
	return raw
}

func withHexPrefix(s string) string {
	if s == "" || strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}

type hardhatArtifact struct {
	Format string `json:"_format"`
	*CompiledContract
	LinkReferences         map[string]interface{} `json:"linkReferences"`
	DeployedLinkReferences map[string]interface{} `json:"deployedLinkReferences"`
}

// WriteArtifact writes contract in the Hardhat layout,
// <dir>/<sourceName>/<contractName>.json, and returns the path written.
func WriteArtifact(dir string, contract *CompiledContract) (string, error) {
	if contract.SourceName == "" {
		return "", fmt.Errorf("artifact for '%s' has no source name", contract.ContractName)
	}
	out := *contract
	if out.Bytecode == "" {
		out.Bytecode = "0x"
	}
	if out.DeployedBytecode == "" {
		out.DeployedBytecode = "0x"
	}
	b, err := json.MarshalIndent(&hardhatArtifact{
		Format:                 "hh-sol-artifact-1",
		CompiledContract:       &out,
		LinkReferences:         map[string]interface{}{},
		DeployedLinkReferences: map[string]interface{}{},
	}, "", "  ")
	if err != nil {
		return "", err
	}
	artifactDir := filepath.Join(dir, filepath.FromSlash(contract.SourceName))
	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(artifactDir, contract.ContractName+".json")
	return path, os.WriteFile(path, b, 0644)
}
