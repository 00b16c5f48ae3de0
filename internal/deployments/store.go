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

package deployments

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/otiai10/copy"
)

const artifactSuffix = ".artifact.json"

// Record describes a confirmed deployment on one network.
type Record struct {
	ID                   *fftypes.UUID   `json:"id"`
	Network              string          `json:"network"`
	ContractName         string          `json:"contractName"`
	SourceName           string          `json:"sourceName,omitempty"`
	Address              string          `json:"address"`
	TransactionHash      string          `json:"transactionHash"`
	BlockNumber          uint64          `json:"blockNumber"`
	GasUsed              uint64          `json:"gasUsed,omitempty"`
	Deployer             string          `json:"deployer"`
	ChainID              int64           `json:"chainId"`
	ConstructorArguments string          `json:"constructorArguments,omitempty"`
	DeployedAt           *fftypes.FFTime `json:"deployedAt"`
}

// Store keeps one JSON record per contract and network under dir, next to a
// snapshot of the artifact that was deployed.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) recordPath(network, contractName string) string {
	return filepath.Join(s.dir, network, contractName+".json")
}

func (s *Store) ArtifactPath(network, contractName string) string {
	return filepath.Join(s.dir, network, contractName+artifactSuffix)
}

// Save writes the record, replacing any previous deployment of the same
// contract on the same network. When artifactPath is set the artifact is
// copied alongside the record.
func (s *Store) Save(record *Record, artifactPath string) error {
	if record.Network == "" || record.ContractName == "" {
		return errors.New("deployment record requires a network and contract name")
	}
	if record.ID == nil {
		record.ID = fftypes.NewUUID()
	}
	if record.DeployedAt == nil {
		record.DeployedAt = fftypes.Now()
	}
	if err := os.MkdirAll(filepath.Join(s.dir, record.Network), 0755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.recordPath(record.Network, record.ContractName), b, 0644); err != nil {
		return err
	}
	if artifactPath != "" {
		if err := copy.Copy(artifactPath, s.ArtifactPath(record.Network, record.ContractName)); err != nil {
			return fmt.Errorf("failed to snapshot artifact: %w", err)
		}
	}
	return nil
}

func (s *Store) Load(network, contractName string) (*Record, error) {
	b, err := os.ReadFile(s.recordPath(network, contractName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no deployment of '%s' recorded on network '%s'", contractName, network)
		}
		return nil, err
	}
	var record *Record
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, fmt.Errorf("invalid deployment record for '%s': %w", contractName, err)
	}
	return record, nil
}

// List returns the records for network, or for every network when network
// is empty, ordered by network then contract name.
func (s *Store) List(network string) ([]*Record, error) {
	networks := []string{network}
	if network == "" {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return []*Record{}, nil
			}
			return nil, err
		}
		networks = networks[:0]
		for _, e := range entries {
			if e.IsDir() {
				networks = append(networks, e.Name())
			}
		}
	}

	records := []*Record{}
	for _, n := range networks {
		entries, err := os.ReadDir(filepath.Join(s.dir, n))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasSuffix(name, artifactSuffix) {
				continue
			}
			record, err := s.Load(n, strings.TrimSuffix(name, ".json"))
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Network != records[j].Network {
			return records[i].Network < records[j].Network
		}
		return records[i].ContractName < records[j].ContractName
	})
	return records, nil
}
