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

package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ecryptotoken/deployctl/internal/artifacts"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/ecryptotoken/deployctl/internal/log"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
)

var versionRegex = regexp.MustCompile(`Version:\s*(\S+)`)

type Options struct {
	ProjectDir       string
	SourcesDir       string
	ArtifactsDir     string
	Version          string
	OptimizerEnabled bool
	OptimizerRuns    int
}

type BuildInfo struct {
	ID               *fftypes.UUID   `json:"id"`
	SolcVersion      string          `json:"solcVersion"`
	SolcLongVersion  string          `json:"solcLongVersion"`
	Image            string          `json:"image,omitempty"`
	ImageDigest      string          `json:"imageDigest,omitempty"`
	OptimizerEnabled bool            `json:"optimizerEnabled"`
	OptimizerRuns    int             `json:"optimizerRuns,omitempty"`
	IncludePaths     []string        `json:"includePaths,omitempty"`
	Sources          []string        `json:"sources"`
	Contracts        []string        `json:"contracts"`
	CompiledAt       *fftypes.FFTime `json:"compiledAt"`
}

type Compiler struct {
	runner Runner
	digest func(image string) (string, error)
}

// New returns a compiler using runner. digest may be nil, in which case no
// image digest is recorded.
func New(runner Runner, digest func(image string) (string, error)) *Compiler {
	return &Compiler{runner: runner, digest: digest}
}

// Compile builds every .sol file under SourcesDir with a single solc
// invocation, writes one artifact per contract and a build-info.json
// describing the compiler used.
func (c *Compiler) Compile(ctx context.Context, opts *Options) (*BuildInfo, error) {
	l := log.LoggerFromContext(ctx)

	sources, err := findSources(opts.ProjectDir, opts.SourcesDir)
	if err != nil {
		return nil, err
	}

	longVersion, err := c.solcVersion(ctx)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(longVersion, opts.Version+"+") && longVersion != opts.Version {
		return nil, fmt.Errorf("solc version mismatch: configured %s, compiler reports %s", opts.Version, longVersion)
	}
	l.Info(fmt.Sprintf("compiling %d source file(s) with solc %s", len(sources), longVersion))

	includePaths := findIncludePaths(opts.ProjectDir)
	out, err := c.runner.Run(ctx, compileArgs(opts, includePaths, sources)...)
	if err != nil {
		return nil, fmt.Errorf("compilation failed: %w", err)
	}
	compiled, err := artifacts.ParseSolcCombinedJSON([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("failed to parse compiler output: %w", err)
	}

	buildInfo := &BuildInfo{
		ID:               fftypes.NewUUID(),
		SolcVersion:      opts.Version,
		SolcLongVersion:  longVersion,
		Image:            c.runner.Image(),
		OptimizerEnabled: opts.OptimizerEnabled,
		IncludePaths:     includePaths,
		Contracts:        []string{},
		CompiledAt:       fftypes.Now(),
	}
	if opts.OptimizerEnabled {
		buildInfo.OptimizerRuns = opts.OptimizerRuns
	}
	if buildInfo.Image != "" && c.digest != nil {
		if buildInfo.ImageDigest, err = c.digest(buildInfo.Image); err != nil {
			l.Warn(fmt.Sprintf("unable to pin compiler image digest: %s", err))
		}
	}

	allSources := map[string]bool{}
	for _, source := range sources {
		allSources[source] = true
	}
	for _, contract := range compiled.Contracts {
		path, err := artifacts.WriteArtifact(opts.ArtifactsDir, contract)
		if err != nil {
			return nil, err
		}
		l.Debug(fmt.Sprintf("wrote %s", path))
		buildInfo.Contracts = append(buildInfo.Contracts, contract.QualifiedName())

		imported, err := contract.MetadataSources()
		if err != nil {
			return nil, err
		}
		for _, source := range imported {
			allSources[source] = true
		}
	}
	sort.Strings(buildInfo.Contracts)
	buildInfo.Sources = make([]string, 0, len(allSources))
	for source := range allSources {
		buildInfo.Sources = append(buildInfo.Sources, source)
	}
	sort.Strings(buildInfo.Sources)

	if err := writeBuildInfo(opts.ArtifactsDir, buildInfo); err != nil {
		return nil, err
	}
	return buildInfo, nil
}

func (c *Compiler) solcVersion(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("unable to run solc: %w", err)
	}
	return ParseVersion(out)
}

// ParseVersion extracts the long version, e.g. 0.8.20+commit.a1b79de6.Linux.g++,
// from the output of solc --version.
func ParseVersion(output string) (string, error) {
	match := versionRegex.FindStringSubmatch(output)
	if match == nil {
		return "", fmt.Errorf("unrecognized solc version output: %q", strings.TrimSpace(output))
	}
	return match[1], nil
}

func compileArgs(opts *Options, includePaths, sources []string) []string {
	args := []string{
		"--combined-json", "abi,bin,bin-runtime,metadata",
		"--base-path", ".",
	}
	for _, p := range includePaths {
		args = append(args, "--include-path", p)
	}
	if opts.OptimizerEnabled {
		args = append(args, "--optimize", "--optimize-runs", strconv.Itoa(opts.OptimizerRuns))
	}
	return append(args, sources...)
}

// findIncludePaths returns the library directories, relative to projectDir,
// that solc should search for package imports.
func findIncludePaths(projectDir string) []string {
	var paths []string
	if fi, err := os.Stat(filepath.Join(projectDir, constants.LibrariesDir)); err == nil && fi.IsDir() {
		paths = append(paths, constants.LibrariesDir)
	}
	return paths
}

// findSources returns the .sol files under sourcesDir as slash separated
// paths relative to projectDir, which become the artifact source names.
func findSources(projectDir, sourcesDir string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(sourcesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sol" {
			return nil
		}
		rel, err := filepath.Rel(projectDir, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(rel, "..") {
			return fmt.Errorf("source file '%s' is outside the project directory", path)
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no Solidity sources found in '%s'", sourcesDir)
	}
	sort.Strings(sources)
	return sources, nil
}

func writeBuildInfo(artifactsDir string, buildInfo *BuildInfo) error {
	b, err := json.MarshalIndent(buildInfo, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(artifactsDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(artifactsDir, constants.BuildInfoFile), b, 0644)
}

func ReadBuildInfo(artifactsDir string) (*BuildInfo, error) {
	b, err := os.ReadFile(filepath.Join(artifactsDir, constants.BuildInfoFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no build info in '%s'. have you run compile?", artifactsDir)
		}
		return nil, err
	}
	var buildInfo *BuildInfo
	if err := json.Unmarshal(b, &buildInfo); err != nil {
		return nil, fmt.Errorf("invalid build info: %w", err)
	}
	return buildInfo, nil
}
