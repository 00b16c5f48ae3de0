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
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/ecryptotoken/deployctl/internal/docker"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
)

const RuntimeEnumType = "compilerruntime"

var (
	RuntimeDocker = fftypes.FFEnumValue(RuntimeEnumType, "docker")
	RuntimeNative = fftypes.FFEnumValue(RuntimeEnumType, "native")
)

func ParseRuntime(ctx context.Context, s string) (fftypes.FFEnum, error) {
	return fftypes.FFEnumParseString(ctx, RuntimeEnumType, s)
}

// Runner executes solc with its working directory at the project root.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
	// Image is the docker image reference, empty for a native binary.
	Image() string
}

type dockerRunner struct {
	docker     docker.IDockerManager
	image      string
	projectDir string
}

func NewDockerRunner(dockerManager docker.IDockerManager, version, projectDir string) Runner {
	return &dockerRunner{
		docker:     dockerManager,
		image:      fmt.Sprintf("%s:%s", constants.SolcImageName, version),
		projectDir: projectDir,
	}
}

func (r *dockerRunner) Run(ctx context.Context, args ...string) (string, error) {
	dockerArgs := []string{
		"run", "--rm",
		"-v", fmt.Sprintf("%s:/sources", r.projectDir),
		"-w", "/sources",
		r.image,
	}
	return r.docker.RunDockerCommandBuffered(ctx, r.projectDir, append(dockerArgs, args...)...)
}

func (r *dockerRunner) Image() string {
	return r.image
}

type nativeRunner struct {
	binary     string
	projectDir string
}

func NewNativeRunner(binary, projectDir string) Runner {
	if binary == "" {
		binary = "solc"
	}
	return &nativeRunner{binary: binary, projectDir: projectDir}
}

func (r *nativeRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.projectDir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to run %s: %w", filepath.Base(r.binary), err)
	}
	return string(out), nil
}

func (r *nativeRunner) Image() string {
	return ""
}
