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

package docker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ecryptotoken/deployctl/internal/log"
	"github.com/google/go-containerregistry/pkg/crane"
)

// Digest resolves an image reference against its registry.
var Digest = crane.Digest

func RunDockerCommand(ctx context.Context, workingDir string, command ...string) error {
	_, err := RunDockerCommandBuffered(ctx, workingDir, command...)
	return err
}

// RunDockerCommandBuffered runs docker and returns its stdout. On failure the
// error carries whatever docker wrote to stderr.
func RunDockerCommandBuffered(ctx context.Context, workingDir string, command ...string) (string, error) {
	l := log.LoggerFromContext(ctx)
	l.Debug(fmt.Sprintf("docker %s", strings.Join(command, " ")))

	dockerCmd := exec.CommandContext(ctx, "docker", command...)
	dockerCmd.Dir = workingDir
	var stdout, stderr bytes.Buffer
	dockerCmd.Stdout = &stdout
	dockerCmd.Stderr = &stderr
	if err := dockerCmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%s: %s", err, msg)
		}
		return stdout.String(), err
	}
	if stderr.Len() > 0 {
		l.Trace(stderr.String())
	}
	return stdout.String(), nil
}

func GetImageDigest(image string) (string, error) {
	digest, err := Digest(image)
	if err != nil {
		return "", fmt.Errorf("failed to resolve digest for image '%s': %w", image, err)
	}
	return digest, nil
}
