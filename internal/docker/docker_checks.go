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
	"context"
	"fmt"
	"os/exec"
)

// CheckDockerConfig checks that docker is installed and the daemon is reachable.
func CheckDockerConfig(ctx context.Context) error {
	if _, err := exec.CommandContext(ctx, "docker", "-v").Output(); err != nil {
		return fmt.Errorf("an error occurred while running docker. Is docker installed on your computer?")
	}
	if _, err := exec.CommandContext(ctx, "docker", "info", "--format", "{{.ServerVersion}}").Output(); err != nil {
		return fmt.Errorf("an error occurred while running docker. Is docker running on your computer?")
	}
	return nil
}
