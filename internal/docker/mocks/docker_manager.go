// DockerManager is a mock that implements IDockerManager
package mocks

import (
	"context"
	"strings"
	"sync"
)

type DockerManager struct {
	mux      sync.Mutex
	Commands [][]string

	CheckErr error
	// Outputs maps a command prefix (joined with spaces) to its stdout.
	Outputs   map[string]string
	RunErr    error
	Digest    string
	DigestErr error
}

func NewDockerManager() *DockerManager {
	return &DockerManager{Outputs: map[string]string{}}
}

func (mgr *DockerManager) CheckDockerConfig(ctx context.Context) error {
	return mgr.CheckErr
}

func (mgr *DockerManager) RunDockerCommand(ctx context.Context, workingDir string, command ...string) error {
	_, err := mgr.RunDockerCommandBuffered(ctx, workingDir, command...)
	return err
}

func (mgr *DockerManager) RunDockerCommandBuffered(ctx context.Context, workingDir string, command ...string) (string, error) {
	mgr.mux.Lock()
	defer mgr.mux.Unlock()
	mgr.Commands = append(mgr.Commands, command)
	if mgr.RunErr != nil {
		return "", mgr.RunErr
	}
	line := strings.Join(command, " ")
	longest := ""
	for prefix := range mgr.Outputs {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(longest) {
			longest = prefix
		}
	}
	if longest == "" {
		return "", nil
	}
	return mgr.Outputs[longest], nil
}

func (mgr *DockerManager) GetImageDigest(image string) (string, error) {
	return mgr.Digest, mgr.DigestErr
}
