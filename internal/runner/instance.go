package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another instance is found.
var ErrAlreadyRunning = errors.New("another instance is already running")

// CheckSingleInstance fails when another process with the same executable
// name as this one is running.
func CheckSingleInstance() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to determine executable: %w", err)
	}

	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("failed to get process list: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(exe), ".exe")
	if pids := otherInstances(processes, name, os.Getpid()); len(pids) > 0 {
		return fmt.Errorf("%w (pid %v)", ErrAlreadyRunning, pids)
	}
	return nil
}

// otherInstances returns the PIDs of processes named name, excluding self.
func otherInstances(processes []ps.Process, name string, self int) []int {
	var pids []int
	for _, p := range processes {
		if p.Pid() == self {
			continue
		}
		if strings.TrimSuffix(p.Executable(), ".exe") == name {
			pids = append(pids, p.Pid())
		}
	}
	return pids
}
