//go:build !unix

package procexec

import (
	"os"
	"os/exec"
)

type signal int

const (
	sigTerm signal = iota
	sigKill
)

// Process groups are a unix concept; elsewhere only the child itself is killed.
func setProcessGroup(cmd *exec.Cmd) {}

func signalGroup(pid int, _ signal) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return os.ErrProcessDone
	}
	return p.Kill()
}
