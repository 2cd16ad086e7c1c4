//go:build !windows

package procutil

import (
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Configure is a no-op outside Windows.
func Configure(cmd *exec.Cmd) {}

// Interrupt sends SIGTERM.
func Interrupt(p *os.Process) error {
	return p.Signal(unix.SIGTERM)
}
