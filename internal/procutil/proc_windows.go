//go:build windows

package procutil

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// Configure prevents the child from opening a console window.
func Configure(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NO_WINDOW
}

// Interrupt asks the process to stop. Windows has no SIGTERM equivalent for
// console-less children, so the process is killed.
func Interrupt(p *os.Process) error {
	return p.Kill()
}
