//go:build unix

package healthcheck

import (
	"os/exec"
	"syscall"
)

// configureProcess places the check in its own process group so that
// cancellation also reaches anything the shell spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
