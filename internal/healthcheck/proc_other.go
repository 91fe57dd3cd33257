//go:build !unix

package healthcheck

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
