//go:build !windows

package executor

import "os/exec"

func hideConsole(cmd *exec.Cmd) {}
