//go:build !linux && !windows

package reboot

import (
	"os/exec"
	"syscall"
)

func sync() {
	syscall.Sync()
}

func reboot() error {
	return exec.Command("reboot").Run()
}
