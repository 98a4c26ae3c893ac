//go:build windows

package reboot

import "os/exec"

func sync() {}

func reboot() error {
	return exec.Command("shutdown", "/r", "/t", "0").Run()
}
