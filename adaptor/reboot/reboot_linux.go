//go:build linux

package reboot

import "syscall"

func sync() {
	syscall.Sync()
}

func reboot() error {
	return syscall.Reboot(syscall.LINUX_REBOOT_CMD_RESTART)
}
