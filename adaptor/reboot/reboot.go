// Package reboot implements the post-update-reboot step: flush the
// filesystem buffer cache and restart the device, invoked by
// orchestration/bridge when a successful install requires a reboot and
// PostUpdateReboot is configured.
package reboot

// Device syncs the filesystem and reboots the host. The platform-specific
// implementation lives in reboot_linux.go / reboot_other.go / reboot_windows.go.
type Device struct{}

// New creates a Device rebooter.
func New() *Device {
	return &Device{}
}

// Sync flushes pending filesystem writes to disk.
func (d *Device) Sync() {
	sync()
}

// Reboot restarts the host.
func (d *Device) Reboot() error {
	return reboot()
}
