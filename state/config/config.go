// Package config defines the agent's configuration struct and its defaults.
// These are pure data types with no I/O; loading is handled by adaptor/configloader.
package config

import "time"

// Agent holds the hawkBit controller configuration loaded from the agent's
// YAML config file. Fields are aligned from largest to smallest for memory
// efficiency.
type Agent struct {
	// ProgramName identifies this agent in logs and to the process supervisor.
	ProgramName string
	// LogDir is the directory the rotating log file is written to.
	LogDir string
	// Server is the hawkBit server host (and optional port), e.g. "hawkbit.example.com:8080".
	Server string
	// TenantID is the hawkBit tenant this controller belongs to.
	TenantID string
	// ControllerID is this device's stable controller identifier.
	ControllerID string
	// BundleDownloadPath is the local file path artifacts are downloaded to.
	BundleDownloadPath string
	// TargetToken authenticates as "TargetToken" when set; mutually exclusive with GatewayToken.
	TargetToken string
	// GatewayToken authenticates as "GatewayToken" when set; ignored if TargetToken is set.
	GatewayToken string
	// InstallCommand is the external installer invoked with the bundle path as its
	// only argument; see adaptor/shellinstaller.
	InstallCommand string
	// DeviceAttributes is sent as the `data` map during identify.
	DeviceAttributes map[string]string

	// ConnectTimeout bounds establishing the TCP connection (the dialer timeout).
	ConnectTimeout time.Duration
	// RequestTimeout bounds an entire HTTP request/response cycle.
	RequestTimeout time.Duration
	// RetryWait is both the initial polling interval and the interval the
	// poller reverts to after a failed base poll.
	RetryWait time.Duration
	// InstallTimeout bounds how long InstallCommand may run.
	InstallTimeout time.Duration

	// SSL selects https (true) or http (false) for the DDI base URL.
	SSL bool
	// TLSVerify controls peer and hostname certificate verification.
	TLSVerify bool
	// PostUpdateReboot reboots the device after a successful install.
	PostUpdateReboot bool
	// RunOnce performs a single base poll and exits instead of looping.
	RunOnce bool
}

// Default returns an Agent config with conservative production defaults,
// mirroring rauc-hawkbit-updater's built-in constants.
//
//	cfg := config.Default()
//	cfg.Server = "hawkbit.example.com"
func Default() Agent {
	return Agent{
		ProgramName:        "hawkbit-agent",
		LogDir:             "/var/log/hawkbit-agent",
		BundleDownloadPath: "/var/lib/hawkbit-agent/bundle.raucb",
		ConnectTimeout:     20 * time.Second,
		RequestTimeout:     80 * time.Second,
		RetryWait:          30 * time.Second,
		InstallTimeout:     10 * time.Minute,
		SSL:                true,
		TLSVerify:          true,
	}
}
