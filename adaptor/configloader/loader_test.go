package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadAgentOverridesDefaults verifies that YAML values override defaults
// while unset values retain defaults. This is the core config loading behavior.
func TestLoadAgentOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	data := `
server: hawkbit.example.com:8080
tenant_id: DEFAULT
controller_id: device-42
retry_wait: 15
ssl: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAgent(path)
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}

	if cfg.Server != "hawkbit.example.com:8080" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.TenantID != "DEFAULT" {
		t.Errorf("TenantID = %q", cfg.TenantID)
	}
	if cfg.ControllerID != "device-42" {
		t.Errorf("ControllerID = %q", cfg.ControllerID)
	}
	if cfg.RetryWait != 15*time.Second {
		t.Errorf("RetryWait = %v", cfg.RetryWait)
	}
	if cfg.SSL {
		t.Error("SSL should be false")
	}
	// Unset values should keep defaults.
	if cfg.ProgramName != "hawkbit-agent" {
		t.Errorf("ProgramName should keep default, got %q", cfg.ProgramName)
	}
	if !cfg.TLSVerify {
		t.Error("TLSVerify should keep default true")
	}
}

// TestLoadAgentMissingFileReturnsDefaults verifies that a missing config file
// returns defaults rather than an error. This allows the agent to start with
// just defaults on fresh installs.
func TestLoadAgentMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadAgent("/nonexistent/config.yml")
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}
	if cfg.ProgramName != "hawkbit-agent" {
		t.Errorf("should return defaults, got ProgramName=%q", cfg.ProgramName)
	}
	if cfg.BundleDownloadPath != "/var/lib/hawkbit-agent/bundle.raucb" {
		t.Errorf("BundleDownloadPath = %q", cfg.BundleDownloadPath)
	}
}

// TestLoadAgentInvalidYAML rejects malformed YAML files rather than silently
// using defaults, since a typo could cause unexpected behavior.
func TestLoadAgentInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(path, []byte("server: [\ninvalid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadAgent(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

// TestLoadAgentBothTokensRejected verifies that setting both target_token and
// gateway_token is rejected, since the two authenticate the agent differently
// and the server accepts only one per request.
func TestLoadAgentBothTokensRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	data := `
target_token: abc
gateway_token: def
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadAgent(path)
	if err == nil {
		t.Fatal("expected error when both tokens are set")
	}
}

// TestLoadAgentAllFields verifies that all optional config fields are correctly
// loaded when set. This catches regressions when new fields are added.
func TestLoadAgentAllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "full.yml")
	data := `
program_name: custom-agent
log_dir: /custom/log
server: hawkbit.internal
tenant_id: acme
controller_id: device-7
bundle_download_path: /tmp/bundle.raucb
target_token: secret-token
install_command: /usr/bin/rauc-install
device_attributes:
  os: linux
  arch: arm64
connect_timeout: 10
request_timeout: 90
retry_wait: 45
install_timeout: 600
ssl: true
tls_verify: false
post_update_reboot: true
run_once: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAgent(path)
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}

	if cfg.ProgramName != "custom-agent" {
		t.Errorf("ProgramName = %q", cfg.ProgramName)
	}
	if cfg.LogDir != "/custom/log" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Server != "hawkbit.internal" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.TenantID != "acme" {
		t.Errorf("TenantID = %q", cfg.TenantID)
	}
	if cfg.ControllerID != "device-7" {
		t.Errorf("ControllerID = %q", cfg.ControllerID)
	}
	if cfg.BundleDownloadPath != "/tmp/bundle.raucb" {
		t.Errorf("BundleDownloadPath = %q", cfg.BundleDownloadPath)
	}
	if cfg.TargetToken != "secret-token" {
		t.Errorf("TargetToken = %q", cfg.TargetToken)
	}
	if cfg.InstallCommand != "/usr/bin/rauc-install" {
		t.Errorf("InstallCommand = %q", cfg.InstallCommand)
	}
	if cfg.DeviceAttributes["os"] != "linux" || cfg.DeviceAttributes["arch"] != "arm64" {
		t.Errorf("DeviceAttributes = %v", cfg.DeviceAttributes)
	}
	if cfg.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout = %v", cfg.ConnectTimeout)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.RetryWait != 45*time.Second {
		t.Errorf("RetryWait = %v", cfg.RetryWait)
	}
	if cfg.InstallTimeout != 600*time.Second {
		t.Errorf("InstallTimeout = %v", cfg.InstallTimeout)
	}
	if !cfg.SSL {
		t.Error("SSL should be true")
	}
	if cfg.TLSVerify {
		t.Error("TLSVerify should be false")
	}
	if !cfg.PostUpdateReboot {
		t.Error("PostUpdateReboot should be true")
	}
	if !cfg.RunOnce {
		t.Error("RunOnce should be true")
	}
}
