// Package configloader loads agent configuration from a YAML file on disk.
package configloader

import (
	"fmt"
	"os"
	"time"

	"github.com/gurre/hawkbit-agent-go/state/config"
	"gopkg.in/yaml.v3"
)

// rawConfig mirrors the YAML structure of the agent config file. Pointer
// fields distinguish "unset" from the zero value so LoadAgent can overlay
// onto config.Default() without clobbering defaults with zero values.
type rawConfig struct {
	ProgramName        string            `yaml:"program_name"`
	LogDir             string            `yaml:"log_dir"`
	Server             string            `yaml:"server"`
	TenantID           string            `yaml:"tenant_id"`
	ControllerID       string            `yaml:"controller_id"`
	BundleDownloadPath string            `yaml:"bundle_download_path"`
	TargetToken        string            `yaml:"target_token"`
	GatewayToken       string            `yaml:"gateway_token"`
	InstallCommand     string            `yaml:"install_command"`
	DeviceAttributes   map[string]string `yaml:"device_attributes"`
	ConnectTimeout     *int              `yaml:"connect_timeout"`
	RequestTimeout     *int              `yaml:"request_timeout"`
	RetryWait          *int              `yaml:"retry_wait"`
	InstallTimeout     *int              `yaml:"install_timeout"`
	SSL                *bool             `yaml:"ssl"`
	TLSVerify          *bool             `yaml:"tls_verify"`
	PostUpdateReboot   *bool             `yaml:"post_update_reboot"`
	RunOnce            *bool             `yaml:"run_once"`
}

// LoadAgent loads the agent config file, overlaying values onto defaults.
// Missing or empty fields retain their default values. A missing file is not
// an error: the agent starts from config.Default() alone.
//
//	cfg, err := configloader.LoadAgent("/etc/hawkbit-agent/config.yml")
func LoadAgent(path string) (config.Agent, error) {
	cfg := config.Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return config.Agent{}, fmt.Errorf("configloader: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return config.Agent{}, fmt.Errorf("configloader: parse %s: %w", path, err)
	}

	if raw.ProgramName != "" {
		cfg.ProgramName = raw.ProgramName
	}
	if raw.LogDir != "" {
		cfg.LogDir = raw.LogDir
	}
	if raw.Server != "" {
		cfg.Server = raw.Server
	}
	if raw.TenantID != "" {
		cfg.TenantID = raw.TenantID
	}
	if raw.ControllerID != "" {
		cfg.ControllerID = raw.ControllerID
	}
	if raw.BundleDownloadPath != "" {
		cfg.BundleDownloadPath = raw.BundleDownloadPath
	}
	if raw.TargetToken != "" {
		cfg.TargetToken = raw.TargetToken
	}
	if raw.GatewayToken != "" {
		cfg.GatewayToken = raw.GatewayToken
	}
	if raw.InstallCommand != "" {
		cfg.InstallCommand = raw.InstallCommand
	}
	if len(raw.DeviceAttributes) > 0 {
		cfg.DeviceAttributes = raw.DeviceAttributes
	}
	if raw.ConnectTimeout != nil {
		cfg.ConnectTimeout = time.Duration(*raw.ConnectTimeout) * time.Second
	}
	if raw.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(*raw.RequestTimeout) * time.Second
	}
	if raw.RetryWait != nil {
		cfg.RetryWait = time.Duration(*raw.RetryWait) * time.Second
	}
	if raw.InstallTimeout != nil {
		cfg.InstallTimeout = time.Duration(*raw.InstallTimeout) * time.Second
	}
	if raw.SSL != nil {
		cfg.SSL = *raw.SSL
	}
	if raw.TLSVerify != nil {
		cfg.TLSVerify = *raw.TLSVerify
	}
	if raw.PostUpdateReboot != nil {
		cfg.PostUpdateReboot = *raw.PostUpdateReboot
	}
	if raw.RunOnce != nil {
		cfg.RunOnce = *raw.RunOnce
	}

	if cfg.TargetToken != "" && cfg.GatewayToken != "" {
		return config.Agent{}, fmt.Errorf("configloader: target_token and gateway_token are mutually exclusive")
	}

	return cfg, nil
}
