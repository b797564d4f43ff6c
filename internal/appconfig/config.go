// Package appconfig loads CyRIS's configuration via a viper-backed loader
// from one config file (config.yml, or a legacy INI file when asked for),
// with CYRIS_ prefixed environment variables overriding file values and
// built-in defaults filling in whatever neither sets.
package appconfig

import (
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cyris-project/cyris/internal/cyrierr"
)

// Config is the resolved, typed view of every recognized key (§6).
type Config struct {
	CyRISPath     string `mapstructure:"cyris_path"`
	CyberRangeDir string `mapstructure:"cyber_range_dir"`

	GWMode       bool   `mapstructure:"gw_mode"`
	GWAccount    string `mapstructure:"gw_account"`
	GWMgmtAddr   string `mapstructure:"gw_mgmt_addr"`
	GWInsideAddr string `mapstructure:"gw_inside_addr"`

	UserEmail string `mapstructure:"user_email"`

	SSHTimeout    time.Duration `mapstructure:"ssh_timeout"`
	SSHRetryCount int           `mapstructure:"ssh_retry_count"`
	SSHRetryDelay time.Duration `mapstructure:"ssh_retry_delay"`

	IPDiscoveryTimeout time.Duration `mapstructure:"ip_discovery_timeout"`
	IPCacheTTL         time.Duration `mapstructure:"ip_cache_ttl"`

	LibvirtURI string `mapstructure:"libvirt_uri"`

	ParallelSSHConcurrency       int `mapstructure:"parallel_ssh_concurrency"`
	ImageDistributionConcurrency int `mapstructure:"image_distribution_concurrency"`
}

const envPrefix = "CYRIS"

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"cyris_path":                     "/opt/cyris",
		"cyber_range_dir":                "/opt/cyris/cyber_range",
		"gw_mode":                        false,
		"ssh_timeout":                    "30s",
		"ssh_retry_count":                3,
		"ssh_retry_delay":                "5s",
		"ip_discovery_timeout":           "3m",
		"ip_cache_ttl":                   "60s",
		"libvirt_uri":                    "qemu:///system",
		"parallel_ssh_concurrency":       50,
		"image_distribution_concurrency": 4,
	}
}

// Load resolves a Config from configPath (if non-empty), falling back to
// the standard search path (current dir, ~/.config/cyris, /etc/cyris)
// otherwise, then environment overrides. legacy, when true, treats
// configPath (or a discovered config.ini) as INI rather than YAML.
func Load(configPath string, legacy bool) (*Config, error) {
	v := viper.New()

	for key, val := range defaults() {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if legacy {
			v.SetConfigType("ini")
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")

		if home, err := userHome(); err == nil {
			v.AddConfigPath(home + "/.config/cyris")
		}
		v.AddConfigPath("/etc/cyris")
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if configPath != "" || !notFound {
			return nil, cyrierr.Wrap(cyrierr.Config, err, "read configuration")
		}
	}

	if legacy {
		// viper's INI codec keys every entry as "<section>.<key>" (entries
		// outside any section land in "default"); hoist them to bare keys so
		// the same mapstructure tags apply as for YAML.
		for _, key := range v.AllKeys() {
			if i := strings.Index(key, "."); i > 0 {
				v.SetDefault(key[i+1:], v.Get(key))
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, cyrierr.Wrap(cyrierr.Config, err, "decode configuration")
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces §8's boundary behaviors on pool caps: a concurrency
// of 0 or >= 10000 is rejected rather than silently clamped, since either
// would make the orchestrator either do nothing or overrun the host.
func validate(cfg *Config) error {
	if cfg.ParallelSSHConcurrency <= 0 || cfg.ParallelSSHConcurrency >= 10000 {
		return cyrierr.New(cyrierr.Config, fmt.Sprintf("parallel_ssh_concurrency %d is out of the legal range (1..9999)", cfg.ParallelSSHConcurrency)).WithField("parallel_ssh_concurrency")
	}
	if cfg.ImageDistributionConcurrency <= 0 || cfg.ImageDistributionConcurrency >= 10000 {
		return cyrierr.New(cyrierr.Config, fmt.Sprintf("image_distribution_concurrency %d is out of the legal range (1..9999)", cfg.ImageDistributionConcurrency)).WithField("image_distribution_concurrency")
	}
	return nil
}

func userHome() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.HomeDir, nil
}

// WriteDefault seeds a fresh config.yml at path with every recognized key
// set to its default value, for `config-init`.
func WriteDefault(path string) error {
	v := viper.New()
	for key, val := range defaults() {
		v.Set(key, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return cyrierr.Wrap(cyrierr.Config, err, "write default configuration")
	}
	return nil
}
