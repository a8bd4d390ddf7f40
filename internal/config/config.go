// Package config holds the actioner settings, read from an optional YAML file
// and overridden by the environment the shell passes in.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	restconf "github.com/netascode/mgmt-cli"
	"github.com/netascode/mgmt-cli/internal/logging"
	"github.com/netascode/mgmt-cli/pager"
	"github.com/netascode/mgmt-cli/render"
)

const (
	EnvConfigFile     = "CLI_CONFIG"
	EnvRestAPIRoot    = "REST_API_ROOT"
	EnvInsecure       = "REST_API_INSECURE"
	EnvTerminalLength = "TERMINAL_LENGTH"

	DefaultTemplatePath = "/usr/share/mgmt-cli/templates"
)

// Config is the actioner configuration.
type Config struct {
	// RestconfURL is the management daemon base url.
	RestconfURL string `yaml:"restconf_url"`
	// Insecure skips TLS certificate verification. It defaults to true
	// because the daemon only listens on loopback; set it to false for any
	// remote target.
	Insecure bool `yaml:"insecure"`
	// Timeout bounds each request in seconds; 0 means no timeout.
	Timeout int `yaml:"timeout"`
	// Username and Password are sent as basic auth when Username is set.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// TemplatePath is the template root directory.
	TemplatePath string `yaml:"template_path"`
	// PageLength is the terminal length; 0 disables paging.
	PageLength int `yaml:"page_length"`
	// LogToScreen echoes log lines to stderr.
	LogToScreen bool `yaml:"log_to_screen"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RestconfURL:  restconf.DefaultURL,
		Insecure:     restconf.DefaultInsecure,
		TemplatePath: DefaultTemplatePath,
		PageLength:   pager.DefaultPageLength,
	}
}

// Load reads path (skipped when empty) on top of the defaults and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.PageLength < 0 {
		cfg.PageLength = pager.DefaultPageLength
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by CLI_CONFIG, if any.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv(EnvConfigFile))
}

func (cfg *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvRestAPIRoot)); v != "" {
		cfg.RestconfURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvInsecure)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Insecure = b
		}
	}
	if v := strings.TrimSpace(os.Getenv(render.EnvTemplatePath)); v != "" {
		cfg.TemplatePath = v
	}
	if v, ok := os.LookupEnv(EnvTerminalLength); ok {
		cfg.PageLength = pager.ParsePageLength(v)
	}
	if logging.EchoEnabled() {
		cfg.LogToScreen = true
	}
}

// ClientOptions returns the restconf client modifiers for cfg.
func (cfg Config) ClientOptions() []func(*restconf.Client) {
	mods := []func(*restconf.Client){restconf.UserAgent("cli-actioner")}
	if cfg.Timeout > 0 {
		mods = append(mods, restconf.RequestTimeout(time.Duration(cfg.Timeout)))
	}
	if cfg.Username != "" {
		mods = append(mods, restconf.BasicAuth(cfg.Username, cfg.Password))
	}
	return mods
}
