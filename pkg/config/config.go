// Package config loads the startup configuration. The snapshot is
// built once and treated as read-only by every pipeline stage.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig                `yaml:"app"`
	Provider ProviderConfig           `yaml:"provider"`
	Safety   SafetyConfig             `yaml:"safety"`
	Gateways map[string]GatewayConfig `yaml:"gateways"`
	Memory   MemoryConfig             `yaml:"memory"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Workspace string `yaml:"workspace"`
}

type ProviderConfig struct {
	// Mode is local, cloud, or auto.
	Mode           string        `yaml:"mode"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Local          BackendConfig `yaml:"local"`
	Cloud          BackendConfig `yaml:"cloud"`
}

type BackendConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
}

type SafetyConfig struct {
	SimpleCommandsOnly   bool     `yaml:"simple_commands_only"`
	RejectComplexPlans   bool     `yaml:"reject_complex_plans"`
	ConfirmDangerous     bool     `yaml:"confirm_dangerous"`
	MaxActionsPerPlan    int      `yaml:"max_actions_per_plan"`
	MaxPowerDelaySeconds float64  `yaml:"max_power_delay_seconds"`
	ProtectedPaths       []string `yaml:"protected_paths"`
	DeniedActions        []string `yaml:"denied_actions"`
	DeniedPatterns       []string `yaml:"denied_patterns"`
}

type GatewayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type MemoryConfig struct {
	Path         string `yaml:"path"`
	ContextLimit int    `yaml:"context_limit"`
	KeepLast     int    `yaml:"keep_last"`
}

// Default returns the configuration used when no file is present:
// local-first planning with every safety gate enabled.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "max", Workspace: "."},
		Provider: ProviderConfig{
			Mode:           "auto",
			TimeoutSeconds: 30,
			Local: BackendConfig{
				Enabled: true,
				Model:   "llama3.1",
				BaseURL: "http://localhost:11434",
			},
		},
		Safety: SafetyConfig{
			ConfirmDangerous:     true,
			MaxActionsPerPlan:    10,
			MaxPowerDelaySeconds: 3600,
		},
		Memory: MemoryConfig{
			Path:         "max.db",
			ContextLimit: 5,
			KeepLast:     500,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is
// not an error; a present but unreadable one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider.Mode {
	case "local", "cloud", "auto":
	default:
		return fmt.Errorf("provider.mode must be local, cloud, or auto, not %q", c.Provider.Mode)
	}
	if c.Provider.TimeoutSeconds <= 0 {
		return fmt.Errorf("provider.timeout_seconds must be positive")
	}
	if c.Safety.MaxActionsPerPlan <= 0 {
		return fmt.Errorf("safety.max_actions_per_plan must be positive")
	}
	if c.Provider.Mode == "cloud" && !c.Cloud().Enabled {
		return fmt.Errorf("provider.mode is cloud but no cloud backend is enabled")
	}
	return nil
}

func (c *Config) Cloud() BackendConfig { return c.Provider.Cloud }
func (c *Config) Local() BackendConfig { return c.Provider.Local }

// Gateway returns a named gateway config if enabled.
func (c *Config) Gateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && g.Token != "" {
		return g, true
	}
	return GatewayConfig{}, false
}
