package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// Config is the full daemon configuration, loaded from a YAML file
// with defaults filled in for anything omitted.
type Config struct {
	ListenAddr     string         `yaml:"listenAddr"`
	DataDir        string         `yaml:"dataDir"`
	AgentURL       string         `yaml:"agentUrl"`
	APIURL         string         `yaml:"apiUrl"`
	KubeconfigPath string         `yaml:"kubeconfigPath"`
	Log            LogConfig      `yaml:"log"`
	Families       []types.Family `yaml:"families"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ListenAddr:     ":8090",
		DataDir:        filepath.Join(home, ".fleetglass"),
		AgentURL:       "http://localhost:9180",
		APIURL:         "http://localhost:9100",
		KubeconfigPath: filepath.Join(home, ".kube", "config"),
		Log:            LogConfig{Level: "info"},
		Families:       DefaultFamilies(),
	}
}

// Load reads the config file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(cfg.Families) == 0 {
		cfg.Families = DefaultFamilies()
	}
	for i := range cfg.Families {
		cfg.Families[i] = cfg.Families[i].WithDefaults()
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listenAddr must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}

	seen := make(map[string]bool, len(c.Families))
	for _, fam := range c.Families {
		if err := fam.Validate(); err != nil {
			return fmt.Errorf("family %q: %w", fam.Name, err)
		}
		if seen[fam.Name] {
			return fmt.Errorf("family %q declared twice", fam.Name)
		}
		seen[fam.Name] = true
	}
	return nil
}

// Family returns the named family config, or false if not declared.
func (c *Config) Family(name string) (types.Family, bool) {
	for _, fam := range c.Families {
		if fam.Name == name {
			return fam, true
		}
	}
	return types.Family{}, false
}

// DefaultFamilies is the built-in fleet dashboard catalog. Each entry
// already has WithDefaults applied.
func DefaultFamilies() []types.Family {
	families := []types.Family{
		{
			Name:     "clusters",
			Required: true,
			Persist:  true,
			Sort:     types.SortByName,
		},
		{
			Name:     "pods",
			Required: true,
			Persist:  true,
			Retry:    true,
			Sort:     types.SortRestartsDesc,
		},
		{
			Name:     "deployments",
			Required: true,
			Persist:  true,
			Retry:    true,
			Sort:     types.SortByName,
		},
		{
			// GPU inventory is reported by every cluster that can see
			// a node, so the same card shows up under several cluster
			// labels and has to be deduped.
			Name:         "gpu-nodes",
			Persist:      true,
			DedupeByName: true,
			Sort:         types.SortByName,
			PollInterval: 15 * time.Second,
		},
		{
			Name:         "operators",
			Persist:      true,
			Sort:         types.SortByName,
			AgentTimeout: 45 * time.Second,
		},
		{
			Name:                "security-issues",
			Sort:                types.SortByName,
			PreferAuthoritative: true,
		},
		{
			Name: "gitops-drift",
			Sort: types.SortByName,
		},
	}

	for i := range families {
		families[i] = families[i].WithDefaults()
	}
	return families
}
