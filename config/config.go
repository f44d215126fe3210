package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	// Manager is the hex address of the administrator operating the
	// program. It is written into the program-global record on first run
	// and controls token issuance on the in-process ledger.
	Manager string `toml:"Manager"`
	// Env tags log output (e.g. "dev", "prod").
	Env string `toml:"Env"`
	// RateLimitPerMinute caps mutating RPC calls per client; zero disables
	// the limiter.
	RateLimitPerMinute float64 `toml:"RateLimitPerMinute"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "stakeledger-local"
	}
	if cfg.RateLimitPerMinute < 0 {
		cfg.RateLimitPerMinute = 0
	}
}

func validate(cfg *Config) error {
	manager := strings.TrimSpace(cfg.Manager)
	if manager == "" {
		return fmt.Errorf("Manager address is required")
	}
	if !common.IsHexAddress(manager) {
		return fmt.Errorf("Manager %q is not a valid hex address", manager)
	}
	return nil
}

// ManagerAddress parses the configured manager into an address.
func (c *Config) ManagerAddress() common.Address {
	return common.HexToAddress(strings.TrimSpace(c.Manager))
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("wrote default config to %s; set Manager and restart", path)
}
