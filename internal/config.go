package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

// ProviderConfig selects a remote language model instead of a local GGUF model.
type ProviderConfig struct {
	Name    string `json:"name"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
}

type Config struct {
	Mappings map[string]string `json:"mappings"`
	Model    *string           `json:"model"`
	Provider *ProviderConfig   `json:"provider,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Mappings: make(map[string]string),
	}
}

// ModelID returns the configured model identifier or "".
func (c *Config) ModelID() string {
	if c.Model == nil {
		return ""
	}
	return *c.Model
}

func (c *Config) SetModel(id string) {
	if id == "" {
		c.Model = nil
		return
	}
	c.Model = &id
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read config: %v", ErrConfigIO, err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config %s: %v", ErrConfigIO, path, err)
	}

	if cfg.Mappings == nil {
		cfg.Mappings = make(map[string]string)
	}

	return &cfg, nil
}

// SaveConfig writes cfg next to path and renames it into place, so a crash
// mid-write never leaves a truncated config behind.
func SaveConfig(path string, cfg *Config) error {
	if cfg.Mappings == nil {
		cfg.Mappings = make(map[string]string)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal config: %v", ErrConfigIO, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create config dir: %v", ErrConfigIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrConfigIO, err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(append(data, '\n'))
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: write config: %v", ErrConfigIO, err)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close config: %v", ErrConfigIO, closeErr)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: chmod config: %v", ErrConfigIO, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename config: %v", ErrConfigIO, err)
	}

	return nil
}
