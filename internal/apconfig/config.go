// Package apconfig loads the example bot's YAML configuration:
// server address, slot credentials, cache and identifier file paths,
// and the debug logging flag.
package apconfig

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerSpec `yaml:"server"`
	Slot     SlotSpec   `yaml:"slot"`
	CacheDir string     `yaml:"cache_dir,omitempty"`
	UUIDFile string     `yaml:"uuid_file,omitempty"`
	Debug    bool       `yaml:"debug"`
}

type ServerSpec struct {
	Address        string `yaml:"address"`
	PreferInsecure bool   `yaml:"prefer_insecure"`
	Password       string `yaml:"password,omitempty"`
}

type SlotSpec struct {
	Name string   `yaml:"name"`
	Game string   `yaml:"game"`
	Tags []string `yaml:"tags,omitempty"`
}

// Load reads path, applying defaults() first so that a partial file
// only overrides what it mentions. An empty path returns defaults
// alone.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("apbot config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("apbot config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Server: ServerSpec{
			Address: "archipelago.gg",
		},
		Slot: SlotSpec{
			Name: "Player1",
		},
		CacheDir: "",
		UUIDFile: "apbot.uuid",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if strings.TrimSpace(c.Slot.Name) == "" {
		return fmt.Errorf("slot.name must not be empty")
	}
	if strings.TrimSpace(c.Slot.Game) == "" {
		return fmt.Errorf("slot.game must not be empty")
	}
	return nil
}
