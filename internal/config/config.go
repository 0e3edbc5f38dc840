package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

type Config struct {
	DataPath string `json:"data_path" yaml:"data_path" toml:"data_path"`
	Storage  string `json:"storage" yaml:"storage" toml:"storage"`
	LogPath  string `json:"log_path" yaml:"log_path" toml:"log_path"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	Colors   Colors `json:"colors" yaml:"colors" toml:"colors"`
}

// Colors are the row backgrounds, as hex strings or ANSI colour numbers.
type Colors struct {
	Completed string `json:"completed" yaml:"completed" toml:"completed"`
	Pending   string `json:"pending" yaml:"pending" toml:"pending"`
}

func Default() Config {
	return Config{
		DataPath: "todos.json",
		Storage:  StorageJSON,
		LogLevel: "info",
		Colors:   DefaultColors(),
	}
}

func DefaultColors() Colors {
	return Colors{Completed: "#d4edda", Pending: "#fff3cd"}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "todolist", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the config at path, choosing the decoder by file extension.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, &config)
	case "toml":
		err = toml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	config.fillDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var data []byte
	var err error
	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageJSON, StorageSQLite:
		return nil
	default:
		return fmt.Errorf("unsupported storage %q (want %s or %s)", c.Storage, StorageJSON, StorageSQLite)
	}
}

func (c *Config) fillDefaults() {
	defaults := Default()
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage == "" {
		c.Storage = defaults.Storage
	}
	if c.DataPath == "" {
		c.DataPath = defaults.DataPath
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Colors.Completed == "" {
		c.Colors.Completed = defaults.Colors.Completed
	}
	if c.Colors.Pending == "" {
		c.Colors.Pending = defaults.Colors.Pending
	}
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}
