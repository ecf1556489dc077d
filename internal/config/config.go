package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Tracker TrackerConfig `yaml:"tracker"`
	UI      UIConfig      `yaml:"ui"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

type TrackerConfig struct {
	DefaultTaskName string `yaml:"default_task_name"`
	Autosave        bool   `yaml:"autosave"`
	Exclusive       bool   `yaml:"exclusive"`
	PauseOnExit     bool   `yaml:"pause_on_exit"`
}

type UIConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	DebugLog        string        `yaml:"debug_log"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path: "timetracker.db",
			Key:  "timetracker",
		},
		Tracker: TrackerConfig{
			DefaultTaskName: "New task",
			Autosave:        true,
		},
		UI: UIConfig{
			RefreshInterval: 100 * time.Millisecond,
		},
	}
}

// Validate fills zero values with defaults and rejects settings the
// tracker cannot run with.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Storage.Key == "" {
		c.Storage.Key = def.Storage.Key
	}
	if c.Tracker.DefaultTaskName == "" {
		c.Tracker.DefaultTaskName = def.Tracker.DefaultTaskName
	}
	if c.UI.RefreshInterval == 0 {
		c.UI.RefreshInterval = def.UI.RefreshInterval
	}
	if c.UI.RefreshInterval < 10*time.Millisecond {
		return fmt.Errorf("refresh_interval %s is below 10ms", c.UI.RefreshInterval)
	}
	return nil
}

type Manager struct {
	config     *Config
	configPath string
}

// NewManager loads the config at path, or the default location when path
// is empty. A missing file yields the defaults and is written out.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		dir, err := getConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	m := &Manager{configPath: path}

	err := m.loadConfig()
	switch {
	case errors.Is(err, os.ErrNotExist):
		m.config = DefaultConfig()
		if err := m.SaveConfig(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return m, nil
}

func (m *Manager) loadConfig() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	m.config = config
	return nil
}

func (m *Manager) SaveConfig() error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(m.configPath, data, 0644)
}

func (m *Manager) GetConfig() *Config {
	return m.config
}

func (m *Manager) Path() string {
	return m.configPath
}

func getConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".timetracker"), nil
}
