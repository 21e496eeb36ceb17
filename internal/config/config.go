package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultKhojURL        = "http://localhost:8000"
	DefaultLogLevel       = "info"
	DefaultRequestTimeout = 30 * time.Second

	envPrefix = "KHOJLINK"
)

// Config holds the plugin side settings: where the backend lives, which vault
// it should index and the optional chat credential.
type Config struct {
	KhojURL        string        `json:"khoj_url" mapstructure:"khoj_url"`
	OpenAIAPIKey   string        `json:"openai_api_key" mapstructure:"openai_api_key"`
	VaultDir       string        `json:"vault_dir" mapstructure:"vault_dir"`
	Notify         bool          `json:"notify" mapstructure:"notify"`
	UpdateSchedule string        `json:"update_schedule,omitempty" mapstructure:"update_schedule"`
	LogLevel       string        `json:"log_level" mapstructure:"log_level"`
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`

	path string
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "khojlink"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func DBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "khojlink.db"), nil
}

func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "khojlink.log"), nil
}

// Load reads the default config file.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads settings from path. KHOJLINK_* environment variables override
// file values, and a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.path = path
	cfg.ApplyDefaults()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := defaultConfig()
	v.SetDefault("khoj_url", d.KhojURL)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("vault_dir", "")
	v.SetDefault("notify", d.Notify)
	v.SetDefault("update_schedule", "")
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("request_timeout", d.RequestTimeout)
}

// ApplyDefaults fills zero values that have a sensible default.
func (c *Config) ApplyDefaults() {
	c.KhojURL = strings.TrimRight(strings.TrimSpace(c.KhojURL), "/")
	if c.KhojURL == "" {
		c.KhojURL = DefaultKhojURL
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = configPath(); err != nil {
			return err
		}
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	c.path = path
	return nil
}

// MarshalJSON writes the request timeout as a duration string so the file
// stays readable and decodes back through viper.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(struct {
		plain
		RequestTimeout string `json:"request_timeout"`
	}{plain(c), c.RequestTimeout.String()})
}

func defaultConfig() *Config {
	return &Config{
		KhojURL:        DefaultKhojURL,
		Notify:         true,
		LogLevel:       DefaultLogLevel,
		RequestTimeout: DefaultRequestTimeout,
	}
}
