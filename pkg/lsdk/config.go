package lsdk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quatton/libra/pkg/kv"
	"github.com/spf13/viper"
)

type Config struct {
	BaseURL       string        `mapstructure:"baseUrl"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Store         string        `mapstructure:"store"`
	StorePath     string        `mapstructure:"storePath"`
	RedisAddr     string        `mapstructure:"redisAddr"`
	RedisPassword string        `mapstructure:"redisPassword"`
	RedisDB       int           `mapstructure:"redisDb"`
	Output        string        `mapstructure:"output"`
	PageSize      int           `mapstructure:"pageSize"`

	v *viper.Viper // instance-specific viper
}

const (
	EnvPrefix  = "LIBRA"
	ConfigName = "libra"
	ConfigRoot = ".libra"

	BaseUrlKey       = "baseUrl"
	TimeoutKey       = "timeout"
	StoreKey         = "store"
	StorePathKey     = "storePath"
	RedisAddrKey     = "redisAddr"
	RedisPasswordKey = "redisPassword"
	RedisDBKey       = "redisDb"
	OutputKey        = "output"
	PageSizeKey      = "pageSize"

	DefaultBaseURL  = "http://localhost:8000"
	DefaultTimeout  = 5 * time.Second
	DefaultPageSize = 10
)

// LoadConfig creates a new Config instance with its own viper.
// There is no global config state.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		// project config (tracked): libra.yaml in the current directory
		for _, name := range []string{"libra.yaml", "libra.yml", ".libra.yaml"} {
			if _, err := os.Stat(name); err == nil {
				v.SetConfigFile(name)
				if err := v.ReadInConfig(); err == nil {
					break
				}
			}
		}

		// local overrides (untracked): .libra/config.yaml
		localConfigPath := filepath.Join(ConfigRoot, "config.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merging local config: %w", err)
			}
		}
	}

	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.v = v
	return &cfg, nil
}

// Reload re-reads values from the underlying viper, picking up flags bound
// after LoadConfig.
func (c *Config) Reload() error {
	if c.v == nil {
		return nil
	}
	fresh, err := fromViper(c.v)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

func (c *Config) Get(key string) interface{} {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// Viper returns the underlying viper instance, for flag binding.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// ConfigFileUsed returns the config file that was used (if any)
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// StoreOptions describes the session store selected by this config, scoped
// to the base URL.
func (c *Config) StoreOptions() kv.Options {
	return kv.Options{
		Backend: c.Store,
		Path:    c.StorePath,
		Valkey: kv.ValkeyConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		},
		Namespace: kv.NormalizeNamespace(c.BaseURL),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(BaseUrlKey, DefaultBaseURL)
	v.SetDefault(TimeoutKey, DefaultTimeout)
	v.SetDefault(StoreKey, kv.BackendKeyring)
	v.SetDefault(StorePathKey, defaultStorePath())
	v.SetDefault(RedisAddrKey, "localhost:6379")
	v.SetDefault(RedisPasswordKey, "")
	v.SetDefault(RedisDBKey, 0)
	v.SetDefault(OutputKey, "table")
	v.SetDefault(PageSizeKey, DefaultPageSize)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(ConfigRoot, "session")
	}
	return filepath.Join(home, ConfigRoot, "session")
}
