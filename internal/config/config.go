package config

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ManagementPath string `mapstructure:"management_path"`
}

type StoreConfig struct {
	Driver   string         `mapstructure:"driver"` // memory, sqlite or postgres
	Database DatabaseConfig `mapstructure:"database"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// SeedConfig controls what is registered at startup.
type SeedConfig struct {
	Samples bool   `mapstructure:"samples"`
	File    string `mapstructure:"file"`
}

type CatalogConfig struct {
	SortByID bool `mapstructure:"sort_by_id"`
}

type LogConfig struct {
	Level           string `mapstructure:"level"`
	Development     bool   `mapstructure:"development"`
	BufferSize      int    `mapstructure:"buffer_size"`
	FlushIntervalMs int    `mapstructure:"flush_interval_ms"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN(driver string) string {
	if driver == "sqlite" {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// EnvPrefix prefixes every environment override, e.g. CONNECTOR_SERVER_PORT.
const EnvPrefix = "CONNECTOR"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8181)
	v.SetDefault("server.management_path", "/api/management")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database.host", "localhost")
	v.SetDefault("store.database.port", 5432)
	v.SetDefault("store.database.name", "connector")
	v.SetDefault("store.database.pool_size", 10)
	v.SetDefault("store.database.path", "./data")
	v.SetDefault("seed.samples", true)
	v.SetDefault("seed.file", "")
	v.SetDefault("catalog.sort_by_id", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.buffer_size", 256*1024)
	v.SetDefault("log.flush_interval_ms", 1000)
}

// Load reads configuration from defaults, an optional YAML file, CONNECTOR_*
// environment variables and finally flags. When file is empty a "connector"
// config in the working directory is used if present.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("connector")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"port":      "server.port",
	"store":     "store.driver",
	"seed-file": "seed.file",
	"log-level": "log.level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}
