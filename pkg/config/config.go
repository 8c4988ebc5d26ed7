package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	Environment               string        `koanf:"environment"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	PageSize                  int           `koanf:"page_size"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	UploadDir                 string        `koanf:"upload_dir"`
}

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "config.yaml"
)

func defaults() Config {
	return Config{
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		Environment:               "production",
		PageSize:                  5,
		ServerHost:                "0.0.0.0",
		ServerPort:                3689,
		UploadDir:                 "./uploads",
	}
}

// New loads the config from its defaults, then the optional YAML file named by
// CONFIG_FILE (config.yaml when unset), then environment variables such as
// DATABASE_FILE_PATH or SERVER_PORT. Later layers win and empty variables are
// ignored.
func New() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load config defaults")
	}

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	known := knownKeys()
	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if _, ok := known[key]; !ok || value == "" {
			return "", nil
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.Environment == "development" {
		loadDevelopmentConfig(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests: in-memory database and a
// temporary upload directory.
func NewForTest() *Config {
	cfg := defaults()
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = "test"
	cfg.JWTSecret = "test-jwt-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.UploadDir = os.TempDir()
	return &cfg
}

// IsTest reports whether the app runs under ENVIRONMENT=test.
func (cfg *Config) IsTest() bool {
	return cfg.Environment == "test"
}

func (cfg *Config) validate() error {
	missing := []string{}
	if cfg.DatabaseFilePath == "" {
		missing = append(missing, "DATABASE_FILE_PATH (database_file_path)")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET (jwt_secret)")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if cfg.PageSize < 1 {
		return errors.Errorf("page_size must be at least 1, got %d", cfg.PageSize)
	}
	return nil
}

// knownKeys lists the koanf keys of Config so unrelated environment variables
// (PATH, HOME, ...) never reach the unmarshaller.
func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("koanf"); key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}
