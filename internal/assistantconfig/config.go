package assistantconfig

import (
	"errors"
	"strings"
	"time"

	"knowledge-workspace/pkg/store"

	"github.com/spf13/viper"
)

const EnvPrefix = "WORKSPACE"

// Config holds the assistant client configuration.
type Config struct {
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	Display Display `mapstructure:"display"`
	LogFile string  `mapstructure:"log_file"`
}

type Server struct {
	URL string `mapstructure:"url"`
}

// Storage selects where chat history, context selection and the session live.
type Storage struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	RedisURL  string `mapstructure:"redis_url"`
	Namespace string `mapstructure:"namespace"`
}

type Display struct {
	TypingDelay time.Duration `mapstructure:"typing_delay"`
	NoColor     bool          `mapstructure:"no_color"`
}

func Defaults() Config {
	return Config{
		Server: Server{
			URL: "http://localhost:3000",
		},
		Storage: Storage{
			Driver:    store.DriverFile,
			Path:      store.DefaultPath(),
			Namespace: "workspace",
		},
		Display: Display{
			TypingDelay: 8 * time.Millisecond,
		},
		LogFile: "logs/assistant.log",
	}
}

// StoreOptions maps the storage section onto a KV driver.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Driver:   c.Storage.Driver,
		Path:     c.Storage.Path,
		RedisURL: c.Storage.RedisURL,
	}
}

func (c Config) Keys() store.Keys {
	return store.NewKeys(c.Storage.Namespace)
}

// Load merges defaults, the config file and WORKSPACE_* environment variables.
// A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	cfg := Defaults()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.workspace")
	}

	// WORKSPACE_SERVER_URL -> server.url
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"server.url",
		"storage.driver",
		"storage.path",
		"storage.redis_url",
		"storage.namespace",
		"display.typing_delay",
		"display.no_color",
		"log_file",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
