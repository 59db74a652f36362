package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from YAML, then overridden from the environment. Zero
// values are replaced by env-default, so every bool here defaults to false.
type Config struct {
	Env     string        `yaml:"env" env-default:"prod"`
	Sensors SensorsConfig `yaml:"sensors"`
	Commit  CommitConfig  `yaml:"commit"`
	Polling PollingConfig `yaml:"polling"`
	Buffer  BufferConfig  `yaml:"buffer"`
	Health  HealthConfig  `yaml:"health"`
	Log     LogConfig     `yaml:"log"`
}

type SensorsConfig struct {
	W1     W1Config     `yaml:"w1"`
	BME280 BME280Config `yaml:"bme280"`
}

type W1Config struct {
	Enabled  bool   `yaml:"enabled" env:"W1_ENABLED"`
	BasePath string `yaml:"base_path" env:"W1_BASE_PATH" env-default:"/sys/bus/w1/devices"`
}

type BME280Config struct {
	Enabled bool   `yaml:"enabled" env:"BME280_ENABLED"`
	Bus     string `yaml:"bus" env:"BME280_BUS" env-default:"/dev/i2c-1"`
	Address uint16 `yaml:"address" env:"BME280_ADDRESS" env-default:"119"`
}

type CommitConfig struct {
	Enabled bool   `yaml:"enabled" env:"COMMIT_ENABLED"`
	Host    string `yaml:"host" env:"COMMIT_HOST"`
}

type PollingConfig struct {
	Interval time.Duration `yaml:"interval" env-default:"10s"`
	// Timeout bounds one cycle. Zero means no deadline.
	Timeout      time.Duration `yaml:"timeout" env-default:"0s"`
	AbortOnError bool          `yaml:"abort_on_error"`
}

type BufferConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Path        string        `yaml:"path" env-default:"/var/lib/sensord/buffer.db"`
	MaxAge      time.Duration `yaml:"max_age" env-default:"24h"`
	ReplayLimit int           `yaml:"replay_limit" env-default:"100"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled" env:"HEALTH_ENABLED"`
	Address string `yaml:"address" env:"HEALTH_ADDRESS" env-default:":8080"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ResolvePath picks the config file: explicit path, then CONFIG_PATH, then config/config.yaml.
func ResolvePath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	return configPath
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(ResolvePath(configPath))
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Commit.Enabled && c.Commit.Host == "" {
		return errors.New("commit.host is required when commit is enabled")
	}
	if c.Polling.Interval <= 0 {
		return errors.New("polling.interval must be positive")
	}
	if !c.Sensors.W1.Enabled && !c.Sensors.BME280.Enabled {
		return errors.New("no sensor family enabled")
	}
	return nil
}
