package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel   string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string   `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis    `yaml:"redis"`
	Feedback   Feedback `yaml:"feedback"`
}

// Redis configures the optional event broadcaster.
type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Channel string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"tictactoe:events"`
}

// Feedback configures audio cues.
type Feedback struct {
	Enabled    bool          `yaml:"enabled" env:"FEEDBACK_ENABLED" env-default:"false"`
	Command    string        `yaml:"command" env:"FEEDBACK_COMMAND" env-default:"aplay -q"`
	SampleRate int           `yaml:"sample-rate" env:"FEEDBACK_SAMPLE_RATE" env-default:"44100"`
	Timeout    time.Duration `yaml:"timeout" env:"FEEDBACK_TIMEOUT" env-default:"2s"`
	Dir        string        `yaml:"dir" env:"FEEDBACK_DIR"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path when it exists, falling back to environment variables and
// defaults otherwise. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env file: %w", err)
	}

	config := &Config{}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to stat config file: %w", err)
		}

		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read environment: %w", err)
		}

		return config, nil
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
