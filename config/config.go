package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"5s"`
}

type RemindersConfig struct {
	Enabled    bool   `yaml:"enabled" env:"REMINDERS_ENABLED" env-default:"true"`
	At         string `yaml:"at" env:"REMINDERS_AT" env-default:"09:00"`
	WindowDays int    `yaml:"window_days" env:"REMINDERS_WINDOW_DAYS" env-default:"1"`
}

type Config struct {
	LogLevel  string          `yaml:"log_level" env:"LOG_LEVEL" env-default:"DEBUG"`
	HTTP      HTTPConfig      `yaml:"http_server"`
	DBAddress string          `yaml:"db_address" env:"DB_ADDRESS" env-required:"true"`
	Reminders RemindersConfig `yaml:"reminders"`
}

func MustLoad(configPath string) Config {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return cfg
	}

	// try the file, fall back to env when it does not exist
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return cfg
		}
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}

	return cfg
}
