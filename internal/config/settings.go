package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Settings are read from the optional settings file, then the environment.
// Environment variables win over the file.
type Settings struct {
	Env         string        `yaml:"env" env:"TASKGRID_ENV" env-default:"local"`
	BackendURL  string        `yaml:"backend_url" env:"TASKGRID_BACKEND_URL" env-default:"http://localhost:8088"`
	ListenAddr  string        `yaml:"addr" env:"TASKGRID_ADDR" env-default:":8002"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"TASKGRID_HTTP_TIMEOUT" env-default:"30s"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"TASKGRID_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// ReadSettings loads settings from path when it exists and from the
// environment otherwise.
func ReadSettings(path string) (*Settings, error) {
	s := new(Settings)

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, s); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := cleanenv.ReadEnv(s); err != nil {
			return nil, fmt.Errorf("invalid environment: %w", err)
		}
	default:
		return nil, err
	}

	switch s.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return nil, fmt.Errorf("unknown env: %s", s.Env)
	}
	return s, nil
}
