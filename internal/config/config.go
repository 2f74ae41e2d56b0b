package config

import (
	"flag"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the server configuration. Values come from an optional
// yaml file (-config flag or CONFIG_PATH) with environment overrides.
type Config struct {
	Env  string `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	Host string `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"PORT" env-default:"8080"`

	// Seed loads the demo groups and expenses on startup. The tracker is
	// in-memory only, so this is the quickest way to get a populated
	// instance to poke at.
	Seed bool `yaml:"seed" env:"SEED" env-default:"false"`
}

// MustLoad reads the configuration, panicking on failure. A missing
// config file is only an error when a path was explicitly given.
func MustLoad() *Config {
	var cfg Config

	path := fetchConfigPath()
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic("failed to read config from env: " + err.Error())
		}
		return &cfg
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file does not exist: " + path)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}
	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
