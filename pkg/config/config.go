package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	mu          sync.Mutex
	envFilePath string
	loaded      bool
)

// SetEnvFile points later New calls at an explicit env file instead of ./.env.
func SetEnvFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	envFilePath = strings.TrimSpace(path)
	loaded = false
}

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

func New[T any](prefix string) (*T, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("config %s: %w", prefix, err)
	}

	return &conf, nil
}

func loadEnvFile() error {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return nil
	}

	if envFilePath != "" {
		if err := exportEnvironment(envFilePath); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return fmt.Errorf("failed to load default env file: %w", err)
	}
	loaded = true
	return nil
}

func exportEnvironmentIfExists(filepath string) error {
	info, err := os.Stat(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(filepath)
}

// exportEnvironment copies the file's keys into the process environment.
// Variables already set take precedence over the file.
func exportEnvironment(filepath string) error {
	v := viper.New()
	v.SetConfigFile(filepath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}

	return nil
}
