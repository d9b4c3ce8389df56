// Package config provides centralized configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth modes accepted by auth_mode.
const (
	AuthAPIKey = "API_KEY"
	AuthIAM    = "AWS_IAM"
)

const (
	appName    = "pipewizard"
	envPrefix  = "PIPEWIZARD"
	configFile = "pipewizard.yml"
)

// Config holds all configuration values for pipewizard.
type Config struct {
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	Region          string        `mapstructure:"region" yaml:"region"`
	AuthMode        string        `mapstructure:"auth_mode" yaml:"auth_mode"`
	APIKey          string        `mapstructure:"api_key" yaml:"api_key"`
	AccessKeyID     string        `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string        `mapstructure:"session_token" yaml:"session_token"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string        `mapstructure:"log_format" yaml:"log_format"`
	Definitions     string        `mapstructure:"definitions" yaml:"definitions"`
	Templates       string        `mapstructure:"templates" yaml:"templates"`
}

var keys = []string{
	"endpoint",
	"region",
	"auth_mode",
	"api_key",
	"access_key_id",
	"secret_access_key",
	"session_token",
	"timeout",
	"log_level",
	"log_format",
	"definitions",
	"templates",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
//
// Flags are matched by key with "_" written as "-" (auth_mode is --auth-mode).
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(appName)

	v.SetDefault("endpoint", "")
	v.SetDefault("region", "")
	v.SetDefault("auth_mode", AuthIAM)
	v.SetDefault("api_key", "")
	v.SetDefault("access_key_id", "")
	v.SetDefault("secret_access_key", "")
	v.SetDefault("session_token", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("definitions", "")
	v.SetDefault("templates", "")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	if flags != nil {
		for _, key := range keys {
			flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding %s flag: %w", key, err)
			}
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.AuthMode = strings.ToUpper(strings.TrimSpace(cfg.AuthMode))
	return &cfg, nil
}

// Validate reports settings that make the API unreachable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("endpoint is required"))
	}
	switch c.AuthMode {
	case AuthAPIKey:
		if c.APIKey == "" {
			errs = append(errs, errors.New("api_key is required when auth_mode is API_KEY"))
		}
	case AuthIAM:
		if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
			errs = append(errs, errors.New("access_key_id and secret_access_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth_mode %q is not one of %s, %s", c.AuthMode, AuthAPIKey, AuthIAM))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/pipewizard/pipewizard.yml or
// $XDG_CONFIG_HOME/pipewizard/pipewizard.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, configFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, configFile)
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return configFile
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
