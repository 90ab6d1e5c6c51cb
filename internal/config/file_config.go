package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors the optional aams.yaml configuration file. Values are strings
// so that they share parsing with the environment variables that override them.
type File struct {
	AppName           string `yaml:"app_name"`
	Env               string `yaml:"env"`
	APIBaseURL        string `yaml:"api_base_url"`
	SessionFile       string `yaml:"session_file"`
	SessionPassphrase string `yaml:"session_passphrase"`
	LogLevel          string `yaml:"log_level"`
	RequestTimeout    string `yaml:"request_timeout"`
	LoginPath         string `yaml:"login_path"`
	RateLimit         string `yaml:"rate_limit"`
	RateBurst         string `yaml:"rate_burst"`
	RefreshMode       string `yaml:"refresh_mode"`
}

// ReadFile parses a YAML config file
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config ReadFile] failed to read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("[config ReadFile] failed to parse %s: %w", path, err)
	}
	return &f, nil
}

func (f *File) value(get func(*File) string, defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v := get(f); v != "" {
		return v
	}
	return defaultValue
}
