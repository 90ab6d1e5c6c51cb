package config

import "time"

// ConfigFileVar names the YAML config file when no --config flag is given
const ConfigFileVar = "AAMS_CONFIG"

type Config interface {
	EnvConfig
	ClientConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetAPIBaseURL() string
	GetSessionFile() string
	GetSessionPassphrase() string
	GetLogLevel() string
}

type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetLoginPath() string
	GetRateLimit() float64
	GetRateBurst() int
	GetRefreshMode() string
}

type mainConfig struct {
	EnvVars
	Client
}

// New returns a Config backed by environment variables only
func New() Config {
	return mainConfig{}
}

// Load returns a Config whose defaults come from the YAML file at path.
// Environment variables still take precedence over file values.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return mainConfig{EnvVars: EnvVars{file: f}, Client: Client{file: f}}, nil
}
