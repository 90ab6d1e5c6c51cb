package config

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	appNameVar           = "APP_NAME"
	envVar               = "ENV"
	baseURLVar           = "AAMS_API_BASE_URL"
	sessionFileVar       = "AAMS_SESSION_FILE"
	sessionPassphraseVar = "AAMS_SESSION_PASSPHRASE"
	logLevelVar          = "LOG_LEVEL"

	// DefaultAPIBaseURL is used when no base URL is configured or the configured one is invalid
	DefaultAPIBaseURL = "http://127.0.0.1:8000"
)

type EnvVars struct {
	file *File
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameVar, e.file.value(func(f *File) string { return f.AppName }, "AAMS"))
}

func (e EnvVars) GetEnv() string {
	return GetEnv(envVar, e.file.value(func(f *File) string { return f.Env }, "DEV"))
}

// GetAPIBaseURL returns the AAMS API base URL (e.g., "http://127.0.0.1:8000")
// An unparseable value falls back to DefaultAPIBaseURL
func (e EnvVars) GetAPIBaseURL() string {
	baseURL := GetEnv(baseURLVar, e.file.value(func(f *File) string { return f.APIBaseURL }, DefaultAPIBaseURL))
	if !ValidBaseURL(baseURL) {
		log.Warn().Str("base_url", baseURL).Msg("Invalid API base URL, using default")
		return DefaultAPIBaseURL
	}
	return baseURL
}

func (e EnvVars) GetSessionFile() string {
	defaultPath := ".aams-session.json"
	if home, err := os.UserHomeDir(); err == nil {
		defaultPath = filepath.Join(home, ".aams", "session.json")
	}
	return GetEnv(sessionFileVar, e.file.value(func(f *File) string { return f.SessionFile }, defaultPath))
}

// GetSessionPassphrase returns the passphrase used to seal the session file, empty means plaintext
func (e EnvVars) GetSessionPassphrase() string {
	return GetEnv(sessionPassphraseVar, e.file.value(func(f *File) string { return f.SessionPassphrase }, ""))
}

func (e EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, e.file.value(func(f *File) string { return f.LogLevel }, "info"))
}

// ValidBaseURL reports whether raw is an absolute http(s) URL
func ValidBaseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
