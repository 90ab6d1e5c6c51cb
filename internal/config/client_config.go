package config

import (
	"strconv"
	"time"
)

const (
	requestTimeoutVar = "AAMS_REQUEST_TIMEOUT"
	loginPathVar      = "AAMS_LOGIN_PATH"
	rateLimitVar      = "AAMS_RATE_LIMIT"
	rateBurstVar      = "AAMS_RATE_BURST"
	refreshModeVar    = "AAMS_REFRESH_MODE"
)

const (
	RefreshModeSingleFlight = "singleflight"
	RefreshModePerRequest   = "per-request"
)

type Client struct {
	file *File
}

var _ ClientConfig = Client{}

func (c Client) GetRequestTimeout() time.Duration {
	raw := GetEnv(requestTimeoutVar, c.file.value(func(f *File) string { return f.RequestTimeout }, ""))
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

func (c Client) GetLoginPath() string {
	return GetEnv(loginPathVar, c.file.value(func(f *File) string { return f.LoginPath }, "/login"))
}

// GetRateLimit returns the outgoing request rate in requests per second, 0 disables limiting
func (c Client) GetRateLimit() float64 {
	raw := GetEnv(rateLimitVar, c.file.value(func(f *File) string { return f.RateLimit }, "0"))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func (c Client) GetRateBurst() int {
	raw := GetEnv(rateBurstVar, c.file.value(func(f *File) string { return f.RateBurst }, "1"))
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 1
	}
	return v
}

func (c Client) GetRefreshMode() string {
	mode := GetEnv(refreshModeVar, c.file.value(func(f *File) string { return f.RefreshMode }, RefreshModeSingleFlight))
	if mode != RefreshModePerRequest {
		return RefreshModeSingleFlight
	}
	return mode
}
