package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrInvalidJWTSecret   = errors.New("JWT_SECRET must be at least 32 bytes")
)

type Config struct {
	HTTPPort    string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration

	// RequestDelay is applied to every REST request before it is handled.
	// It reproduces the deliberate throttle of the original deployment and
	// can be set to 0 to disable it.
	RequestDelay   time.Duration
	RequestTimeout time.Duration

	CORSAllowedOrigins []string

	WSWriteWait   time.Duration
	WSPongWait    time.Duration
	WSPingPeriod  time.Duration
	WSMaxMsgSize  int64
	WSSendBufSize int
	WSAuthTimeout time.Duration
}

func Load() (Config, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}

	if len(jwtSecret) < 32 {
		return Config{}, fmt.Errorf("%w: got %d bytes", ErrInvalidJWTSecret, len(jwtSecret))
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}

	return Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        databaseURL,
		JWTSecret:          jwtSecret,
		TokenTTL:           getDurationEnv("TOKEN_TTL", 24*time.Hour),
		RequestDelay:       getDurationEnv("REQUEST_DELAY", 2*time.Second),
		RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", 5*time.Second),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		WSWriteWait:        getDurationEnv("WS_WRITE_WAIT", 10*time.Second),
		WSPongWait:         getDurationEnv("WS_PONG_WAIT", 60*time.Second),
		WSPingPeriod:       getDurationEnv("WS_PING_PERIOD", 54*time.Second),
		WSMaxMsgSize:       getInt64Env("WS_MAX_MSG_SIZE", 64*1024),
		WSSendBufSize:      getIntEnv("WS_SEND_BUF_SIZE", 256),
		WSAuthTimeout:      getDurationEnv("WS_AUTH_TIMEOUT", 5*time.Second),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getListEnv(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
