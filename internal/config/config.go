package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabasePath      string
	Port              string
	AgentPort         string
	LogLevel          string
	UpstreamURL       string
	PushURL           string
	PollInterval      time.Duration
	HydrationDelay    time.Duration
	RecurringInterval time.Duration
	RequestTimeout    time.Duration
}

// Load reads an optional .env file and then the environment. Values already
// set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := Config{
		DatabasePath:      v.GetString("DATABASE_PATH"),
		Port:              v.GetString("PORT"),
		AgentPort:         v.GetString("AGENT_PORT"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		UpstreamURL:       strings.TrimRight(v.GetString("UPSTREAM_URL"), "/"),
		PushURL:           v.GetString("PUSH_URL"),
		PollInterval:      v.GetDuration("POLL_INTERVAL"),
		HydrationDelay:    v.GetDuration("HYDRATION_DELAY"),
		RecurringInterval: v.GetDuration("RECURRING_INTERVAL"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
	}
	if config.PushURL == "" {
		config.PushURL = pushURLFor(config.UpstreamURL)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_PATH", "./data/hotelpark.db")
	v.SetDefault("PORT", "8080")
	v.SetDefault("AGENT_PORT", "8081")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("UPSTREAM_URL", "http://localhost:8080")
	v.SetDefault("PUSH_URL", "")
	v.SetDefault("POLL_INTERVAL", "15s")
	v.SetDefault("HYDRATION_DELAY", "2s")
	v.SetDefault("RECURRING_INTERVAL", "15m")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
}

func (config Config) validate() error {
	var errs []error
	for name, port := range map[string]string{"PORT": config.Port, "AGENT_PORT": config.AgentPort} {
		if number, err := strconv.Atoi(port); err != nil || number <= 0 || number > 65535 {
			errs = append(errs, fmt.Errorf("%s must be a valid port, got %q", name, port))
		}
	}
	durations := map[string]time.Duration{
		"POLL_INTERVAL":      config.PollInterval,
		"HYDRATION_DELAY":    config.HydrationDelay,
		"RECURRING_INTERVAL": config.RecurringInterval,
		"REQUEST_TIMEOUT":    config.RequestTimeout,
	}
	for name, duration := range durations {
		if duration <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration", name))
		}
	}
	if !strings.HasPrefix(config.UpstreamURL, "http://") && !strings.HasPrefix(config.UpstreamURL, "https://") {
		errs = append(errs, fmt.Errorf("UPSTREAM_URL must be an http(s) URL, got %q", config.UpstreamURL))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (config Config) SlogLevel() slog.Level {
	switch config.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func pushURLFor(upstreamURL string) string {
	switch {
	case strings.HasPrefix(upstreamURL, "https://"):
		return "wss://" + strings.TrimPrefix(upstreamURL, "https://") + "/ws"
	case strings.HasPrefix(upstreamURL, "http://"):
		return "ws://" + strings.TrimPrefix(upstreamURL, "http://") + "/ws"
	default:
		return upstreamURL + "/ws"
	}
}
