// Package config provides application configuration loaded from environment
// variables and the environments file they point at.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string
	LogFormat string

	// Migration settings. From, To and Forms override the environments file.
	EnvironmentsFile string
	From             string
	To               string
	Forms            []string
	IsolateFailures  bool
	HTTPTimeout      time.Duration

	// API server settings.
	APIPort      string
	CORSOrigins  []string
	OIDCIssuer   string
	OIDCAudience string
	OTelEnabled  bool
	// OTelSampleRatio is the fraction of root spans sampled.
	OTelSampleRatio float64
	RouteRPS        float64
	RunsPerWindow   int
	RunWindow       time.Duration

	// Result publishing.
	CloudWatchNamespace string
	AWSRegion           string
	AWSProfile          string
	AWSRole             string

	TemporalAddress   string
	TemporalNamespace string
	// WorkerQueues is the raw comma-separated queue list the worker polls.
	WorkerQueues string
}

// LoadFromEnv reads configuration from environment variables with sensible defaults.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		LogLevel:            envOr("PARITY_LOG_LEVEL", "info"),
		LogFormat:           envOr("PARITY_LOG_FORMAT", "json"),
		EnvironmentsFile:    os.Getenv("PARITY_ENVIRONMENTS_FILE"),
		From:                os.Getenv("PARITY_FROM"),
		To:                  os.Getenv("PARITY_TO"),
		Forms:               splitList(os.Getenv("PARITY_FORMS")),
		APIPort:             envOr("PARITY_API_PORT", "8080"),
		CORSOrigins:         parseCORSOrigins(os.Getenv("PARITY_CORS_ORIGINS")),
		OIDCIssuer:          os.Getenv("PARITY_OIDC_ISSUER"),
		OIDCAudience:        os.Getenv("PARITY_OIDC_AUDIENCE"),
		CloudWatchNamespace: os.Getenv("PARITY_CLOUDWATCH_NAMESPACE"),
		AWSRegion:           envOr("AWS_REGION", "us-east-1"),
		AWSProfile:          os.Getenv("AWS_PROFILE"),
		AWSRole:             os.Getenv("PARITY_AWS_ROLE"),
		TemporalAddress:     envOr("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:   envOr("TEMPORAL_NAMESPACE", "default"),
		WorkerQueues:        envOr("PARITY_WORKER_QUEUES", "check,publish"),
	}

	var err error
	if cfg.IsolateFailures, err = envBool("PARITY_ISOLATE_FAILURES", false); err != nil {
		return Config{}, err
	}
	if cfg.OTelEnabled, err = envBool("PARITY_OTEL_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = envDuration("PARITY_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RunWindow, err = envDuration("PARITY_RUN_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}

	ratio := envOr("PARITY_OTEL_SAMPLE_RATIO", "1")
	if cfg.OTelSampleRatio, err = strconv.ParseFloat(ratio, 64); err != nil || cfg.OTelSampleRatio < 0 || cfg.OTelSampleRatio > 1 {
		return Config{}, fmt.Errorf("config: invalid PARITY_OTEL_SAMPLE_RATIO %q (must be between 0 and 1)", ratio)
	}

	rps := envOr("PARITY_ROUTE_RPS", "5")
	if cfg.RouteRPS, err = strconv.ParseFloat(rps, 64); err != nil || cfg.RouteRPS <= 0 {
		return Config{}, fmt.Errorf("config: invalid PARITY_ROUTE_RPS %q (must be a positive number)", rps)
	}
	runs := envOr("PARITY_RUNS_PER_WINDOW", "2")
	if cfg.RunsPerWindow, err = strconv.Atoi(runs); err != nil || cfg.RunsPerWindow <= 0 {
		return Config{}, fmt.Errorf("config: invalid PARITY_RUNS_PER_WINDOW %q (must be a positive integer)", runs)
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("config: invalid PARITY_LOG_FORMAT %q (must be json or console)", cfg.LogFormat)
	}

	return cfg, nil
}

// OIDCEnabled reports whether API authentication is configured.
func (c Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCAudience != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s %q (must be a boolean)", key, v)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q (must be a positive duration)", key, v)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseCORSOrigins(raw string) []string {
	origins := splitList(raw)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
