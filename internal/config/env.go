package config

import (
	"os"
	"strings"
)

// applyEnv overlays environment variables (populated from .env in main.go)
// on top of the file values.
func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Strava.ClientID, "STRAVA_CLIENT_ID")
	setFromEnv(&cfg.Strava.ClientSecret, "STRAVA_CLIENT_SECRET")
	setFromEnv(&cfg.Strava.RefreshToken, "STRAVA_REFRESH_TOKEN")
	setFromEnv(&cfg.Strava.AuthEndpoint, "STRAVA_AUTH_ENDPOINT")
	setFromEnv(&cfg.Strava.ActivitiesEndpoint, "STRAVA_ACTIVITIES_ENDPOINT")

	setFromEnv(&cfg.Sink.Driver, "SINK_DRIVER")
	setFromEnv(&cfg.Sink.DSN, "SQL_CONNECTION_STRING")
	setFromEnv(&cfg.Archive.URI, "MONGO_CONNECTION_STRING")
	setFromEnv(&cfg.Lock.RedisURL, "REDIS_URL")
	setFromEnv(&cfg.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	setFromEnv(&cfg.Log.File, "LOG_FILE")
	setFromEnv(&cfg.Log.Level, "LOG_LEVEL")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Notify.Brokers = splitAndTrim(brokers)
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
