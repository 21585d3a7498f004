// Package config builds the job configuration once at process start from an
// optional YAML file and environment variables.
package config

import (
	"errors"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Strava  StravaConfig  `yaml:"strava"`
	Sink    SinkConfig    `yaml:"sink"`
	Archive ArchiveConfig `yaml:"archive"`
	Lock    LockConfig    `yaml:"lock"`
	Notify  NotifyConfig  `yaml:"notify"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// StravaConfig holds the API endpoints and refresh-token credentials.
type StravaConfig struct {
	AuthEndpoint       string `yaml:"auth_endpoint"`
	ActivitiesEndpoint string `yaml:"activities_endpoint"`
	ClientID           string `yaml:"client_id"`
	ClientSecret       string `yaml:"client_secret"`
	RefreshToken       string `yaml:"refresh_token"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout for API calls.
func (c StravaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SinkConfig selects the relational store. Driver is "sqlserver" or "postgres".
type SinkConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	Table        string `yaml:"table"`
	HistoryTable string `yaml:"history_table"`
}

// ArchiveConfig enables the raw payload archive when URI is set.
type ArchiveConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// LockConfig enables the overlapping-run guard when RedisURL is set.
type LockConfig struct {
	RedisURL   string `yaml:"redis_url"`
	Key        string `yaml:"key"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// TTL returns the lock expiry.
func (c LockConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// NotifyConfig enables run events when Brokers is non-empty.
type NotifyConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MetricsConfig enables a Pushgateway push when PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// LogConfig controls the logger.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
)

func (c *Config) applyDefaults() {
	if c.Strava.AuthEndpoint == "" {
		c.Strava.AuthEndpoint = "https://www.strava.com/oauth/token"
	}
	if c.Strava.ActivitiesEndpoint == "" {
		c.Strava.ActivitiesEndpoint = "https://www.strava.com/api/v3/athlete/activities"
	}
	if c.Strava.TimeoutSeconds == 0 {
		c.Strava.TimeoutSeconds = 30
	}
	if c.Sink.Driver == "" {
		c.Sink.Driver = DriverSQLServer
	}
	if c.Sink.Table == "" {
		c.Sink.Table = "strava_activity"
	}
	if c.Sink.HistoryTable == "" {
		c.Sink.HistoryTable = "update_history"
	}
	if c.Archive.Database == "" {
		c.Archive.Database = "strava"
	}
	if c.Archive.Collection == "" {
		c.Archive.Collection = "raw_activities"
	}
	if c.Lock.Key == "" {
		c.Lock.Key = "activity-etl"
	}
	if c.Lock.TTLMinutes == 0 {
		c.Lock.TTLMinutes = 120
	}
	if c.Notify.Topic == "" {
		c.Notify.Topic = "activity-etl.runs"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "activity_etl"
	}
}

// Validate reports the first missing or invalid required setting.
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" {
		return errors.New("STRAVA_CLIENT_ID not set")
	}
	if c.Strava.ClientSecret == "" {
		return errors.New("STRAVA_CLIENT_SECRET not set")
	}
	if c.Strava.RefreshToken == "" {
		return errors.New("STRAVA_REFRESH_TOKEN not set")
	}
	return c.ValidateSink()
}

// ValidateSink checks only the sink settings, for commands that never call the API.
func (c *Config) ValidateSink() error {
	if c.Sink.DSN == "" {
		return errors.New("SQL_CONNECTION_STRING environment variable not set")
	}
	switch c.Sink.Driver {
	case DriverSQLServer, DriverPostgres:
	default:
		return errors.New("unsupported sink driver: " + c.Sink.Driver)
	}
	return nil
}
