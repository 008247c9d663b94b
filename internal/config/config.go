/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Event bus backend selection.
type BusBackend string

const (
	BusMemory BusBackend = "memory"
	BusRedis  BusBackend = "redis"
	BusNATS   BusBackend = "nats"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int

	DBBackend DatabaseBackend
	DBDSN     string

	// MediaRoot holds per-tenant track directories; StateRoot holds operator
	// session records. Metadata sidecars live next to the tracks.
	MediaRoot string
	StateRoot string

	// RotationInterval is the period between unattended rotation cycles.
	RotationInterval time.Duration

	// CaptionsPath optionally points at a YAML file overriding the built-in
	// caption pool.
	CaptionsPath string

	// Redis (cache and redis bus backend)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool

	// Event bus
	BusBackendName BusBackend
	NATSURL        string
	InstanceID     string

	// S3 object storage for track payloads (filesystem when bucket empty)
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string
	S3UsePathStyle    bool

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"SQUONK_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"SQUONK_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"SQUONK_HTTP_PORT"}, 8080),

		DBBackend: DatabaseBackend(getEnvAny([]string{"SQUONK_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:     getEnvAny([]string{"SQUONK_DB_DSN"}, "squonk.db"),

		MediaRoot: getEnvAny([]string{"SQUONK_MEDIA_ROOT"}, "./songs"),
		StateRoot: getEnvAny([]string{"SQUONK_STATE_ROOT"}, "./user_sessions"),

		RotationInterval: time.Duration(getEnvIntAny([]string{"SQUONK_ROTATION_INTERVAL_MINUTES"}, 30)) * time.Minute,

		CaptionsPath: getEnvAny([]string{"SQUONK_CAPTIONS_PATH"}, ""),

		RedisAddr:     getEnvAny([]string{"SQUONK_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"SQUONK_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"SQUONK_REDIS_DB"}, 0),
		CacheEnabled:  getEnvBoolAny([]string{"SQUONK_CACHE_ENABLED"}, true),

		BusBackendName: BusBackend(getEnvAny([]string{"SQUONK_BUS_BACKEND"}, string(BusMemory))),
		NATSURL:        getEnvAny([]string{"SQUONK_NATS_URL"}, "nats://localhost:4222"),
		InstanceID:     getEnvAny([]string{"SQUONK_INSTANCE_ID"}, ""),

		S3AccessKeyID:     getEnvAny([]string{"SQUONK_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"SQUONK_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"SQUONK_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"SQUONK_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"SQUONK_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"SQUONK_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		TracingEnabled:    getEnvBoolAny([]string{"SQUONK_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"SQUONK_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"SQUONK_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("SQUONK_DB_DSN must be provided")
	}

	switch cfg.BusBackendName {
	case BusMemory, BusRedis, BusNATS:
	default:
		return nil, fmt.Errorf("unsupported bus backend %q", cfg.BusBackendName)
	}

	if cfg.RotationInterval <= 0 {
		return nil, fmt.Errorf("SQUONK_ROTATION_INTERVAL_MINUTES must be positive")
	}

	return cfg, nil
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
