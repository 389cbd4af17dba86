// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads service configuration in three layers: compiled
// defaults, an optional YAML file, then AUTOML_* environment variables.
// Later layers win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the default config file looked up in the working
// directory; AUTOML_CONFIG overrides the path.
const ConfigFileName = "automl.yaml"

// Config is the resolved service configuration.
type Config struct {
	Port           string        `koanf:"port"`
	SessionTTL     time.Duration `koanf:"session_ttl"`      // 0 disables expiry
	SessionCap     int           `koanf:"session_cap"`      // 0 disables eviction
	PostgresDSN    string        `koanf:"postgres_dsn"`     // empty runs without job records
	OTelEndpoint   string        `koanf:"otel_endpoint"`    // empty disables tracing
	UploadLimitMiB int           `koanf:"upload_limit_mib"` // multipart memory limit
}

func defaults() map[string]any {
	return map[string]any{
		"port":             "12410",
		"session_ttl":      time.Duration(0),
		"session_cap":      0,
		"postgres_dsn":     "",
		"otel_endpoint":    "",
		"upload_limit_mib": 64,
	}
}

// Load resolves the configuration. A missing config file is not an
// error; a present but malformed one is.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	path := os.Getenv("AUTOML_CONFIG")
	if path == "" {
		path = ConfigFileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// AUTOML_SESSION_TTL -> session_ttl, etc.
	if err := k.Load(env.Provider("AUTOML_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "AUTOML_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("load config env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
