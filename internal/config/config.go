/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package config resolves process configuration: the two positional port
// arguments and flags parsed by the cobra root command, plus the
// environment-driven settings for the optional S3 library mirror.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config covers everything the broadcaster needs to start: the two listen
// ports are mandatory positional arguments: everything else is a flag with
// a sensible default, matching the external-interfaces contract that only
// control_port and audio_port are required invocation arguments.
type Config struct {
	ControlPort int
	AudioPort   int
	Workers     int
	LibraryRoot string
	AdminBind   string
	GeoIPPath   string // empty disables GeoIP enrichment on /status

	S3 S3Config
}

// S3Config describes the optional best-effort library mirror. It is
// disabled unless a bucket is configured.
type S3Config struct {
	Enabled       bool
	Bucket        string
	Region        string
	Endpoint      string
	UsePathStyle  bool
	PublicBaseURL string
}

// New validates and assembles a Config from already-parsed CLI values. It
// is the caller's job (the cobra command) to parse flags; this function
// only validates, matching the "invalid arguments" fatal-error exit case.
func New(controlPort, audioPort, workers int, libraryRoot, adminBind, geoIPPath string) (*Config, error) {
	if controlPort <= 0 || controlPort > 65535 {
		return nil, fmt.Errorf("control_port out of range: %d", controlPort)
	}
	if audioPort <= 0 || audioPort > 65535 {
		return nil, fmt.Errorf("audio_port out of range: %d", audioPort)
	}
	if controlPort == audioPort {
		return nil, fmt.Errorf("control_port and audio_port must differ")
	}
	if workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", workers)
	}
	if strings.TrimSpace(libraryRoot) == "" {
		return nil, fmt.Errorf("library root must not be empty")
	}

	return &Config{
		ControlPort: controlPort,
		AudioPort:   audioPort,
		Workers:     workers,
		LibraryRoot: libraryRoot,
		AdminBind:   adminBind,
		GeoIPPath:   geoIPPath,
		S3:          LoadS3FromEnv(),
	}, nil
}

// LoadS3FromEnv reads the optional S3 mirror settings from the environment.
// The mirror is enabled only when a bucket name is present; every other
// field falls back to a sane default.
func LoadS3FromEnv() S3Config {
	bucket := getEnvAny([]string{"AETHERCAST_S3_BUCKET"}, "")
	return S3Config{
		Enabled:       bucket != "",
		Bucket:        bucket,
		Region:        getEnvAny([]string{"AETHERCAST_S3_REGION", "AWS_REGION"}, "us-east-1"),
		Endpoint:      getEnvAny([]string{"AETHERCAST_S3_ENDPOINT"}, ""),
		UsePathStyle:  getEnvBoolAny([]string{"AETHERCAST_S3_USE_PATH_STYLE"}, false),
		PublicBaseURL: getEnvAny([]string{"AETHERCAST_S3_PUBLIC_BASE_URL"}, ""),
	}
}

func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

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
