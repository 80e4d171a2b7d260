package config

import "testing"

func TestNewAcceptsValidArguments(t *testing.T) {
	cfg, err := New(9000, 9001, 4, "songs", "127.0.0.1:9090", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.ControlPort != 9000 || cfg.AudioPort != 9001 {
		t.Fatalf("unexpected ports: %+v", cfg)
	}
	if cfg.Workers != 4 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers)
	}
}

func TestNewRejectsSamePort(t *testing.T) {
	if _, err := New(9000, 9000, 4, "songs", "127.0.0.1:9090", ""); err == nil {
		t.Fatal("expected error when control and audio ports match")
	}
}

func TestNewRejectsOutOfRangePort(t *testing.T) {
	if _, err := New(0, 9001, 4, "songs", "127.0.0.1:9090", ""); err == nil {
		t.Fatal("expected error for zero control_port")
	}
	if _, err := New(9000, 70000, 4, "songs", "127.0.0.1:9090", ""); err == nil {
		t.Fatal("expected error for out-of-range audio_port")
	}
}

func TestNewRejectsNonPositiveWorkers(t *testing.T) {
	if _, err := New(9000, 9001, 0, "songs", "127.0.0.1:9090", ""); err == nil {
		t.Fatal("expected error for zero workers")
	}
}

func TestNewRejectsEmptyLibraryRoot(t *testing.T) {
	if _, err := New(9000, 9001, 4, "   ", "127.0.0.1:9090", ""); err == nil {
		t.Fatal("expected error for blank library root")
	}
}

func TestLoadS3FromEnvDisabledWithoutBucket(t *testing.T) {
	s3 := LoadS3FromEnv()
	if s3.Enabled {
		t.Fatal("expected mirror disabled when no bucket is configured")
	}
}

func TestLoadS3FromEnvEnabledWithBucket(t *testing.T) {
	t.Setenv("AETHERCAST_S3_BUCKET", "aethercast-library")
	t.Setenv("AETHERCAST_S3_REGION", "eu-west-1")
	t.Setenv("AETHERCAST_S3_USE_PATH_STYLE", "true")

	s3 := LoadS3FromEnv()
	if !s3.Enabled {
		t.Fatal("expected mirror enabled when bucket is set")
	}
	if s3.Region != "eu-west-1" {
		t.Fatalf("unexpected region: %q", s3.Region)
	}
	if !s3.UsePathStyle {
		t.Fatal("expected path-style addressing to be enabled")
	}
}
