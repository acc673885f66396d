package config

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	// подавляем вывод парсера флагов в тестах
	flag.CommandLine.SetOutput(os.Stderr)
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	t.Setenv("DATABASE_URI", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("ENABLE_HTTPS", "")
	t.Setenv("ATTACHMENT_MAX_MB", "")
	t.Setenv("ATTACHMENT_ALLOWED_TYPES", "")
	t.Setenv("STORAGE_DIR", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("CLIENT_DB_PATH", "")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.AttachmentMaxSizeMB != 50 {
		t.Fatalf("AttachmentMaxSizeMB default expected 50, got %d", cfg.AttachmentMaxSizeMB)
	}
	if cfg.AttachmentMaxBytes() != 50*1024*1024 {
		t.Fatalf("AttachmentMaxBytes mismatch: %d", cfg.AttachmentMaxBytes())
	}
	if len(cfg.AttachmentTypes) != len(DefaultAllowedTypes) {
		t.Fatalf("default allow list expected, got %v", cfg.AttachmentTypes)
	}
	if cfg.BaseURL != "localhost:8081" {
		t.Fatalf("BaseURL default expected 'localhost:8081', got %q", cfg.BaseURL)
	}
	if cfg.ServerURL != "http://localhost:8081" {
		t.Fatalf("ServerURL default expected 'http://localhost:8081', got %q", cfg.ServerURL)
	}
	if cfg.OrphanGracePeriod != time.Hour {
		t.Fatalf("OrphanGracePeriod default expected 1h, got %v", cfg.OrphanGracePeriod)
	}
	if cfg.UseS3() {
		t.Fatalf("S3 must be disabled without bucket")
	}
	if cfg.ClientDBPath == "" || cfg.StorageDir == "" || cfg.DatabaseDSN == "" {
		t.Fatalf("defaults must be non-empty: ClientDBPath=%q StorageDir=%q DSN=%q", cfg.ClientDBPath, cfg.StorageDir, cfg.DatabaseDSN)
	}
}

func TestNewConfig_BaseURLAndHTTPS(t *testing.T) {
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("ENABLE_HTTPS", "true")
	t.Setenv("ATTACHMENT_MAX_MB", "10")
	t.Setenv("ATTACHMENT_ALLOWED_TYPES", "application/pdf, image/png")
	t.Setenv("S3_BUCKET", "receipts")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "example.com:443" {
		t.Fatalf("BaseURL expected 'example.com:443', got %q", cfg.BaseURL)
	}
	if cfg.ServerURL != "https://example.com:443" {
		t.Fatalf("ServerURL expected 'https://example.com:443', got %q", cfg.ServerURL)
	}
	if cfg.AttachmentMaxSizeMB != 10 {
		t.Fatalf("AttachmentMaxSizeMB expected 10, got %d", cfg.AttachmentMaxSizeMB)
	}
	if strings.Join(cfg.AttachmentTypes, "|") != "application/pdf|image/png" {
		t.Fatalf("allow list from env mismatch: %v", cfg.AttachmentTypes)
	}
	if !cfg.UseS3() {
		t.Fatalf("S3 must be enabled when bucket set")
	}
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	// Невалидный BASE_URL (со схемой) должен откатиться на localhost:8081
	t.Setenv("BASE_URL", "http://bad:8080")
	t.Setenv("ENABLE_HTTPS", "false")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "localhost:8081" {
		t.Fatalf("invalid BASE_URL must fallback to 'localhost:8081', got %q", cfg.BaseURL)
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://localhost:8081") {
		t.Fatalf("ServerURL must reflect fallback base, got %q", cfg.ServerURL)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,c")
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected split: %v", got)
	}
}
