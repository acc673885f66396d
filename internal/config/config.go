package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DefaultAllowedTypes — типы вложений, разрешённые по умолчанию (накладные, акты, фото, сканы).
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"text/plain",
	"text/csv",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/zip",
}

type Config struct {
	// Server-side settings
	DatabaseDSN          string        `env:"DATABASE_URI"`
	AttachmentMaxSizeMB  int           `env:"ATTACHMENT_MAX_MB"`
	AttachmentTypes      []string      `env:"ATTACHMENT_ALLOWED_TYPES" envSeparator:","`
	StorageDir           string        `env:"STORAGE_DIR"`
	OrphanGracePeriod    time.Duration `env:"ORPHAN_GRACE_PERIOD"`
	S3Bucket             string        `env:"S3_BUCKET"`
	S3Region             string        `env:"S3_REGION"`
	S3BaseEndpoint       string        `env:"S3_ENDPOINT"`
	S3AccessKeyID        string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey    string        `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL          string        `env:"S3_PUBLIC_URL"`
	RequestTimeoutSecond int           `env:"REQUEST_TIMEOUT"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL    string `env:"-"`
	ClientDBPath string `env:"CLIENT_DB_PATH"`
	Verbose      bool   `env:"-"` // подробный лог клиента в stderr (flag only)
	Version      bool   `env:"-"` // show client version and exit (flag only)
}

// UseS3 — хранить вложения в S3-совместимом хранилище вместо локального каталога.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}

// AttachmentMaxBytes лимит размера одного вложения в байтах.
func (c *Config) AttachmentMaxBytes() int64 {
	return int64(c.AttachmentMaxSizeMB) * 1024 * 1024
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	var allowed string
	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres DSN или путь к файлу SQLite)")
	flag.IntVar(&cfg.AttachmentMaxSizeMB, "attachment-max-mb", cfg.AttachmentMaxSizeMB, "максимальный размер одного вложения, МБ")
	flag.StringVar(&allowed, "attachment-types", strings.Join(cfg.AttachmentTypes, ","), "разрешённые MIME-типы вложений через запятую")
	flag.StringVar(&cfg.StorageDir, "storage-dir", cfg.StorageDir, "каталог локального хранилища файлов")
	flag.DurationVar(&cfg.OrphanGracePeriod, "orphan-grace", cfg.OrphanGracePeriod, "минимальный возраст файла-сироты перед удалением")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 bucket (если задан, вложения хранятся в S3)")
	flag.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3 base endpoint")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the StroyTrack server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	flag.IntVar(&cfg.RequestTimeoutSecond, "timeout", cfg.RequestTimeoutSecond, "таймаут HTTP-запросов клиента, секунды")
	// Client flags
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "path to client SQLite DB")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose client log to stderr")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if allowed != "" {
		cfg.AttachmentTypes = splitList(allowed)
	}
	if len(cfg.AttachmentTypes) == 0 {
		cfg.AttachmentTypes = DefaultAllowedTypes
	}
	if cfg.AttachmentMaxSizeMB <= 0 {
		cfg.AttachmentMaxSizeMB = 50
	}
	if cfg.OrphanGracePeriod <= 0 {
		cfg.OrphanGracePeriod = time.Hour
	}
	if cfg.RequestTimeoutSecond <= 0 {
		cfg.RequestTimeoutSecond = 30
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "stroytrack.db"
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "uploads"
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill client defaults if empty
	if cfg.ClientDBPath == "" {
		home, _ := os.UserHomeDir()
		cfg.ClientDBPath = filepath.Join(home, ".stroytrack")
	}

	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
