package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
)

const (
	StorageCRDB   = "crdb"
	StorageMemory = "memory"

	NotifyQueue = "queue"
	NotifySMTP  = "smtp"
	NotifyLog   = "log"
)

type Config struct {
	HTTPAddr       string
	StorageDriver  string
	CRDBDSN        string
	MongoURI       string
	RedisAddr      string
	RabbitURL      string
	OTLPEndpoint   string
	LogLevel       string
	AllowedDomains []string

	NotifyMode   string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	RateLimitPerMinute int
	IdempotencyTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		StorageDriver:  strings.ToLower(getenv("STORAGE_DRIVER", StorageCRDB)),
		CRDBDSN:        os.Getenv("CRDB_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		AllowedDomains: splitList(os.Getenv("ALLOWED_EMAIL_DOMAINS")),
		NotifyMode:     strings.ToLower(getenv("NOTIFY_MODE", NotifyQueue)),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:       getenv("SMTP_FROM", "noreply@campustickets.example"),
	}
	if len(cfg.AllowedDomains) == 0 {
		cfg.AllowedDomains = append([]string(nil), domain.DefaultAllowedDomains...)
	}

	var err error
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return nil, err
	}

	cfg.IdempotencyTTL = time.Hour
	if s := os.Getenv("IDEMPOTENCY_TTL"); s != "" {
		if cfg.IdempotencyTTL, err = time.ParseDuration(s); err != nil {
			return nil, errors.Wrap(err, "IDEMPOTENCY_TTL")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations Load cannot express per variable.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageCRDB:
		if c.CRDBDSN == "" {
			return errors.New("CRDB_DSN is required when STORAGE_DRIVER=crdb")
		}
	default:
		return errors.Newf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.NotifyMode {
	case NotifyLog:
	case NotifyQueue:
		if c.RabbitURL == "" {
			return errors.New("RABBIT_URL is required when NOTIFY_MODE=queue")
		}
	case NotifySMTP:
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST is required when NOTIFY_MODE=smtp")
		}
	default:
		return errors.Newf("unknown NOTIFY_MODE %q", c.NotifyMode)
	}

	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
