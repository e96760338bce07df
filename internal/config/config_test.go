package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("NOTIFY_MODE", "log")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("IDEMPOTENCY_TTL", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.SMTPPort != 587 || cfg.RateLimitPerMinute != 60 || cfg.IdempotencyTTL != time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedDomains, []string{"nebraska.edu", "huskers.unl.edu", "unl.edu"}) {
		t.Errorf("allowed domains = %v", cfg.AllowedDomains)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "CRDB")
	t.Setenv("CRDB_DSN", "postgresql://root@localhost:26257/cte?sslmode=disable")
	t.Setenv("NOTIFY_MODE", "smtp")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", " unl.edu , ,creighton.edu")
	t.Setenv("IDEMPOTENCY_TTL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageDriver != StorageCRDB || cfg.SMTPPort != 2525 || cfg.IdempotencyTTL != 10*time.Minute {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedDomains, []string{"unl.edu", "creighton.edu"}) {
		t.Errorf("allowed domains = %v", cfg.AllowedDomains)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":      {"STORAGE_DRIVER": "memory", "NOTIFY_MODE": "log", "SMTP_PORT": "smtp"},
		"bad ttl":       {"STORAGE_DRIVER": "memory", "NOTIFY_MODE": "log", "IDEMPOTENCY_TTL": "forever"},
		"missing dsn":   {"STORAGE_DRIVER": "crdb", "CRDB_DSN": "", "NOTIFY_MODE": "log"},
		"bad driver":    {"STORAGE_DRIVER": "sqlite", "NOTIFY_MODE": "log"},
		"missing queue": {"STORAGE_DRIVER": "memory", "NOTIFY_MODE": "queue", "RABBIT_URL": ""},
		"missing smtp":  {"STORAGE_DRIVER": "memory", "NOTIFY_MODE": "smtp", "SMTP_HOST": ""},
		"bad mode":      {"STORAGE_DRIVER": "memory", "NOTIFY_MODE": "pager"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"SMTP_PORT", "IDEMPOTENCY_TTL", "RATE_LIMIT_PER_MINUTE"} {
				t.Setenv(k, "")
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
