package worker

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	t.Setenv("INKHORN_DB_PATH", "/tmp/inkhorn-test.db")
	t.Setenv("INKHORN_WORKER_LEASE_TTL", "90s")

	cfg, err := ParseConfig(fs, []string{"-consumer", "worker-e2e", "-poll-interval", "250ms"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/inkhorn-test.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/inkhorn-test.db")
	}
	if cfg.LeaseTTL != 90*time.Second {
		t.Fatalf("lease ttl = %v, want 90s", cfg.LeaseTTL)
	}
	if cfg.Consumer != "worker-e2e" {
		t.Fatalf("consumer = %q, want %q", cfg.Consumer, "worker-e2e")
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("poll interval = %v, want 250ms", cfg.PollInterval)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Consumer != "inkhorn-worker" {
		t.Fatalf("consumer = %q, want %q", cfg.Consumer, "inkhorn-worker")
	}
	if cfg.CycleInterval != time.Hour {
		t.Fatalf("cycle interval = %v, want 1h", cfg.CycleInterval)
	}
	if !cfg.PublishGrants {
		t.Fatal("publish grants should default to enabled")
	}
}
