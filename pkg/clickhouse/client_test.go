package clickhouse

import (
	"context"
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.local")(cfg)
	WithDatabase("agri")(cfg)
	WithCredentials("reader", "p@ss")(cfg)
	WithMaxExecutionTime(30 * time.Second)(cfg)
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	u, err := url.Parse(buildDSN(*cfg))
	if err != nil {
		t.Fatalf("dsn does not parse: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/agri" {
		t.Fatalf("unexpected dsn %s", u.String())
	}
	if pw, _ := u.User.Password(); pw != "p@ss" || u.User.Username() != "reader" {
		t.Fatalf("credentials lost: %v", u.User)
	}
	q := u.Query()
	if q.Get("max_execution_time") != "30" {
		t.Fatalf("max_execution_time=%q", q.Get("max_execution_time"))
	}
	if q.Get("dial_timeout") != "5s" || q.Get("read_timeout") != "10s" {
		t.Fatalf("timeouts=%v", q)
	}
	if q.Has("write_timeout") {
		t.Fatalf("write_timeout must not be sent")
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.local")(cfg)
	WithHTTP(true)(cfg)
	WithTimeouts(0, 0, 0)(cfg)
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	u, err := url.Parse(buildDSN(*cfg))
	if err != nil {
		t.Fatalf("dsn does not parse: %v", err)
	}
	if u.Scheme != "http" || u.Host != "ch.local:8123" {
		t.Fatalf("unexpected dsn %s", u.String())
	}
	if u.RawQuery != "dial_timeout=5s" {
		t.Fatalf("expected only the fallback dial timeout, got %q", u.RawQuery)
	}
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	if _, err := NewClient(context.Background()); err == nil {
		t.Fatalf("expected error without host")
	}
	if _, err := NewClient(context.Background(), WithHost("ch.local"), WithDatabase("agri; DROP")); err == nil {
		t.Fatalf("expected error for non-identifier database")
	}
}

func TestValidateClampsIdleConns(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.local")(cfg)
	WithMaxConnections(4, 8)(cfg)
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.MaxIdleConns != 4 || cfg.Port != 9000 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
