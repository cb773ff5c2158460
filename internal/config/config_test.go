package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Overhead.DOAPercent != 15 || cfg.Server.Addr == "" {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.General.StoreDSN = "postgres://localhost/orcamento"
	cfg.Overhead.ISSPercent = 2
	cfg.Template.Path = "/srv/template.xlsx"
	cfg.Log.Format = "json"

	if err := SaveFile(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Fatalf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[overhead]\niss_percent = 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Overhead.ISSPercent != 3 || cfg.Overhead.DOAPercent != 15 {
		t.Fatalf("Overhead = %+v", cfg.Overhead)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[overhead\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStoreDSN_Precedence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("ORCAMENTO_STORE_DSN", "")
	cfg := DefaultConfig()
	if got := StoreDSN(cfg); got != filepath.Join("/data", "orcamento", "plans.db") {
		t.Errorf("default DSN = %q", got)
	}
	cfg.General.StoreDSN = "/tmp/x.db"
	if got := StoreDSN(cfg); got != "/tmp/x.db" {
		t.Errorf("config DSN = %q", got)
	}
	t.Setenv("ORCAMENTO_STORE_DSN", "postgres://db/plans")
	if got := StoreDSN(cfg); got != "postgres://db/plans" {
		t.Errorf("env DSN = %q", got)
	}
}

func TestDefaultOverhead_Clamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overhead.DOAPercent = 140
	if got := cfg.DefaultOverhead(); got.DOAPercent != 100 || got.ISSPercent != 5 {
		t.Fatalf("DefaultOverhead = %+v", got)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "plan", "x")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("log output = %q", out)
	}
	if ParseLevel("bogus") != slog.LevelInfo || ParseLevel("debug") != slog.LevelDebug {
		t.Fatal("ParseLevel mapping wrong")
	}
}
