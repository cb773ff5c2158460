package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/graest/orcamento/internal/model"
)

// Config holds all orcamento configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Overhead OverheadConfig `toml:"overhead"`
	Template TemplateConfig `toml:"template"`
	Export   ExportConfig   `toml:"export"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	// StoreDSN is a SQLite file path or a postgres:// URL.
	StoreDSN string `toml:"store_dsn,omitempty"`
}

// OverheadConfig holds the percentages given to new plans.
type OverheadConfig struct {
	ISSPercent     float64 `toml:"iss_percent"`
	DOAPercent     float64 `toml:"doa_percent"`
	ReservePercent float64 `toml:"reserva_percent"`
}

// TemplateConfig locates the workbook template and the institutional
// workbook it is built from.
type TemplateConfig struct {
	Path       string `toml:"path,omitempty"`
	SourcePath string `toml:"source_path,omitempty"`
}

// ExportConfig holds export preferences.
type ExportConfig struct {
	OutputDir string `toml:"output_dir,omitempty"`
}

// ServerConfig holds export service settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	d := model.DefaultOverhead()
	return Config{
		Overhead: OverheadConfig{
			ISSPercent:     d.ISSPercent,
			DOAPercent:     d.DOAPercent,
			ReservePercent: d.ReservePercent,
		},
		Export: ExportConfig{OutputDir: "."},
		Server: ServerConfig{Addr: "127.0.0.1:8740"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "orcamento")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "orcamento")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "orcamento")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "orcamento")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user or XDG dirs
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// StoreDSN returns the store location from env var or config, in that
// order, falling back to a SQLite file in the data directory.
func StoreDSN(cfg Config) string {
	if dsn := os.Getenv("ORCAMENTO_STORE_DSN"); dsn != "" {
		return dsn
	}
	if cfg.General.StoreDSN != "" {
		return cfg.General.StoreDSN
	}
	return filepath.Join(DataDir(), "plans.db")
}

// DefaultOverhead converts the configured percentages for a new plan.
func (c Config) DefaultOverhead() model.OverheadConfig {
	return model.OverheadConfig{
		ISSPercent:     c.Overhead.ISSPercent,
		DOAPercent:     c.Overhead.DOAPercent,
		ReservePercent: c.Overhead.ReservePercent,
	}.Clamped()
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// NewLogger builds the process logger writing to w.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a slog level; unknown names are info.
func ParseLevel(name string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
