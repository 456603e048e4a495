// Package config loads xlsxflow settings from flags, XLSXFLOW_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. XLSXFLOW_SESSION_TTL.
const EnvPrefix = "XLSXFLOW"

// Keys.
const (
	KeyAddr           = "addr"
	KeyMaxUpload      = "max_upload"
	KeyPreviewRows    = "preview_rows"
	KeyInlineLimit    = "inline_limit"
	KeyTempDir        = "temp_dir"
	KeySessionTTL     = "session.ttl"
	KeySessionHistory = "session.history"
	KeyFetchTimeout   = "fetch.timeout"
	KeyFetchRetries   = "fetch.retries"
	KeyFetchMaxBytes  = "fetch.max_bytes"
	KeyFetchPrivate   = "fetch.allow_private"
	KeyConvertCommand = "convert.command"
	KeyConvertTimeout = "convert.timeout"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
)

// Config is the validated configuration.
type Config struct {
	Addr string
	// MaxUpload caps uploaded and fetched documents, in bytes.
	MaxUpload   int64
	PreviewRows int
	// InlineLimit caps workbooks served as data: URLs, in bytes.
	InlineLimit int64
	TempDir     string
	Session     SessionConfig
	Fetch       FetchConfig
	Convert     ConvertConfig
	Log         LogConfig
}

type SessionConfig struct {
	TTL     time.Duration
	History int
}

type FetchConfig struct {
	Timeout  time.Duration
	Retries  int
	MaxBytes int64
	// AllowPrivate permits fetching from loopback, private and link-local
	// addresses. Off by default so URLs from visitors cannot reach internal
	// services.
	AllowPrivate bool
}

type ConvertConfig struct {
	// Command is the converter command line; empty disables conversion.
	Command string
	Timeout time.Duration
}

type LogConfig struct {
	Level  zerolog.Level
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyMaxUpload, "32MB")
	v.SetDefault(KeyPreviewRows, 50)
	v.SetDefault(KeyInlineLimit, "8MB")
	v.SetDefault(KeyTempDir, "")
	v.SetDefault(KeySessionTTL, "30m")
	v.SetDefault(KeySessionHistory, 10)
	v.SetDefault(KeyFetchTimeout, "30s")
	v.SetDefault(KeyFetchRetries, 2)
	v.SetDefault(KeyFetchMaxBytes, "32MB")
	v.SetDefault(KeyFetchPrivate, false)
	v.SetDefault(KeyConvertCommand, "soffice --headless --convert-to xlsx --outdir {outdir} {input}")
	v.SetDefault(KeyConvertTimeout, "60s")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// BindFlags adds the server flags to fs and binds them to v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.String(KeyAddr, ":8080", "listen address")
	fs.String("max-upload", "32MB", "largest accepted document")
	fs.Int("preview-rows", 50, "rows shown in the sheet preview")
	fs.String("inline-limit", "8MB", "largest workbook served as a data: URL")
	fs.String("temp-dir", "", "parent directory for conversion workspaces")
	fs.Duration("session-ttl", 30*time.Minute, "idle time before a session expires")
	fs.Int("session-history", 10, "undo versions kept per session")
	fs.Duration("fetch-timeout", 30*time.Second, "timeout per remote request")
	fs.Int("fetch-retries", 2, "retries for failed remote requests")
	fs.Bool("fetch-allow-private", false, "allow fetching from loopback and private network addresses")
	fs.String("convert-command", "", "converter command line for legacy formats")
	fs.Duration("convert-timeout", time.Minute, "converter timeout")

	for key, flag := range map[string]string{
		KeyAddr:           KeyAddr,
		KeyMaxUpload:      "max-upload",
		KeyPreviewRows:    "preview-rows",
		KeyInlineLimit:    "inline-limit",
		KeyTempDir:        "temp-dir",
		KeySessionTTL:     "session-ttl",
		KeySessionHistory: "session-history",
		KeyFetchTimeout:   "fetch-timeout",
		KeyFetchRetries:   "fetch-retries",
		KeyFetchPrivate:   "fetch-allow-private",
		KeyConvertCommand: "convert-command",
		KeyConvertTimeout: "convert-timeout",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// BindLogFlags adds the logging flags, shared by every command.
func BindLogFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "console", "log format (console or json)")
	if err := v.BindPFlag(KeyLogLevel, fs.Lookup("log-level")); err != nil {
		return err
	}
	return v.BindPFlag(KeyLogFormat, fs.Lookup("log-format"))
}

// Load reads the optional config file, applies environment overrides and
// returns the validated configuration.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		Addr:        v.GetString(KeyAddr),
		PreviewRows: v.GetInt(KeyPreviewRows),
		TempDir:     v.GetString(KeyTempDir),
		Session: SessionConfig{
			TTL:     v.GetDuration(KeySessionTTL),
			History: v.GetInt(KeySessionHistory),
		},
		Fetch: FetchConfig{
			Timeout:      v.GetDuration(KeyFetchTimeout),
			Retries:      v.GetInt(KeyFetchRetries),
			AllowPrivate: v.GetBool(KeyFetchPrivate),
		},
		Convert: ConvertConfig{
			Command: strings.TrimSpace(v.GetString(KeyConvertCommand)),
			Timeout: v.GetDuration(KeyConvertTimeout),
		},
		Log: LogConfig{Format: strings.ToLower(v.GetString(KeyLogFormat))},
	}

	var err error
	if cfg.MaxUpload, err = size(v, KeyMaxUpload); err != nil {
		return nil, err
	}
	if cfg.InlineLimit, err = size(v, KeyInlineLimit); err != nil {
		return nil, err
	}
	if cfg.Fetch.MaxBytes, err = size(v, KeyFetchMaxBytes); err != nil {
		return nil, err
	}
	if cfg.Log.Level, err = zerolog.ParseLevel(strings.ToLower(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// size parses a byte size such as "32MB", "512 KiB" or a plain number.
func size(v *viper.Viper, key string) (int64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return int64(n), nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%s must not be empty", KeyAddr)
	case c.MaxUpload <= 0:
		return fmt.Errorf("%s must be positive", KeyMaxUpload)
	case c.PreviewRows <= 0:
		return fmt.Errorf("%s must be positive", KeyPreviewRows)
	case c.Session.TTL <= 0:
		return fmt.Errorf("%s must be positive", KeySessionTTL)
	case c.Session.History < 0:
		return fmt.Errorf("%s must not be negative", KeySessionHistory)
	case c.Fetch.Retries < 0:
		return fmt.Errorf("%s must not be negative", KeyFetchRetries)
	case c.Fetch.Timeout <= 0:
		return fmt.Errorf("%s must be positive", KeyFetchTimeout)
	case c.Convert.Timeout <= 0:
		return fmt.Errorf("%s must be positive", KeyConvertTimeout)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%s must be json or console, got %q", KeyLogFormat, c.Log.Format)
	}
	return nil
}

// Logger builds the root logger. Console output goes to w in human-readable
// form; json writes one object per line.
func (c LogConfig) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(c.Level).With().Timestamp().Logger()
}
