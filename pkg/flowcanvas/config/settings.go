package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings holds the runtime configuration of the flowcanvas binary.
type Settings struct {
	// Addr is the HTTP listen address.
	Addr string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is text or json.
	LogFormat string

	// ChatEndpoint receives POST {"prompt": ...} from ai nodes.
	ChatEndpoint string
	// ChatTimeout bounds a single chat request.
	ChatTimeout time.Duration
	// ChatAttempts is the number of tries before the mock reply is used.
	ChatAttempts int

	// JournalPath selects a SQLite run journal; empty keeps it in memory.
	JournalPath string
	// MaxChainSteps stops a chain walk after this many node runs.
	MaxChainSteps int
	// LogCapacity is the number of output lines retained.
	LogCapacity int

	// Metrics enables OpenTelemetry metrics.
	Metrics bool
	// Tracing enables OpenTelemetry tracing.
	Tracing bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Addr:          ":8080",
		LogLevel:      "info",
		LogFormat:     "text",
		ChatEndpoint:  "http://localhost:8000/api/chat",
		ChatTimeout:   10 * time.Second,
		ChatAttempts:  1,
		MaxChainSteps: 1000,
		LogCapacity:   200,
	}
}

// SettingsFrom overlays values from cfg onto the defaults.
//
//	addr: ":8080"
//	log:     {level: info, format: text}
//	chat:    {endpoint: http://..., timeout: 10s, attempts: 2}
//	journal: {path: ./runs.db}
//	engine:  {max_steps: 1000}
//	output:  {capacity: 200}
//	observability: {metrics: true, tracing: false}
func SettingsFrom(cfg Config) Settings {
	s := DefaultSettings()

	s.Addr = cfg.String("addr", s.Addr)

	logCfg := cfg.Section("log")
	s.LogLevel = logCfg.String("level", s.LogLevel)
	s.LogFormat = logCfg.String("format", s.LogFormat)

	chat := cfg.Section("chat")
	s.ChatEndpoint = chat.String("endpoint", s.ChatEndpoint)
	s.ChatTimeout = chat.Duration("timeout", s.ChatTimeout)
	s.ChatAttempts = chat.Int("attempts", s.ChatAttempts)

	s.JournalPath = cfg.Section("journal").String("path", s.JournalPath)
	s.MaxChainSteps = cfg.Section("engine").Int("max_steps", s.MaxChainSteps)
	s.LogCapacity = cfg.Section("output").Int("capacity", s.LogCapacity)

	obs := cfg.Section("observability")
	s.Metrics = obs.Bool("metrics", s.Metrics)
	s.Tracing = obs.Bool("tracing", s.Tracing)

	return s
}

// ApplyEnv overrides settings from FLOWCANVAS_* variables found by lookup.
// Malformed numeric or duration values are reported as errors.
func ApplyEnv(s Settings, lookup func(string) (string, bool)) (Settings, error) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("FLOWCANVAS_ADDR", &s.Addr)
	str("FLOWCANVAS_LOG_LEVEL", &s.LogLevel)
	str("FLOWCANVAS_LOG_FORMAT", &s.LogFormat)
	str("FLOWCANVAS_CHAT_ENDPOINT", &s.ChatEndpoint)
	str("FLOWCANVAS_JOURNAL_PATH", &s.JournalPath)

	if v, ok := lookup("FLOWCANVAS_CHAT_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("FLOWCANVAS_CHAT_TIMEOUT: %w", err)
		}
		s.ChatTimeout = d
	}
	if v, ok := lookup("FLOWCANVAS_MAX_CHAIN_STEPS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("FLOWCANVAS_MAX_CHAIN_STEPS: %w", err)
		}
		s.MaxChainSteps = n
	}
	return s, nil
}

// LoadSettings reads path (if non-empty) and applies environment overrides.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path != "" {
		cfg, err := FromFile(path)
		if err != nil {
			return s, err
		}
		s = SettingsFrom(cfg)
	}
	return ApplyEnv(s, os.LookupEnv)
}
