// Package config loads the manager configuration from TOML.
//
//	[log]
//	level = "debug"
//	timestamp = true
//	no_color = false
//
//	[manager]
//	default_timeout = "30s"
//	max_request_id = 4294967294
//	strict_namespaces = false
//	reject_duplicate_ids = false
//	protocols = ["netconf1.0", "netconf1.1"]
//	capabilities = ["urn:ietf:params:netconf:capability:writable-running:1.0"]
//
//	[metrics]
//	namespace = "ncmgr"
//
// The [manager] section is applied with mgr.WithConfig. The [log] and
// [metrics] sections are process-wide: pass Logging to logging.Configure
// and Metrics.Namespace to mgr.NewMetrics, or use mgr.NewFromConfig.
package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/andaru/ncmgr/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Protocol versions which may be enabled
const (
	ProtocolNetconf10 = "netconf1.0"
	ProtocolNetconf11 = "netconf1.1"
)

// DefaultMaxRequestID is the highest message-id issued before the
// per-session counter wraps to zero.
const DefaultMaxRequestID uint32 = 0xfffffffe

type Config struct {
	Log     Log
	Manager Manager
	Metrics Metrics
}

type Log struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

type Manager struct {
	// DefaultTimeout applies to requests which do not set their own; zero
	// disables the timeout.
	DefaultTimeout     time.Duration
	MaxRequestID       uint32
	StrictNamespaces   bool
	RejectDuplicateIDs bool
	Protocols          []string
	// Capabilities are advertised in addition to the base capabilities.
	Capabilities []string
}

type Metrics struct {
	Namespace string
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Log: Log{Level: zerolog.InfoLevel, Timestamp: true},
		Manager: Manager{
			DefaultTimeout: 30 * time.Second,
			MaxRequestID:   DefaultMaxRequestID,
			Protocols:      []string{ProtocolNetconf10, ProtocolNetconf11},
		},
		Metrics: Metrics{Namespace: "ncmgr"},
	}
}

// Logging returns the logging configuration
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Timestamp: c.Log.Timestamp, NoColor: c.Log.NoColor}
}

type fileConfig struct {
	Log struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
	} `toml:"log"`
	Manager struct {
		DefaultTimeout     string   `toml:"default_timeout"`
		MaxRequestID       int64    `toml:"max_request_id"`
		StrictNamespaces   bool     `toml:"strict_namespaces"`
		RejectDuplicateIDs bool     `toml:"reject_duplicate_ids"`
		Protocols          []string `toml:"protocols"`
		Capabilities       []string `toml:"capabilities"`
	} `toml:"manager"`
	Metrics struct {
		Namespace string `toml:"namespace"`
	} `toml:"metrics"`
}

// Load reads the configuration file at path
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	return build(raw, meta)
}

// Parse reads a configuration from TOML text
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return build(raw, meta)
}

func build(raw fileConfig, meta toml.MetaData) (Config, error) {
	cfg := Default()
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("log", "level") {
		lvl, ok := logging.ParseLevel(raw.Log.Level)
		if !ok {
			return Config{}, errors.Errorf("log.level: unknown level %q", raw.Log.Level)
		}
		cfg.Log.Level = lvl
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	m := raw.Manager
	if meta.IsDefined("manager", "default_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(m.DefaultTimeout))
		if err != nil {
			return Config{}, errors.Wrap(err, "manager.default_timeout")
		}
		if d < 0 {
			return Config{}, errors.Errorf("manager.default_timeout: negative duration %s", d)
		}
		cfg.Manager.DefaultTimeout = d
	}
	if meta.IsDefined("manager", "max_request_id") {
		if m.MaxRequestID <= 0 || m.MaxRequestID > int64(DefaultMaxRequestID) {
			return Config{}, errors.Errorf("manager.max_request_id: %d out of range", m.MaxRequestID)
		}
		cfg.Manager.MaxRequestID = uint32(m.MaxRequestID)
	}
	if meta.IsDefined("manager", "strict_namespaces") {
		cfg.Manager.StrictNamespaces = m.StrictNamespaces
	}
	if meta.IsDefined("manager", "reject_duplicate_ids") {
		cfg.Manager.RejectDuplicateIDs = m.RejectDuplicateIDs
	}
	if meta.IsDefined("manager", "protocols") {
		protos, err := normalizeProtocols(m.Protocols)
		if err != nil {
			return Config{}, err
		}
		cfg.Manager.Protocols = protos
	}
	if meta.IsDefined("manager", "capabilities") {
		cfg.Manager.Capabilities = normalize(m.Capabilities)
	}

	if meta.IsDefined("metrics", "namespace") {
		cfg.Metrics.Namespace = strings.TrimSpace(raw.Metrics.Namespace)
	}
	return cfg, nil
}

func normalizeProtocols(in []string) ([]string, error) {
	out := normalize(in)
	if len(out) == 0 {
		return nil, errors.New("manager.protocols: at least one protocol required")
	}
	for _, p := range out {
		if p != ProtocolNetconf10 && p != ProtocolNetconf11 {
			return nil, errors.Errorf("manager.protocols: unknown protocol %q", p)
		}
	}
	return out, nil
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
