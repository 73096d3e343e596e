// Package config loads strada.toml and STRADA_* environment overrides and
// turns them into runtime and tracer settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"strada/internal/trace"
	"strada/rt"
)

// FileName is the configuration file searched for by Find.
const FileName = "strada.toml"

// Config is the decoded form of strada.toml.
type Config struct {
	Runtime RuntimeConfig `toml:"runtime"`
	Trace   TraceConfig   `toml:"trace"`
	Debug   DebugConfig   `toml:"debug"`
}

// RuntimeConfig sizes the value containers.
type RuntimeConfig struct {
	ArrayCapacity int `toml:"array_capacity"`
	HashCapacity  int `toml:"hash_capacity"`
}

// TraceConfig mirrors the --trace* flags.
type TraceConfig struct {
	Level     string   `toml:"level"`
	Mode      string   `toml:"mode"`
	Format    string   `toml:"format"`
	Output    string   `toml:"output"`
	RingSize  int      `toml:"ring_size"`
	Heartbeat Duration `toml:"heartbeat"`
}

// DebugConfig holds diagnostics switches.
type DebugConfig struct {
	// Bless reports every bless and object free on stderr.
	Bless bool `toml:"bless"`
}

// Duration is a time.Duration written as "250ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Runtime: RuntimeConfig{
			ArrayCapacity: rt.DefaultArrayCapacity(),
			HashCapacity:  rt.DefaultHashCapacity(),
		},
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "stream",
			Format:   "auto",
			Output:   "-",
			RingSize: 4096,
		},
	}
}

// Find walks up from startDir looking for strada.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes path over the defaults. Keys the file does not set keep
// their default; unknown keys are an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("runtime", "array_capacity") && cfg.Runtime.ArrayCapacity <= 0 {
		return Config{}, fmt.Errorf("%s: [runtime].array_capacity must be positive", path)
	}
	if meta.IsDefined("runtime", "hash_capacity") && cfg.Runtime.HashCapacity <= 0 {
		return Config{}, fmt.Errorf("%s: [runtime].hash_capacity must be positive", path)
	}
	return cfg, nil
}

// Load finds strada.toml from startDir (defaults when there is none) and
// applies the environment on top. The returned path is empty without a file.
func Load(startDir string) (Config, string, error) {
	cfg := Default()
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if ok {
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, path, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// ApplyEnv overrides settings from STRADA_ARRAY_CAPACITY,
// STRADA_HASH_CAPACITY, STRADA_TRACE_LEVEL and STRADA_DEBUG_BLESS.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("STRADA_ARRAY_CAPACITY"); ok {
		n, err := positiveInt("STRADA_ARRAY_CAPACITY", v)
		if err != nil {
			return err
		}
		c.Runtime.ArrayCapacity = n
	}
	if v, ok := lookup("STRADA_HASH_CAPACITY"); ok {
		n, err := positiveInt("STRADA_HASH_CAPACITY", v)
		if err != nil {
			return err
		}
		c.Runtime.HashCapacity = n
	}
	if v, ok := lookup("STRADA_TRACE_LEVEL"); ok {
		if _, err := trace.ParseLevel(v); err != nil {
			return fmt.Errorf("STRADA_TRACE_LEVEL: %w", err)
		}
		c.Trace.Level = v
	}
	if v, ok := lookup("STRADA_DEBUG_BLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STRADA_DEBUG_BLESS: %w", err)
		}
		c.Debug.Bless = b
	}
	return nil
}

func positiveInt(name, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", name, n)
	}
	return n, nil
}

// RuntimeOptions converts the runtime section for rt.Configure.
func (c Config) RuntimeOptions() rt.Options {
	return rt.Options{
		ArrayCapacity: c.Runtime.ArrayCapacity,
		HashCapacity:  c.Runtime.HashCapacity,
	}
}

// TracerConfig converts the trace section. Debug.Bless raises the level so
// object lifecycle events reach stderr.
func (c Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	if c.Debug.Bless {
		level = max(level, trace.LevelDebug)
		if mode == trace.ModeRing {
			mode = trace.ModeBoth
		}
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
		Heartbeat:  c.Trace.Heartbeat.Duration,
	}, nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
