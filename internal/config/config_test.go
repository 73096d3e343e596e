package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"strada/internal/trace"
)

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeFile(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find = %q, %v, %v", got, ok, err)
	}
	if got != want {
		t.Fatalf("found %q, want %q", got, want)
	}
}

func TestLoadFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
[runtime]
hash_capacity = 64

[trace]
level = "dispatch"
heartbeat = "250ms"
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Runtime.HashCapacity != 64 {
		t.Errorf("hash_capacity = %d", cfg.Runtime.HashCapacity)
	}
	if cfg.Runtime.ArrayCapacity != def.Runtime.ArrayCapacity {
		t.Errorf("array_capacity = %d, want default %d", cfg.Runtime.ArrayCapacity, def.Runtime.ArrayCapacity)
	}
	if cfg.Trace.Mode != "stream" || cfg.Trace.Level != "dispatch" {
		t.Errorf("trace = %+v", cfg.Trace)
	}
	if cfg.Trace.Heartbeat.Duration != 250*time.Millisecond {
		t.Errorf("heartbeat = %v", cfg.Trace.Heartbeat)
	}
}

func TestLoadFileRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "[runtime]\nstack_size = 3\n",
		"zero capacity": "[runtime]\narray_capacity = 0\n",
		"syntax":        "[runtime\n",
		"bad duration":  "[trace]\nheartbeat = \"soon\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), content)
			if _, err := LoadFile(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"STRADA_ARRAY_CAPACITY": "32",
		"STRADA_TRACE_LEVEL":    "object",
		"STRADA_DEBUG_BLESS":    "1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.Runtime.ArrayCapacity != 32 || cfg.Trace.Level != "object" || !cfg.Debug.Bless {
		t.Fatalf("cfg = %+v", cfg)
	}

	env = map[string]string{"STRADA_HASH_CAPACITY": "-1"}
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Fatal("negative capacity accepted")
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "[runtime]\narray_capacity = 4\n")
	t.Setenv("STRADA_ARRAY_CAPACITY", "12")
	cfg, path, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("config file not reported")
	}
	if cfg.Runtime.ArrayCapacity != 12 {
		t.Fatalf("array_capacity = %d, env should win", cfg.Runtime.ArrayCapacity)
	}
	if opts := cfg.RuntimeOptions(); opts.ArrayCapacity != 12 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestTracerConfigDebugBless(t *testing.T) {
	cfg := Default()
	cfg.Trace.Mode = "ring"
	cfg.Debug.Bless = true
	tc, err := cfg.TracerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Level != trace.LevelDebug || tc.Mode != trace.ModeBoth {
		t.Fatalf("tracer config = %+v", tc)
	}

	cfg.Trace.Level = "loud"
	if _, err := cfg.TracerConfig(); err == nil {
		t.Fatal("bad level accepted")
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	cfg := Default()
	cfg.Trace.Heartbeat = Duration{2 * time.Second}
	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `heartbeat = "2s"`) {
		t.Fatalf("encoded:\n%s", buf.String())
	}
	path := writeFile(t, t.TempDir(), buf.String())
	back, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if back != cfg {
		t.Fatalf("round trip changed config:\n%+v\n%+v", back, cfg)
	}
}
