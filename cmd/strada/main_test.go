package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// execute runs the CLI with args after resetting every flag to its default.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strada.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write strada.toml: %v", err)
	}
	return path
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		input string
		want  uiMode
	}{
		{"", uiModeAuto},
		{"AUTO", uiModeAuto},
		{" on ", uiModeOn},
		{"off", uiModeOff},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.input)
		if err != nil || got != tc.want {
			t.Fatalf("readUIMode(%q) = %q, %v", tc.input, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("invalid mode accepted")
	}
	if on, err := useColor("on"); err != nil || !on {
		t.Fatalf("useColor(on) = %v, %v", on, err)
	}
}

func TestListShowsScenarios(t *testing.T) {
	out, err := execute(t, "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"counter", "inherit", "destroy", "closure", "threads", "exceptions"} {
		if !strings.Contains(out, name) {
			t.Errorf("list output missing %q:\n%s", name, out)
		}
	}
}

func TestConfigShowsFileAndFlags(t *testing.T) {
	path := writeConfig(t, "[runtime]\narray_capacity = 12\n\n[trace]\nmode = \"both\"\n")
	out, err := execute(t, "config", "--config", path, "--trace-level", "dispatch")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# loaded from " + path, "array_capacity = 12", `mode = "both"`, `level = "dispatch"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}

	// --trace alone turns tracing on at the object level.
	out, err = execute(t, "config", "--config", path, "--trace", "run.ndjson")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `level = "object"`) || !strings.Contains(out, `output = "run.ndjson"`) {
		t.Errorf("trace flag not applied:\n%s", out)
	}

	if _, err := execute(t, "config", "--config", writeConfig(t, "[runtime]\nstack = 1\n")); err == nil {
		t.Fatal("unknown key accepted")
	}
}

func TestRunSnapshotAndDump(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "run.snap")
	out, err := execute(t, "run", "counter", "closure", "--ui", "off", "--snapshot", snap, "--memprof")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	for _, want := range []string{"--- counter", "count: 3", "ok   closure", "live values:", "snapshot written to"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "dump", snap)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"$VAR = \\[", "'name' => 'counter'", "'status' => 'ok'", "'Strada::ScenarioResult')"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump output missing %q:\n%s", want, out)
		}
	}
}

func TestRunUnknownScenario(t *testing.T) {
	if _, err := execute(t, "run", "nope", "--ui", "off"); err == nil || !strings.Contains(err.Error(), "unknown scenario") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunTracesToFile(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "run.ndjson")
	out, err := execute(t, "run", "inherit", "--ui", "off", "--quiet", "--trace", tracePath, "--trace-level", "dispatch")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"name":"run"`, `"name":"scenario:inherit"`, `"name":"bless"`, `"name":"call"`, `"detail":"Duck-\u003espeak"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("trace missing %s", want)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json", "--full")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Tool != "strada" || payload.GoVersion == "" || payload.GitCommit != "unknown" {
		t.Fatalf("payload = %+v", payload)
	}
	if _, err := execute(t, "version", "--format", "xml"); err == nil {
		t.Fatal("xml format accepted")
	}
}
