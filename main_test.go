package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/swd/store"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

// writeTestConfig writes a config that keeps runs in a sqlite file under dir.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`store:
  kind: sqlite
  path: %s
telemetry:
  plots: false
log:
  level: error
`, filepath.Join(dir, "runs.db"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// ---------- params ----------

func TestParamsShow(t *testing.T) {
	out, err := execute(t, "params", "show")
	if err != nil {
		t.Fatalf("params show: %v", err)
	}
	for _, want := range []string{"fruit n: 4", "latitude: 46.49", "initial females1: 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestParamsShow_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte("latitude: 43.7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "params", "show", "--params", path)
	if err != nil {
		t.Fatalf("params show: %v", err)
	}
	if !strings.Contains(out, "latitude: 43.7") {
		t.Errorf("expected overlaid latitude, got %q", out)
	}
}

func TestParamsValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(good, []byte("fruit m: 0.5\n"), 0644)
	os.WriteFile(bad, []byte("fruit m: 2\n"), 0644)

	out, err := execute(t, "params", "validate", good)
	if err != nil {
		t.Fatalf("expected good file to validate: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Errorf("expected ok, got %q", out)
	}

	if _, err := execute(t, "params", "validate", bad); err == nil {
		t.Error("expected bad file to fail")
	}
	if _, err := execute(t, "params", "validate"); err == nil {
		t.Error("expected error without a file")
	}
}

// ---------- run and runs ----------

func TestRunThenQueryStore(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run",
		"--config", cfg,
		"--output", outDir,
		"--days", "20",
		"--start-day", "0",
		"--temp", "25",
		"--ignore-fruit",
		"--ignore-diapause",
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "peak adult females") {
		t.Errorf("expected run summary, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "runs", "run_day0.csv")); err != nil {
		t.Errorf("expected daily csv: %v", err)
	}

	out, err = execute(t, "runs", "list", "--config", cfg, "--json")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	var runs []store.RunRecord
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decoding runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Label != "run_day0" || runs[0].Scenario != "run" {
		t.Fatalf("expected one run_day0 record, got %+v", runs)
	}
	if runs[0].Summary.FemalesMax <= 0 {
		t.Errorf("expected a growing population, got %v", runs[0].Summary.FemalesMax)
	}

	out, err = execute(t, "runs", "show", runs[0].ID, "--config", cfg)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	if !strings.Contains(out, `"label": "run_day0"`) {
		t.Errorf("expected run JSON, got %q", out)
	}

	if _, err := execute(t, "runs", "show", "missing", "--config", cfg); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestRun_ConflictingTemperatureFlags(t *testing.T) {
	_, err := execute(t, "run", "--temp", "20", "--temps", "x.csv")
	if err == nil || !strings.Contains(err.Error(), "--temp") {
		t.Errorf("expected conflicting flag error, got %v", err)
	}
}

// ---------- batch ----------

func TestBatch_ConstTemp(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)

	out, err := execute(t, "batch", "consttemp", "--config", cfg, "--days", "5", "--workers", "3")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(out, "7 runs in 1 batches, 0 failed") {
		t.Errorf("unexpected batch output %q", out)
	}

	out, err = execute(t, "runs", "list", "--config", cfg)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if !strings.Contains(out, "const_35C") || !strings.Contains(out, "7 runs") {
		t.Errorf("expected the constant temperature runs, got %q", out)
	}
}

func TestBatch_UnknownScenario(t *testing.T) {
	_, err := execute(t, "batch", "weather")
	if err == nil || !strings.Contains(err.Error(), "unknown scenario") {
		t.Errorf("expected unknown scenario error, got %v", err)
	}
}
