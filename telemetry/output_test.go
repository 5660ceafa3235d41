package telemetry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/swd/config"
	"github.com/pthm-cable/swd/params"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager without error, got %v, %v", om, err)
	}
	// Every method is a no-op on nil.
	if err := om.WriteSummary(RunSummary{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteDaily("x", nil); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.PlotPath("x") != "" {
		t.Error("expected empty paths")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_SummaryHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, label := range []string{"a", "b", "c"} {
		if err := om.WriteSummary(RunSummary{RunID: label, Label: label, DiapauseDay: -1}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, filepath.Join(dir, "summary.csv"))
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "run_id,batch_id,scenario,label") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "c,") {
		t.Errorf("expected last row for run c, got %q", lines[3])
	}
}

func TestOutputManager_Files(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.WriteParams(params.Default()); err != nil {
		t.Fatalf("WriteParams: %v", err)
	}
	if err := om.WriteThresholds([]ThresholdRecord{{RunID: "r", Index: 0, Level: 25, Day: 3}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteEvents([]EventRecord{{RunID: "r", Type: "injection", Index: -1}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{RunID: "r", Type: BookmarkCrash, Day: 40}); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStats{}, 1); err != nil {
		t.Fatal(err)
	}
	rows := []WindowStats{{Day: 0, Females: 1}, {Day: 1, Females: 2}}
	if err := om.WriteDaily("pop/eggs 10", rows); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteDiapauseTrace("pop/eggs 10", []DiapauseRow{{Day: 0, FertilityMultiplier: 0.5}}); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"config.yaml", "params.yaml", "thresholds.csv", "events.csv", "bookmarks.csv", "perf.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	daily := readLines(t, filepath.Join(dir, "runs", "pop_eggs_10.csv"))
	if len(daily) != 3 || !strings.HasPrefix(daily[0], "day,steps,") {
		t.Errorf("unexpected daily csv %q", daily)
	}
	if _, err := os.Stat(filepath.Join(dir, "runs", "pop_eggs_10_diapause.csv")); err != nil {
		t.Errorf("expected diapause trace: %v", err)
	}

	// The params snapshot loads back as a parameter file.
	p, err := params.LoadFile(filepath.Join(dir, "params.yaml"))
	if err != nil {
		t.Fatalf("reloading params snapshot: %v", err)
	}
	if p.Get("latitude") != params.Default().Get("latitude") {
		t.Error("params snapshot does not round trip")
	}
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"population_d12_eggs_10", "population_d12_eggs_10"},
		{"fruit gt=1.25 lag=40", "fruit_gt_1.25_lag_40"},
		{"../escape", ".._escape"},
	}
	for _, tt := range tests {
		if got := SanitizeLabel(tt.in); got != tt.want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ---------- plots ----------

func TestPlotDaily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.png")
	var rows []WindowStats
	for d := 0; d < 30; d++ {
		rows = append(rows, WindowStats{
			Day:          float64(d),
			Eggs:         float64(d * d),
			Instar1:      float64(d),
			Females:      float64(2 * d),
			FruitQuality: 0.05 + 0.03*float64(d),
		})
	}

	if err := PlotDaily(path, "test", rows); err != nil {
		t.Fatalf("PlotDaily: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("expected a PNG file")
	}
}

func TestPlotDaily_EmptyPopulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	rows := []WindowStats{{Day: 0, FruitQuality: 0.05}, {Day: 1, FruitQuality: 0.05}}
	if err := PlotDaily(path, "empty", rows); err != nil {
		t.Fatalf("expected an all-zero run to plot, got %v", err)
	}
}

func TestPlotDaily_TooFewPoints(t *testing.T) {
	err := PlotDaily(filepath.Join(t.TempDir(), "x.png"), "x", []WindowStats{{}})
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("expected ErrTooFewPoints, got %v", err)
	}
}
