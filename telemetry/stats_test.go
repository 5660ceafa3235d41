package telemetry

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/swd/components"
)

func TestComputeSeriesStats(t *testing.T) {
	// Unsorted on purpose.
	values := []float64{0.5, 0.1, 0.9, 0.3, 0.7, 0.2, 1.0, 0.4, 0.8, 0.6}
	s := ComputeSeriesStats(values)

	if math.Abs(s.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", s.Mean)
	}
	// Population standard deviation of 0.1..1.0
	if want := math.Sqrt(0.0825); math.Abs(s.Std-want) > 1e-9 {
		t.Errorf("std = %v, want %v", s.Std, want)
	}
	// Linear interpolation of the empirical CDF lands on sample values here.
	if math.Abs(s.P10-0.1) > 1e-9 {
		t.Errorf("p10 = %v, want 0.1", s.P10)
	}
	if math.Abs(s.P50-0.5) > 1e-9 {
		t.Errorf("p50 = %v, want 0.5", s.P50)
	}
	if math.Abs(s.P90-0.9) > 1e-9 {
		t.Errorf("p90 = %v, want 0.9", s.P90)
	}
	if values[0] != 0.5 {
		t.Error("input slice was reordered")
	}
}

func TestComputeSeriesStatsEmpty(t *testing.T) {
	if s := ComputeSeriesStats(nil); s != (SeriesStats{}) {
		t.Errorf("empty slice should return zero stats, got %+v", s)
	}
}

func TestWindowStats_SetStages(t *testing.T) {
	var v components.StageVector
	for i := range v {
		v[i] = float64(i + 1)
	}
	var s WindowStats
	s.setStages(&v)

	if s.Eggs != 1 || s.Pupae != 5 || s.Males != 6 || s.Females7 != 13 {
		t.Errorf("stage columns out of order: %+v", s)
	}
	if s.Larvae() != 2+3+4 {
		t.Errorf("expected larvae 9, got %v", s.Larvae())
	}
	if s.Females != 7+8+9+10+11+12+13 {
		t.Errorf("expected females 70, got %v", s.Females)
	}
	if s.Total != 91 {
		t.Errorf("expected total 91, got %v", s.Total)
	}
}

func TestWindowStats_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	s := WindowStats{Day: 4, Steps: 20, Instar1: 1, Instar2: 2, Instar3: 3, Females: 7, FertilityMultiplier: 0.5}
	logger.Info("window", "stats", s)

	out := buf.String()
	for _, want := range []string{`"day":4`, `"steps":20`, `"larvae":6`, `"females":7`, `"fertility_multiplier":0.5`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
