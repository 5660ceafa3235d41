package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one batch of runs.
const (
	PhaseSetup    = "setup"    // building run parameters and ledger entities
	PhaseSimulate = "simulate" // worker pool
	PhaseApply    = "apply"    // ledger and summary bookkeeping
	PhaseOutput   = "output"   // CSV, plots and store
)

var perfPhases = []string{PhaseSetup, PhaseSimulate, PhaseApply, PhaseOutput}

// PerfSample holds timing data for a single batch.
type PerfSample struct {
	BatchDuration time.Duration
	Runs          int
	Phases        map[string]time.Duration
}

// PerfCollector tracks batch timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	batchStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	totalBatches int
	totalRuns    int
}

// NewPerfCollector creates a new performance collector averaging over the
// last windowSize batches.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 20
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartBatch begins timing a new batch.
func (p *PerfCollector) StartBatch() {
	p.batchStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndBatch finishes timing the current batch of runs and records the sample.
func (p *PerfCollector) EndBatch(runs int) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		BatchDuration: now.Sub(p.batchStart),
		Runs:          runs,
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.totalBatches++
	p.totalRuns += runs
}

// Batches is the number of batches recorded since creation.
func (p *PerfCollector) Batches() int { return p.totalBatches }

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgBatchDuration time.Duration
	MinBatchDuration time.Duration
	MaxBatchDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total batch time
	PhasePct map[string]float64

	RunsPerSecond float64
	TotalBatches  int
	TotalRuns     int
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total time.Duration
	var minDur, maxDur time.Duration
	var runs int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.BatchDuration
		runs += s.Runs

		if i == 0 || s.BatchDuration < minDur {
			minDur = s.BatchDuration
		}
		if s.BatchDuration > maxDur {
			maxDur = s.BatchDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var runsPerSec float64
	if total > 0 {
		runsPerSec = float64(runs) / total.Seconds()
	}

	return PerfStats{
		AvgBatchDuration: avg,
		MinBatchDuration: minDur,
		MaxBatchDuration: maxDur,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		RunsPerSecond:    runsPerSec,
		TotalBatches:     p.totalBatches,
		TotalRuns:        p.totalRuns,
	}
}

// ETA estimates the time needed for the remaining batches at the current
// average batch duration.
func (s PerfStats) ETA(remainingBatches int) time.Duration {
	if remainingBatches <= 0 {
		return 0
	}
	return s.AvgBatchDuration * time.Duration(remainingBatches)
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger, remainingBatches int) {
	attrs := []any{
		"batches", s.TotalBatches,
		"runs", s.TotalRuns,
		"avg_batch_ms", s.AvgBatchDuration.Milliseconds(),
		"runs_per_sec", int(s.RunsPerSecond),
		"eta", s.ETA(remainingBatches).Round(time.Second).String(),
	}

	for _, phase := range perfPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_batch_ms", s.AvgBatchDuration.Milliseconds()),
		slog.Int64("min_batch_ms", s.MinBatchDuration.Milliseconds()),
		slog.Int64("max_batch_ms", s.MaxBatchDuration.Milliseconds()),
		slog.Float64("runs_per_sec", s.RunsPerSecond),
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Batch       int     `csv:"batch"`
	AvgBatchMS  int64   `csv:"avg_batch_ms"`
	MinBatchMS  int64   `csv:"min_batch_ms"`
	MaxBatchMS  int64   `csv:"max_batch_ms"`
	RunsPerSec  float64 `csv:"runs_per_sec"`
	SetupPct    float64 `csv:"setup_pct"`
	SimulatePct float64 `csv:"simulate_pct"`
	ApplyPct    float64 `csv:"apply_pct"`
	OutputPct   float64 `csv:"output_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(batch int) PerfStatsCSV {
	return PerfStatsCSV{
		Batch:       batch,
		AvgBatchMS:  s.AvgBatchDuration.Milliseconds(),
		MinBatchMS:  s.MinBatchDuration.Milliseconds(),
		MaxBatchMS:  s.MaxBatchDuration.Milliseconds(),
		RunsPerSec:  s.RunsPerSecond,
		SetupPct:    s.PhasePct[PhaseSetup],
		SimulatePct: s.PhasePct[PhaseSimulate],
		ApplyPct:    s.PhasePct[PhaseApply],
		OutputPct:   s.PhasePct[PhaseOutput],
	}
}
