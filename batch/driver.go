// Package batch fans scenarios of independent simulation runs out over a
// bounded worker pool and records every run in an ECS ledger.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/swd/config"
	"github.com/pthm-cable/swd/params"
	"github.com/pthm-cable/swd/simulation"
	"github.com/pthm-cable/swd/store"
	"github.com/pthm-cable/swd/telemetry"
)

// RunOutcome is the ledger component filled in once a run has finished.
type RunOutcome struct {
	ID         string
	BatchID    string
	Seq        int
	Done       bool
	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    telemetry.RunSummary
}

// LedgerEntry is a copy of one ledger row.
type LedgerEntry struct {
	Spec    RunSpec
	Outcome RunOutcome
}

// Report summarizes a finished scenario.
type Report struct {
	BatchID  string
	Scenario string
	Batches  int
	Runs     int
	Failed   int
	Elapsed  time.Duration
	Perf     telemetry.PerfStats
}

// LogValue implements slog.LogValuer for structured logging.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("batch_id", r.BatchID),
		slog.String("scenario", r.Scenario),
		slog.Int("batches", r.Batches),
		slog.Int("runs", r.Runs),
		slog.Int("failed", r.Failed),
		slog.Duration("elapsed", r.Elapsed.Round(time.Millisecond)),
	)
}

// Options are the collaborators of a Driver. Every field may be nil.
type Options struct {
	Store  store.Store
	Output *telemetry.OutputManager
	Logger *slog.Logger
}

// job captures read-only state for one run of the current batch.
type job struct {
	Entity ecs.Entity
	ID     string
	Seq    int
	Spec   RunSpec
}

// runResult captures a worker's output to apply after the parallel phase.
type runResult struct {
	started       time.Time
	finished      time.Time
	err           error
	summary       telemetry.RunSummary
	thresholds    []telemetry.ThresholdRecord
	thresholdDays []float64
	daily         []telemetry.WindowStats
	diapause      []telemetry.DiapauseRow
	events        []telemetry.EventRecord
}

// Driver runs scenarios batch by batch. Within a batch every run owns its
// own simulator built from a clone of the base parameters, so workers share
// nothing. A Driver is not safe for concurrent use.
type Driver struct {
	cfg    *config.Config
	base   *params.Parameters
	store  store.Store
	output *telemetry.OutputManager
	logger *slog.Logger

	world      *ecs.World
	runMapper  *ecs.Map2[RunSpec, RunOutcome]
	runFilter  *ecs.Filter2[RunSpec, RunOutcome]
	outcomeMap *ecs.Map1[RunOutcome]
	nextSeq    int

	pool      *workerPool
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector

	jobs    []job
	results []runResult
}

// NewDriver creates a driver for cfg and the base parameter set p. The
// parameters are copied; later changes to p are not seen.
func NewDriver(cfg *config.Config, p *params.Parameters, opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	world := ecs.NewWorld()
	d := &Driver{
		cfg:        cfg,
		base:       p.Clone(),
		store:      opts.Store,
		output:     opts.Output,
		logger:     logger,
		world:      world,
		runMapper:  ecs.NewMap2[RunSpec, RunOutcome](world),
		runFilter:  ecs.NewFilter2[RunSpec, RunOutcome](world),
		outcomeMap: ecs.NewMap1[RunOutcome](world),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:  telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize),
	}
	d.pool = newWorkerPool(cfg.Derived.Workers, d.simulate)
	return d
}

// Close stops the worker goroutines.
func (d *Driver) Close() {
	d.pool.stopWorkers()
}

// Run executes every batch of sc in order. The next batch starts only after
// every run of the current one has finished. Failed runs are recorded and
// do not stop the scenario. ctx is checked between batches; a run in
// progress always completes.
func (d *Driver) Run(ctx context.Context, sc Scenario) (Report, error) {
	start := time.Now()
	report := Report{BatchID: store.NewID(), Scenario: sc.Name}

	if err := d.output.WriteConfig(d.cfg); err != nil {
		return report, err
	}
	if err := d.output.WriteParams(d.base); err != nil {
		return report, err
	}

	d.logger.Info("scenario started",
		"scenario", sc.Name,
		"batch_id", report.BatchID,
		"batches", len(sc.Batches),
		"runs", sc.Runs(),
		"workers", d.pool.numWorkers,
	)

	for i, runs := range sc.Batches {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		failed, err := d.runBatch(report.BatchID, sc.Name, i, runs)
		report.Batches++
		report.Runs += len(runs)
		report.Failed += failed
		if err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		if err := d.output.WritePerf(d.perf.Stats(), i); err != nil {
			return report, err
		}
		if window := d.cfg.Telemetry.PerfCollectorWindow; window > 0 && d.perf.Batches()%window == 0 {
			d.perf.Stats().LogStats(d.logger, len(sc.Batches)-i-1)
		}
	}

	report.Elapsed = time.Since(start)
	report.Perf = d.perf.Stats()
	d.logger.Info("scenario complete", "report", report)
	return report, nil
}

func (d *Driver) runBatch(batchID, scenario string, batch int, runs []RunSpec) (failed int, err error) {
	d.perf.StartBatch()

	// Phase A: ledger entities and snapshots (single-threaded)
	d.perf.StartPhase(telemetry.PhaseSetup)
	for i := range runs {
		spec := runs[i]
		spec.Batch = batch
		outcome := RunOutcome{ID: store.NewID(), BatchID: batchID, Seq: d.nextSeq}
		d.nextSeq++
		d.runMapper.NewEntity(&spec, &outcome)
	}
	d.snapshot(batchID, batch)

	// Phase B: simulate (parallel, no shared state)
	d.perf.StartPhase(telemetry.PhaseSimulate)
	d.results = slices.Grow(d.results[:0], len(d.jobs))[:len(d.jobs)]
	d.pool.run(len(d.jobs))

	// Phase C: write outcomes back to the ledger
	d.perf.StartPhase(telemetry.PhaseApply)
	for i := range d.jobs {
		j := &d.jobs[i]
		res := &d.results[i]

		res.summary.RunID = j.ID
		res.summary.BatchID = batchID
		res.summary.Scenario = scenario
		res.summary.Label = j.Spec.Label
		if res.err != nil {
			res.summary.Error = res.err.Error()
			failed++
		}

		outcome := d.outcomeMap.Get(j.Entity)
		if outcome == nil {
			continue
		}
		outcome.Done = true
		outcome.StartedAt = res.started
		outcome.FinishedAt = res.finished
		outcome.Summary = res.summary
		outcome.Err = res.summary.Error
	}

	// Phase D: files, store and logs
	d.perf.StartPhase(telemetry.PhaseOutput)
	for i := range d.jobs {
		if err := d.emit(&d.jobs[i], &d.results[i]); err != nil {
			d.perf.EndBatch(len(d.jobs))
			return failed, err
		}
	}

	d.perf.EndBatch(len(d.jobs))
	d.logger.Debug("batch complete", "batch", batch, "runs", len(d.jobs), "failed", failed)
	return failed, nil
}

// snapshot collects the pending runs of one batch from the ledger.
func (d *Driver) snapshot(batchID string, batch int) {
	d.jobs = d.jobs[:0]
	query := d.runFilter.Query()
	for query.Next() {
		spec, outcome := query.Get()
		if outcome.Done || outcome.BatchID != batchID || spec.Batch != batch {
			continue // keep iterating; the query holds the world lock until exhausted
		}
		d.jobs = append(d.jobs, job{
			Entity: query.Entity(),
			ID:     outcome.ID,
			Seq:    outcome.Seq,
			Spec:   *spec,
		})
	}
	slices.SortFunc(d.jobs, func(a, b job) int { return a.Seq - b.Seq })
}

// simulate runs job i on a worker goroutine.
func (d *Driver) simulate(i int) {
	j := &d.jobs[i]
	res := &d.results[i]
	*res = runResult{started: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("run %s panicked: %v", j.Spec.Label, r)
		}
		res.finished = time.Now()
	}()

	res.err = d.simulateRun(j, res)
}

func (d *Driver) simulateRun(j *job, res *runResult) error {
	p := d.base.Clone()
	if err := p.Apply(j.Spec.Overrides); err != nil {
		return fmt.Errorf("applying overrides: %w", err)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	sim, err := simulation.New(p, d.cfg.Run.DT)
	if err != nil {
		return err
	}
	cell := sim.Cell()
	for i, level := range d.cfg.Run.Thresholds {
		cell.SetThreshold(i, level)
	}

	collector := telemetry.NewCollector(d.cfg.Telemetry.WindowDays)
	events := telemetry.NewEventLog(j.ID, nil)
	cell.AddObserver(collector)
	cell.AddObserver(events)
	var trace *telemetry.DiapauseTrace
	if !j.Spec.Options.IgnoreDiapause {
		trace = telemetry.NewDiapauseTrace()
		cell.AddObserver(trace)
	}

	if err := sim.Run(j.Spec.Temps, j.Spec.Days, j.Spec.Options); err != nil {
		return err
	}

	// Only the configured thresholds are reported; the rest sit at level 0.
	n := len(d.cfg.Run.Thresholds)
	res.thresholds = telemetry.ThresholdRecords(j.ID, cell)[:n]
	days := cell.ThresholdDays()
	res.thresholdDays = slices.Clone(days[:n])

	res.summary = telemetry.Summarize(cell, j.Spec.Days)
	res.summary.ThresholdsReached = 0
	for _, day := range res.thresholdDays {
		if day >= 0 {
			res.summary.ThresholdsReached++
		}
	}
	res.daily = collector.Flush()
	res.events = events.Records()
	if trace != nil {
		res.diapause = trace.Rows()
	}
	return nil
}

// emit writes one finished run to the store, the output files and the log.
func (d *Driver) emit(j *job, res *runResult) error {
	if d.store != nil {
		rec := store.RunRecord{
			ID:            j.ID,
			BatchID:       res.summary.BatchID,
			Scenario:      res.summary.Scenario,
			Label:         j.Spec.Label,
			StartedAt:     res.started,
			FinishedAt:    res.finished,
			Error:         res.summary.Error,
			Overrides:     j.Spec.Overrides,
			Summary:       res.summary,
			ThresholdDays: res.thresholdDays,
		}
		if err := d.store.SaveRun(context.Background(), rec); err != nil {
			return fmt.Errorf("saving run %s: %w", j.Spec.Label, err)
		}
	}

	if err := d.output.WriteSummary(res.summary); err != nil {
		return err
	}
	if res.err != nil {
		res.summary.LogSummary(d.logger)
		return nil
	}

	if err := d.output.WriteThresholds(res.thresholds); err != nil {
		return err
	}
	if err := d.output.WriteEvents(res.events); err != nil {
		return err
	}
	for _, e := range res.events {
		d.logger.Debug("event", "event", e)
	}

	d.bookmarks.Reset()
	for _, w := range res.daily {
		d.logger.Debug("window", "run", j.Spec.Label, "stats", w)
		for _, b := range d.bookmarks.Check(w) {
			b.RunID = j.ID
			if err := d.output.WriteBookmark(b); err != nil {
				return err
			}
			b.LogBookmark(d.logger)
		}
	}

	if d.cfg.Telemetry.DailyCSV {
		if err := d.output.WriteDaily(j.Spec.Label, res.daily); err != nil {
			return err
		}
		if res.diapause != nil {
			if err := d.output.WriteDiapauseTrace(j.Spec.Label, res.diapause); err != nil {
				return err
			}
		}
	}
	if path := d.output.PlotPath(j.Spec.Label); path != "" && d.cfg.Telemetry.Plots {
		err := telemetry.PlotDaily(path, j.Spec.Label, res.daily)
		switch {
		case errors.Is(err, telemetry.ErrTooFewPoints):
			d.logger.Debug("plot skipped", "run", j.Spec.Label, "windows", len(res.daily))
		case err != nil:
			d.logger.Warn("plot failed", "run", j.Spec.Label, "error", err)
		}
	}

	res.summary.LogSummary(d.logger)
	return nil
}

// Ledger returns every run the driver has scheduled, in scheduling order.
func (d *Driver) Ledger() []LedgerEntry {
	var out []LedgerEntry
	query := d.runFilter.Query()
	for query.Next() {
		spec, outcome := query.Get()
		out = append(out, LedgerEntry{Spec: *spec, Outcome: *outcome})
	}
	slices.SortFunc(out, func(a, b LedgerEntry) int {
		return a.Outcome.Seq - b.Outcome.Seq
	})
	return out
}

// Workers is the size of the worker pool.
func (d *Driver) Workers() int { return d.pool.numWorkers }
