package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/swd/components"
	"github.com/pthm-cable/swd/simulation"
)

// RunSummary is the one-row result of a finished run.
type RunSummary struct {
	RunID    string `csv:"run_id"`
	BatchID  string `csv:"batch_id"`
	Scenario string `csv:"scenario"`
	Label    string `csv:"label"`

	Days  float64 `csv:"days"`
	Steps int     `csv:"steps"`

	// Adult females
	FemalesMax    float64 `csv:"females_max"`
	FemalesMaxDay float64 `csv:"females_max_day"`
	FemaleDays    float64 `csv:"female_days"` // cumulative abundance x time
	FemalesMean   float64 `csv:"females_mean"`
	FemalesStd    float64 `csv:"females_std"`
	FemalesP10    float64 `csv:"females_p10"`
	FemalesP50    float64 `csv:"females_p50"`
	FemalesP90    float64 `csv:"females_p90"`

	EggsMax    float64 `csv:"eggs_max"`
	EggsMaxDay float64 `csv:"eggs_max_day"`

	FinalFemales float64 `csv:"final_females"`
	FinalTotal   float64 `csv:"final_total"`

	FruitMaxDay       float64 `csv:"fruit_max_day"`
	DiapauseDay       int     `csv:"diapause_day"`
	ThresholdsReached int     `csv:"thresholds_reached"`

	Error string `csv:"error"`
}

// Summarize builds the summary of a cell that has been run for days. The
// female distribution statistics use one sample per simulated day.
func Summarize(c *simulation.Cell, days float64) RunSummary {
	st := c.Stats()
	series := c.Series()

	females := series.Females()
	daily := make([]float64, 0, len(females))
	for _, i := range series.Daily() {
		daily = append(daily, females[i])
	}
	dist := ComputeSeriesStats(daily)

	reached := 0
	for _, d := range c.ThresholdDays() {
		if d >= 0 {
			reached++
		}
	}

	eggs := st.Stages[components.Eggs]
	return RunSummary{
		Days:              days,
		Steps:             series.Len(),
		FemalesMax:        st.Females.Max,
		FemalesMaxDay:     st.Females.MaxTime,
		FemaleDays:        st.Females.Total,
		FemalesMean:       dist.Mean,
		FemalesStd:        dist.Std,
		FemalesP10:        dist.P10,
		FemalesP50:        dist.P50,
		FemalesP90:        dist.P90,
		EggsMax:           eggs.Max,
		EggsMaxDay:        eggs.MaxTime,
		FinalFemales:      c.Females(),
		FinalTotal:        c.TotalPopulation(),
		FruitMaxDay:       c.DayCrossedMaxFruit(),
		DiapauseDay:       c.CrossedDiapauseDay(),
		ThresholdsReached: reached,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s RunSummary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", s.RunID),
		slog.String("label", s.Label),
		slog.Float64("days", s.Days),
		slog.Float64("females_max", s.FemalesMax),
		slog.Float64("females_max_day", s.FemalesMaxDay),
		slog.Float64("females_mean", s.FemalesMean),
		slog.Float64("final_females", s.FinalFemales),
		slog.Float64("final_total", s.FinalTotal),
		slog.Int("thresholds_reached", s.ThresholdsReached),
	}
	if s.FruitMaxDay >= 0 {
		attrs = append(attrs, slog.Float64("fruit_max_day", s.FruitMaxDay))
	}
	if s.DiapauseDay >= 0 {
		attrs = append(attrs, slog.Int("diapause_day", s.DiapauseDay))
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error))
	}
	return slog.GroupValue(attrs...)
}

// LogSummary logs the summary at info level, or at error level for a
// failed run.
func (s RunSummary) LogSummary(logger *slog.Logger) {
	if s.Error != "" {
		logger.Error("run failed", "run", s)
		return
	}
	logger.Info("run complete", "run", s)
}

// ThresholdRecord is one row of thresholds.csv.
type ThresholdRecord struct {
	RunID string  `csv:"run_id"`
	Index int     `csv:"index"`
	Level float64 `csv:"level"`
	Day   float64 `csv:"day"` // -1 when never reached
}

// ThresholdRecords lists every threshold of a cell in index order.
func ThresholdRecords(runID string, c *simulation.Cell) []ThresholdRecord {
	out := make([]ThresholdRecord, simulation.NumThresholds)
	for i := range out {
		out[i] = ThresholdRecord{
			RunID: runID,
			Index: i,
			Level: c.Threshold(i),
			Day:   c.ThresholdDay(i),
		}
	}
	return out
}
