package telemetry

import (
	"log/slog"
	"sort"

	"github.com/pthm-cable/swd/components"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of simulated days.
type WindowStats struct {
	Day   float64 `csv:"day"` // window start
	Steps int     `csv:"steps"`

	// Weather and gate, averaged over the window
	TempMean            float64 `csv:"temp_mean"`
	TempMin             float64 `csv:"temp_min"`
	TempMax             float64 `csv:"temp_max"`
	DayLength           float64 `csv:"day_length"`
	FertilityMultiplier float64 `csv:"fertility_multiplier"`
	GateArmed           float64 `csv:"gate_armed"` // fraction of steps
	IntegratedSteps     int     `csv:"integrated_steps"`

	// Sampled at window end
	FruitQuality float64 `csv:"fruit_quality"`
	Eggs         float64 `csv:"eggs"`
	Instar1      float64 `csv:"instar1"`
	Instar2      float64 `csv:"instar2"`
	Instar3      float64 `csv:"instar3"`
	Pupae        float64 `csv:"pupae"`
	Males        float64 `csv:"males"`
	Females1     float64 `csv:"females1"`
	Females2     float64 `csv:"females2"`
	Females3     float64 `csv:"females3"`
	Females4     float64 `csv:"females4"`
	Females5     float64 `csv:"females5"`
	Females6     float64 `csv:"females6"`
	Females7     float64 `csv:"females7"`
	Females      float64 `csv:"females"`
	Total        float64 `csv:"total"`
}

func (s *WindowStats) setStages(v *components.StageVector) {
	s.Eggs = v[components.Eggs]
	s.Instar1 = v[components.Instar1]
	s.Instar2 = v[components.Instar2]
	s.Instar3 = v[components.Instar3]
	s.Pupae = v[components.Pupae]
	s.Males = v[components.Males]
	s.Females1 = v[components.Females1]
	s.Females2 = v[components.Females2]
	s.Females3 = v[components.Females3]
	s.Females4 = v[components.Females4]
	s.Females5 = v[components.Females5]
	s.Females6 = v[components.Females6]
	s.Females7 = v[components.Females7]
	s.Females = v.TotalFemales()
	s.Total = v.Total()
}

// Larvae is the sum of the three instars.
func (s WindowStats) Larvae() float64 { return s.Instar1 + s.Instar2 + s.Instar3 }

// SeriesStats summarises a sampled population series.
type SeriesStats struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// ComputeSeriesStats calculates the population mean, standard deviation and
// percentiles of values. The zero value is returned for an empty slice.
func ComputeSeriesStats(values []float64) SeriesStats {
	if len(values) == 0 {
		return SeriesStats{}
	}

	var s SeriesStats
	s.Mean, s.Std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.P10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("day", s.Day),
		slog.Int("steps", s.Steps),
		slog.Float64("temp_mean", s.TempMean),
		slog.Float64("day_length", s.DayLength),
		slog.Float64("fertility_multiplier", s.FertilityMultiplier),
		slog.Float64("fruit_quality", s.FruitQuality),
		slog.Float64("eggs", s.Eggs),
		slog.Float64("larvae", s.Larvae()),
		slog.Float64("pupae", s.Pupae),
		slog.Float64("males", s.Males),
		slog.Float64("females", s.Females),
		slog.Float64("total", s.Total),
	)
}
