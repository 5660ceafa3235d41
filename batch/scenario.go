package batch

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/swd/components"
	"github.com/pthm-cable/swd/config"
	"github.com/pthm-cable/swd/params"
	"github.com/pthm-cable/swd/simulation"
	"github.com/pthm-cable/swd/systems"
)

// Scenario names.
const (
	ScenarioRun        = "run"
	ScenarioPopulation = "population"
	ScenarioFruit      = "fruit"
	ScenarioDiapause   = "diapause"
	ScenarioConstTemp  = "consttemp"
)

// ErrUnknownScenario is returned by Plan for a name it does not know.
var ErrUnknownScenario = errors.New("unknown scenario")

// Sweeps lists the scenarios that fan out over a parameter grid.
var Sweeps = []string{ScenarioPopulation, ScenarioFruit, ScenarioDiapause, ScenarioConstTemp}

// RunSpec describes one run. It is the ledger component written during setup
// and read, never written, by the workers.
type RunSpec struct {
	Batch     int
	Label     string
	Days      float64
	Overrides map[string]float64
	Options   simulation.RunOptions
	// Temps is shared between runs and must not be modified.
	Temps []float64
}

// Scenario is a named list of batches. Runs within a batch execute
// concurrently; batches execute in order.
type Scenario struct {
	Name    string
	Batches [][]RunSpec
}

// Runs is the total number of runs in s.
func (s Scenario) Runs() int {
	n := 0
	for _, b := range s.Batches {
		n += len(b)
	}
	return n
}

// Plan builds the named scenario from the batch settings in cfg. temps is
// the daily temperature series used by every run that does not bring its own.
func Plan(name string, cfg *config.Config, temps []float64) (Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return Scenario{}, err
	}
	if len(temps) == 0 {
		return Scenario{}, simulation.ErrNoTemperatures
	}

	var batches [][]RunSpec
	var err error
	switch name {
	case ScenarioRun:
		batches = planSingle(cfg, temps)
	case ScenarioPopulation:
		batches, err = planPopulation(cfg, temps)
	case ScenarioFruit:
		batches, err = planFruit(cfg, temps)
	case ScenarioDiapause:
		batches, err = planDiapause(cfg, temps)
	case ScenarioConstTemp:
		batches = planConstTemp(cfg)
	default:
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	if err != nil {
		return Scenario{}, err
	}

	for i := range batches {
		for j := range batches[i] {
			batches[i][j].Batch = i
		}
	}
	return Scenario{Name: name, Batches: batches}, nil
}

func planSingle(cfg *config.Config, temps []float64) [][]RunSpec {
	label := "run"
	if cfg.Run.StartDay >= 0 {
		label = fmt.Sprintf("run_day%d", cfg.Run.StartDay)
	}
	return [][]RunSpec{{{
		Label: label,
		Days:  cfg.Run.Days,
		Options: simulation.RunOptions{
			IgnoreFruit:    cfg.Run.IgnoreFruit,
			IgnoreDiapause: cfg.Run.IgnoreDiapause,
			StartDay:       cfg.Run.StartDay,
		},
		Temps: temps,
	}}}
}

// One batch per start day; every initial population is seeded into every
// listed stage.
func planPopulation(cfg *config.Config, temps []float64) ([][]RunSpec, error) {
	sw := cfg.Batch.Population
	stages, err := parseStages(sw.Stages)
	if err != nil {
		return nil, err
	}

	var batches [][]RunSpec
	for day := sw.StartDayFrom; day < sw.StartDayTo; day++ {
		runs := make([]RunSpec, 0, len(sw.InitialPops)*len(stages))
		for _, pop := range sw.InitialPops {
			for _, st := range stages {
				runs = append(runs, RunSpec{
					Label:     fmt.Sprintf("pop_%g%s_day%d", pop, st, day),
					Days:      cfg.Run.Days,
					Overrides: map[string]float64{params.InitialKey(st): pop},
					Options: simulation.RunOptions{
						IgnoreFruit:    true,
						IgnoreDiapause: true,
						StartDay:       day,
					},
					Temps: temps,
				})
			}
		}
		batches = append(batches, runs)
	}
	return batches, nil
}

// One batch per growth-time multiplier and lag window.
func planFruit(cfg *config.Config, temps []float64) ([][]RunSpec, error) {
	sw := cfg.Batch.Fruit
	st, err := components.ParseStage(sw.Stage)
	if err != nil {
		return nil, err
	}

	var batches [][]RunSpec
	for k := 0; ; k++ {
		gt := systems.Round2(sw.GTFrom + float64(k)*sw.GTStep)
		if gt > sw.GTTo {
			break
		}
		for lag := 0; lag < sw.LagTo; lag += sw.LagWindow {
			var runs []RunSpec
			for i := 0; i < sw.LagWindow && lag+i < sw.LagTo; i += sw.LagStep {
				runs = append(runs, RunSpec{
					Label: fmt.Sprintf("fruit_gt%g_lag%d", gt, lag+i),
					Days:  cfg.Run.Days,
					Overrides: map[string]float64{
						params.InitialKey(st): sw.InitialPop,
						"fruit gt multiplier": gt,
						"fruit time lag":      float64(lag + i),
					},
					Options: simulation.RunOptions{
						IgnoreDiapause: true,
						StartDay:       sw.StartDay,
					},
					Temps: temps,
				})
			}
			batches = append(batches, runs)
		}
	}
	return batches, nil
}

// One batch per critical temperature and window of daylight thresholds.
func planDiapause(cfg *config.Config, temps []float64) ([][]RunSpec, error) {
	sw := cfg.Batch.Diapause
	st, err := components.ParseStage(sw.Stage)
	if err != nil {
		return nil, err
	}
	window := cfg.Derived.DiapauseWindow
	if window < 1 {
		window = 1
	}

	var batches [][]RunSpec
	for crit := sw.CritTempFrom; crit <= sw.CritTempTo; crit++ {
		for hours := sw.DaylightFrom; hours <= sw.DaylightTo; hours += window {
			var runs []RunSpec
			for i := 0; i < window && hours+i <= sw.DaylightTo; i++ {
				runs = append(runs, RunSpec{
					Label: fmt.Sprintf("diapause_crit%d_daylight%d", crit, hours+i),
					Days:  cfg.Run.Days,
					Overrides: map[string]float64{
						params.InitialKey(st):     sw.InitialPop,
						"diapause critical temp":  float64(crit),
						"diapause daylight hours": float64(hours + i),
					},
					Options: simulation.RunOptions{
						IgnoreFruit: true,
						StartDay:    sw.StartDay,
					},
					Temps: temps,
				})
			}
			batches = append(batches, runs)
		}
	}
	return batches, nil
}

// A single batch with one run per constant temperature. Without a start day
// nothing is injected and the populations stay empty.
func planConstTemp(cfg *config.Config) [][]RunSpec {
	sw := cfg.Batch.ConstTemp
	runs := make([]RunSpec, 0, len(sw.Temps))
	for _, T := range sw.Temps {
		runs = append(runs, RunSpec{
			Label: fmt.Sprintf("const_%gC", T),
			Days:  cfg.Run.Days,
			Options: simulation.RunOptions{
				IgnoreFruit:    true,
				IgnoreDiapause: true,
				StartDay:       sw.StartDay,
			},
			Temps: []float64{T},
		})
	}
	return [][]RunSpec{runs}
}

func parseStages(names []string) ([]components.Stage, error) {
	stages := make([]components.Stage, 0, len(names))
	for _, n := range names {
		st, err := components.ParseStage(n)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}
