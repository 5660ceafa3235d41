package simulation

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/swd/params"
	"github.com/pthm-cable/swd/systems"
)

var (
	// ErrNegativeTime is returned when asked to run for a negative duration.
	ErrNegativeTime = errors.New("run time must not be negative")
	// ErrNoTemperatures is returned for an empty temperature series.
	ErrNoTemperatures = errors.New("no temperature data")
)

// NoStartDay disables start-day injection; the diapause gate decides.
const NoStartDay = -1

// RunOptions select the model features of a run.
type RunOptions struct {
	IgnoreFruit    bool
	IgnoreDiapause bool
	// StartDay injects the initial populations on that day and stops the
	// diapause gate from injecting. NoStartDay leaves injection to the gate.
	StartDay int
}

// Simulator drives one Cell through time with a fixed integration step.
// Successive Run calls continue from where the previous one stopped.
type Simulator struct {
	cell     *Cell
	dt       float64
	time     float64
	injected bool
}

// New returns a simulator at time 0 for a copy of p.
func New(p *params.Parameters, dt float64) (*Simulator, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("integration step must be positive, got %g", dt)
	}
	return &Simulator{cell: NewCell(p), dt: dt}, nil
}

// Cell returns the simulated cell.
func (s *Simulator) Cell() *Cell { return s.cell }

// DT is the integration step.
func (s *Simulator) DT() float64 { return s.dt }

// Time is the current simulated time in days.
func (s *Simulator) Time() float64 { return s.time }

// RunConstant runs for days at a single temperature.
func (s *Simulator) RunConstant(temperature, days float64, opts RunOptions) error {
	return s.Run([]float64{temperature}, days, opts)
}

// Run advances the cell for days using one temperature per day. The series
// is cycled from the start when the run outlasts it.
func (s *Simulator) Run(temps []float64, days float64, opts RunOptions) error {
	if days < 0 {
		return fmt.Errorf("%w: %g", ErrNegativeTime, days)
	}
	if len(temps) == 0 {
		return ErrNoTemperatures
	}
	if opts.StartDay >= 0 {
		s.cell.ForceInjection()
	}

	start := s.time
	k := 0
	for ; systems.Round2(float64(k)*s.dt) < days; k++ {
		t := start + float64(k)*s.dt
		if opts.StartDay >= 0 && !s.injected && int(t) == opts.StartDay {
			s.injected = true
			s.cell.Inject(t)
		}
		T := temps[int(t)%len(temps)]
		s.cell.Step(T, opts.IgnoreFruit, opts.IgnoreDiapause, s.dt, t)
	}
	s.time = start + float64(k)*s.dt
	return nil
}

// Reset returns the simulator and its cell to time 0.
func (s *Simulator) Reset() {
	s.time = 0
	s.injected = false
	s.cell.Reset()
}
