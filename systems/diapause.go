package systems

import "github.com/pthm-cable/swd/params"

// DiapauseGate is the two-flag diapause switch. Armed (s1) suppresses
// reproduction while false; Open (s2) records that day length has passed the
// threshold since the gate armed.
//
// Open can only be set while Armed was already set on the previous step.
// Once both are set, a day shorter than the threshold disarms the gate.
type DiapauseGate struct {
	Armed bool
	Open  bool
}

// Update advances the gate one step from the previous flag values and
// returns the fertility multiplier for the step, in [0, 1].
func (g *DiapauseGate) Update(hours, temperature float64, d params.Diapause) float64 {
	armed, open := g.Armed, g.Open

	// Open reads the pre-update Armed flag.
	switch {
	case !armed:
		g.Open = false
	case hours >= d.DaylightHours:
		g.Open = true
	}

	switch {
	case armed && open && hours < d.DaylightHours:
		g.Armed = false
	case !open && temperature > d.CriticalTemp:
		g.Armed = true
	}

	if !g.Armed {
		return 0
	}
	return DiapauseFertilityFactor(hours)
}

// Reset returns the gate to its initial closed state.
func (g *DiapauseGate) Reset() { *g = DiapauseGate{} }

// InjectionTrigger decides when the initial populations enter the cell.
// It reacts to the first step on which the diapause gate is armed, unless
// injection was forced to a fixed start day.
type InjectionTrigger struct {
	forced     bool
	crossed    bool
	crossedDay int
}

// NewInjectionTrigger returns a trigger that has not fired.
func NewInjectionTrigger() InjectionTrigger {
	return InjectionTrigger{crossedDay: -1}
}

// Force suppresses gate-driven injection; the caller injects on its own
// schedule. A forced trigger also lets integration run before the gate arms.
func (tr *InjectionTrigger) Force() { tr.forced = true }

// Forced reports whether injection has been taken over by the caller.
func (tr *InjectionTrigger) Forced() bool { return tr.forced }

// Crossed reports whether the gate has armed at least once.
func (tr *InjectionTrigger) Crossed() bool { return tr.crossed }

// CrossedDay is the day the gate first armed, or -1.
func (tr *InjectionTrigger) CrossedDay() int { return tr.crossedDay }

// Observe is called with the gate state after the step's transition.
// It reports whether the initial populations should be injected now, whether
// the gate armed for the first time, and whether the population should be
// integrated this step at all.
func (tr *InjectionTrigger) Observe(armed bool, t float64) (inject, firstCross, integrate bool) {
	if !armed {
		return false, false, tr.crossed || tr.forced
	}
	if !tr.crossed {
		inject = !tr.forced
		firstCross = true
		tr.crossed = true
		tr.crossedDay = int(t)
	}
	return inject, firstCross, true
}

// Reset clears the trigger.
func (tr *InjectionTrigger) Reset() { *tr = NewInjectionTrigger() }
