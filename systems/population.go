package systems

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/swd/components"
)

// PopulationEngine holds the stage vector of one cell and advances it with
// explicit Euler steps. Every right-hand side reads the previous step's
// vector; the new values are written to a second buffer and swapped in.
type PopulationEngine struct {
	cur  components.StageVector
	next components.StageVector
}

// Stages returns the current stage vector.
func (e *PopulationEngine) Stages() components.StageVector { return e.cur }

// Get returns the current abundance of a stage.
func (e *PopulationEngine) Get(s components.Stage) float64 {
	if !s.Valid() {
		panic("systems: invalid stage " + s.String())
	}
	return e.cur[s]
}

// Set replaces the whole stage vector, as on injection.
func (e *PopulationEngine) Set(v components.StageVector) { e.cur = v }

// Reset zeroes every stage.
func (e *PopulationEngine) Reset() {
	e.cur.Reset()
	e.next.Reset()
}

// Integrate applies one Euler step of length dt.
func (e *PopulationEngine) Integrate(r *Rates, dt float64) {
	prev := &e.cur
	next := &e.next

	loss := func(s components.Stage) float64 {
		return prev[s] * (r.MortalityNatural[s] + r.MortalityPredation[s] + r.Development[s])
	}

	// Eggs: fertility weighted by the viability of each female stage.
	laid := r.Fertility * floats.Dot(r.EggViability[:], prev.Females())
	next[components.Eggs] = prev[components.Eggs] + dt*(laid-loss(components.Eggs))

	// Larvae and pupae: inflow from the stage below.
	for s := components.Instar1; s <= components.Pupae; s++ {
		up := s - 1
		next[s] = prev[s] + dt*(r.Development[up]*prev[up]-loss(s))
	}

	// Emerging adults split by the male proportion. Males do not develop.
	emerging := r.Development[components.Pupae] * prev[components.Pupae]
	next[components.Males] = prev[components.Males] + dt*(r.MaleProportion*emerging-loss(components.Males))
	next[components.Females1] = prev[components.Females1] + dt*((1-r.MaleProportion)*emerging-loss(components.Females1))

	// Later female stages age from the previous one.
	for s := components.Females2; s <= components.Females7; s++ {
		up := s - 1
		next[s] = prev[s] + dt*(r.Development[up]*prev[up]-loss(s))
	}

	e.cur, e.next = e.next, e.cur
}
