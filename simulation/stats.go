package simulation

import (
	"fmt"

	"github.com/pthm-cable/swd/components"
)

// NumThresholds is the number of adult-female population thresholds a cell
// tracks.
const NumThresholds = 10

// Tracker accumulates the running maximum and the time-integrated total of
// one population series.
type Tracker struct {
	Max     float64
	MaxTime float64 // time of the first occurrence of Max
	Total   float64 // Σ value·dt
}

func (tr *Tracker) observe(v, t, dt float64) {
	tr.Total += v * dt
	if tr.Max < v {
		tr.Max = v
		tr.MaxTime = t
	}
}

// Stats are the summary statistics of one cell.
type Stats struct {
	Stages  [components.NumStages]Tracker
	Females Tracker // the seven female stages together
}

func (s *Stats) observe(v *components.StageVector, t, dt float64) {
	for i := range s.Stages {
		s.Stages[i].observe(v[i], t, dt)
	}
	s.Females.observe(v.TotalFemales(), t, dt)
}

// Thresholds records the first time the adult female population reaches
// each of ten configured levels.
type Thresholds struct {
	values [NumThresholds]float64
	days   [NumThresholds]float64
}

func newThresholds() Thresholds {
	var th Thresholds
	th.reset()
	return th
}

func checkThresholdIndex(i int) {
	if i < 0 || i >= NumThresholds {
		panic(fmt.Sprintf("simulation: threshold index %d out of range [0,%d)", i, NumThresholds))
	}
}

// observe marks newly reached thresholds and returns their indices.
func (th *Thresholds) observe(females, t float64) []int {
	var reached []int
	for i := range th.values {
		if females >= th.values[i] && th.days[i] < 0 {
			th.days[i] = t
			reached = append(reached, i)
		}
	}
	return reached
}

// reset clears the recorded days; configured values are kept.
func (th *Thresholds) reset() {
	for i := range th.days {
		th.days[i] = -1
	}
}
