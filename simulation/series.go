package simulation

import (
	"slices"

	"github.com/pthm-cable/swd/components"
)

// Series is the per-step history of a cell: one sample per integration step.
type Series struct {
	time    []float64
	stages  [components.NumStages][]float64
	females []float64
	fruit   []float64
}

func (s *Series) append(t float64, v *components.StageVector, fruit float64) {
	s.time = append(s.time, t)
	for i := range s.stages {
		s.stages[i] = append(s.stages[i], v[i])
	}
	s.females = append(s.females, v.TotalFemales())
	s.fruit = append(s.fruit, fruit)
}

// Len is the number of recorded steps.
func (s *Series) Len() int { return len(s.time) }

// Time returns a copy of the step times.
func (s *Series) Time() []float64 { return slices.Clone(s.time) }

// Stage returns a copy of the history of one stage.
func (s *Series) Stage(st components.Stage) []float64 {
	if !st.Valid() {
		panic("simulation: invalid stage " + st.String())
	}
	return slices.Clone(s.stages[st])
}

// Females returns a copy of the total adult female history.
func (s *Series) Females() []float64 { return slices.Clone(s.females) }

// FemaleStage returns a copy of the history of the i-th female stage (0-based).
func (s *Series) FemaleStage(i int) []float64 {
	return s.Stage(components.FemaleStage(i))
}

// Fruit returns a copy of the fruit quality history.
func (s *Series) Fruit() []float64 { return slices.Clone(s.fruit) }

// Daily returns the indices of the first sample of each simulated day.
func (s *Series) Daily() []int {
	var idx []int
	last := -1
	for i, t := range s.time {
		if d := int(t); d != last {
			idx = append(idx, i)
			last = d
		}
	}
	return idx
}

func (s *Series) reset() {
	s.time = s.time[:0]
	for i := range s.stages {
		s.stages[i] = s.stages[i][:0]
	}
	s.females = s.females[:0]
	s.fruit = s.fruit[:0]
}
