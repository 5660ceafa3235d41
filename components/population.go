package components

import "gonum.org/v1/gonum/floats"

// StageVector holds one abundance per life stage.
// Values are continuous and are not clamped at zero.
type StageVector [NumStages]float64

// Get returns the abundance of stage s.
func (v *StageVector) Get(s Stage) float64 { return v[s] }

// Set stores the abundance of stage s.
func (v *StageVector) Set(s Stage, value float64) { v[s] = value }

// Females returns the seven adult female stages as a slice aliasing v.
func (v *StageVector) Females() []float64 { return v[Females1:] }

// TotalFemales is the sum of the seven adult female stages.
func (v *StageVector) TotalFemales() float64 { return floats.Sum(v.Females()) }

// Total is the abundance summed over every stage.
func (v *StageVector) Total() float64 { return floats.Sum(v[:]) }

// Reset zeroes every stage.
func (v *StageVector) Reset() { *v = StageVector{} }
