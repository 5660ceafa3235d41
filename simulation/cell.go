// Package simulation runs the population model of a single cell.
package simulation

import (
	"github.com/pthm-cable/swd/components"
	"github.com/pthm-cable/swd/daylight"
	"github.com/pthm-cable/swd/params"
	"github.com/pthm-cable/swd/systems"
)

// Cell couples the population, fruit and diapause models of one location and
// records their history. A Cell is owned by a single goroutine.
type Cell struct {
	params *params.Parameters

	population systems.PopulationEngine
	fruit      *systems.FruitQuality
	gate       systems.DiapauseGate
	trigger    systems.InjectionTrigger

	stats      Stats
	thresholds Thresholds
	series     Series

	temperature float64
	observers   []Observer
}

// NewCell builds an empty cell from a copy of p; later changes to p do not
// reach the cell.
func NewCell(p *params.Parameters) *Cell {
	c := &Cell{
		params:     p.Clone(),
		fruit:      systems.NewFruitQuality(),
		trigger:    systems.NewInjectionTrigger(),
		thresholds: newThresholds(),
	}
	return c
}

// AddObserver registers o for step and event notifications.
func (c *Cell) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Cell) emit(e Event) {
	for _, o := range c.observers {
		o.OnEvent(e)
	}
}

// Step advances the cell by one integration step of length dt at time t.
func (c *Cell) Step(temperature float64, ignoreFruit, ignoreDiapause bool, dt, t float64) {
	c.temperature = temperature

	// Fruit is tracked even when its effects are ignored.
	if c.fruit.Update(temperature, t, dt, c.params.Fruit()) {
		c.emit(Event{Type: EventFruitMax, Time: t, Index: -1, Value: c.fruit.Quality()})
	}

	info := StepInfo{
		Time:                t,
		Day:                 int(t) % systems.DaysPerYear,
		Temperature:         temperature,
		FertilityMultiplier: 1,
		FruitQuality:        c.fruit.Quality(),
		Integrated:          true,
	}

	if !ignoreDiapause {
		hours := daylight.ForTime(t, c.params.Latitude())
		info.DayLength = hours
		info.FertilityMultiplier = c.gate.Update(hours, temperature, c.params.Diapause())
		info.GateArmed, info.GateOpen = c.gate.Armed, c.gate.Open

		inject, crossed, integrate := c.trigger.Observe(c.gate.Armed, t)
		if inject {
			c.inject(t)
		}
		if crossed {
			c.emit(Event{Type: EventDiapauseCrossed, Time: t, Index: -1, Value: hours})
		}
		info.Integrated = integrate
	}

	if info.Integrated {
		rates := systems.ComputeRates(c.params, systems.RateInputs{
			Temperature:         temperature,
			FruitQuality:        c.fruit.Quality(),
			FertilityMultiplier: info.FertilityMultiplier,
			IgnoreFruit:         ignoreFruit,
		})
		c.population.Integrate(&rates, dt)
	}

	c.record(t, dt)
	info.Stages = c.population.Stages()

	for _, o := range c.observers {
		o.OnStep(info)
	}
}

func (c *Cell) record(t, dt float64) {
	v := c.population.Stages()
	c.series.append(t, &v, c.fruit.Quality())
	c.stats.observe(&v, t, dt)

	females := v.TotalFemales()
	for _, i := range c.thresholds.observe(females, t) {
		c.emit(Event{Type: EventThresholdReached, Time: t, Index: i, Value: c.thresholds.values[i]})
	}
}

// Inject sets the stage vector to the configured initial populations and
// takes injection away from the diapause gate.
func (c *Cell) Inject(t float64) {
	c.trigger.Force()
	c.inject(t)
}

func (c *Cell) inject(t float64) {
	v := c.params.InitialPopulations()
	c.population.Set(v)
	c.emit(Event{Type: EventInjection, Time: t, Index: -1, Value: v.Total()})
}

// ForceInjection stops the diapause gate from injecting; the caller will
// call Inject on its own schedule.
func (c *Cell) ForceInjection() { c.trigger.Force() }

// Reset returns the cell to time 0 with an empty population. Parameters and
// threshold levels are kept.
func (c *Cell) Reset() {
	c.population.Reset()
	c.fruit.Reset()
	c.gate.Reset()
	c.trigger.Reset()
	c.stats = Stats{}
	c.thresholds.reset()
	c.series.reset()
	c.temperature = 0
}

// Params returns a copy of the cell's parameters.
func (c *Cell) Params() *params.Parameters { return c.params.Clone() }

// Stage returns the current abundance of s.
func (c *Cell) Stage(s components.Stage) float64 { return c.population.Get(s) }

// Stages returns the current stage vector.
func (c *Cell) Stages() components.StageVector { return c.population.Stages() }

// Females is the current total adult female population.
func (c *Cell) Females() float64 {
	v := c.population.Stages()
	return v.TotalFemales()
}

// FemaleStages returns the seven female stage abundances.
func (c *Cell) FemaleStages() [components.NumFemaleStages]float64 {
	v := c.population.Stages()
	var out [components.NumFemaleStages]float64
	copy(out[:], v.Females())
	return out
}

// TotalPopulation is the abundance over all stages.
func (c *Cell) TotalPopulation() float64 {
	v := c.population.Stages()
	return v.Total()
}

// Stats returns the running statistics.
func (c *Cell) Stats() Stats { return c.stats }

// StageStats returns the tracker of one stage.
func (c *Cell) StageStats(s components.Stage) Tracker {
	if !s.Valid() {
		panic("simulation: invalid stage " + s.String())
	}
	return c.stats.Stages[s]
}

// Series returns the recorded history. The returned value must not be used
// after the next Step.
func (c *Cell) Series() *Series { return &c.series }

// Temperature is the temperature of the last step.
func (c *Cell) Temperature() float64 { return c.temperature }

// FruitQuality is the current fruit ripeness.
func (c *Cell) FruitQuality() float64 { return c.fruit.Quality() }

// DayCrossedMaxFruit is the first time fruit quality reached 1.00, or -1.
func (c *Cell) DayCrossedMaxFruit() float64 { return c.fruit.MaxTime() }

// CrossedDiapauseDay is the day the diapause gate first armed, or -1.
func (c *Cell) CrossedDiapauseDay() int { return c.trigger.CrossedDay() }

// Gate returns the current diapause gate flags.
func (c *Cell) Gate() systems.DiapauseGate { return c.gate }

// SetThreshold sets the population level of threshold i.
// It panics if i is outside [0, NumThresholds).
func (c *Cell) SetThreshold(i int, population float64) {
	checkThresholdIndex(i)
	c.thresholds.values[i] = population
}

// Threshold returns the population level of threshold i.
func (c *Cell) Threshold(i int) float64 {
	checkThresholdIndex(i)
	return c.thresholds.values[i]
}

// ThresholdDay is the first time adult females reached threshold i, or -1.
func (c *Cell) ThresholdDay(i int) float64 {
	checkThresholdIndex(i)
	return c.thresholds.days[i]
}

// ThresholdDays returns every threshold day in index order.
func (c *Cell) ThresholdDays() [NumThresholds]float64 { return c.thresholds.days }
