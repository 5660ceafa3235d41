package telemetry

import (
	"math"

	"github.com/pthm-cable/swd/simulation"
)

// Collector is an observer that folds integration steps into windows of
// simulated days and produces one WindowStats per window.
type Collector struct {
	windowDays float64

	// Current window tracking
	open       bool
	window     int
	steps      int
	armed      int
	integrated int
	tempSum    float64
	tempMin    float64
	tempMax    float64
	multSum    float64
	last       simulation.StepInfo

	done []WindowStats
}

// NewCollector creates a collector with windows of windowDays simulated
// days. Non-positive values select one-day windows.
func NewCollector(windowDays float64) *Collector {
	if !(windowDays > 0) {
		windowDays = 1
	}
	return &Collector{windowDays: windowDays}
}

// WindowDays is the window length in days.
func (c *Collector) WindowDays() float64 { return c.windowDays }

func (c *Collector) OnStep(info simulation.StepInfo) {
	w := int(info.Time / c.windowDays)
	if c.open && w != c.window {
		c.closeWindow()
	}
	if !c.open {
		c.open = true
		c.window = w
		c.tempMin = math.Inf(1)
		c.tempMax = math.Inf(-1)
	}

	c.steps++
	if info.GateArmed {
		c.armed++
	}
	if info.Integrated {
		c.integrated++
	}
	c.tempSum += info.Temperature
	c.tempMin = math.Min(c.tempMin, info.Temperature)
	c.tempMax = math.Max(c.tempMax, info.Temperature)
	c.multSum += info.FertilityMultiplier
	c.last = info
}

func (c *Collector) OnEvent(simulation.Event) {}

func (c *Collector) closeWindow() {
	n := float64(c.steps)
	s := WindowStats{
		Day:                 float64(c.window) * c.windowDays,
		Steps:               c.steps,
		TempMean:            c.tempSum / n,
		TempMin:             c.tempMin,
		TempMax:             c.tempMax,
		DayLength:           c.last.DayLength,
		FertilityMultiplier: c.multSum / n,
		GateArmed:           float64(c.armed) / n,
		IntegratedSteps:     c.integrated,
		FruitQuality:        c.last.FruitQuality,
	}
	s.setStages(&c.last.Stages)
	c.done = append(c.done, s)

	c.open = false
	c.steps, c.armed, c.integrated = 0, 0, 0
	c.tempSum, c.multSum = 0, 0
}

// Pending returns the number of completed windows not yet flushed.
func (c *Collector) Pending() int { return len(c.done) }

// Flush closes the open window, if any, and returns every window completed
// since the last flush.
func (c *Collector) Flush() []WindowStats {
	if c.open {
		c.closeWindow()
	}
	out := c.done
	c.done = nil
	return out
}

// Reset discards all windows.
func (c *Collector) Reset() {
	c.open = false
	c.steps, c.armed, c.integrated = 0, 0, 0
	c.tempSum, c.multSum = 0, 0
	c.done = nil
}
