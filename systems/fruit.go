package systems

import (
	"math"

	"github.com/pthm-cable/swd/params"
)

const (
	// MinFruitQuality is the floor of the ripeness proxy and its value at the
	// start of every year.
	MinFruitQuality = 0.05
	// MaxFruitQuality is fully ripe fruit.
	MaxFruitQuality = 1.0
	// DaysPerYear is the length of a simulated year.
	DaysPerYear = 365
)

// GrowthTime is the fruit ripening time constant at temperature T. It is NaN
// at or below the base temperature, where fruit does not grow.
func GrowthTime(baseTemp, T float64) float64 {
	if T <= baseTemp {
		return math.NaN()
	}
	return 1100/(T-baseTemp) + 30
}

// Round2 rounds to two decimals, half away from zero on the third decimal.
func Round2(x float64) float64 {
	r := int(x * 1000)
	if r%10 >= 5 {
		r = r/10 + 1
	} else {
		r = r / 10
	}
	return float64(r) / 100
}

// FruitQuality is the lagged fruit ripeness model of one cell.
// Quality stays within [MinFruitQuality, MaxFruitQuality].
type FruitQuality struct {
	quality   float64
	daily     [DaysPerYear]float64
	harvested bool
	maxTime   float64
}

// NewFruitQuality returns a model at the start of a year.
func NewFruitQuality() *FruitQuality {
	f := &FruitQuality{}
	f.Reset()
	return f
}

// Update advances quality by one integration step at time t.
// It reports whether quality reached its maximum for the first time.
func (f *FruitQuality) Update(T, t, dt float64, p params.Fruit) bool {
	day := int(t) % DaysPerYear

	if day == 0 {
		f.quality = MinFruitQuality
		f.harvested = false
	} else {
		lag := MinFruitQuality
		if float64(day)-p.TimeLag > 0 {
			lag = f.daily[int(float64(day)-p.TimeLag)]
			if lag > p.HarvestCutoff {
				f.harvested = true
			}
		}
		if f.harvested {
			// keep quality from recovering for the rest of the year
			lag = 1
		}

		drop := 0.0
		if lag > p.HarvestCutoff {
			drop = p.HarvestDrop
		}

		var dq float64
		if gt := GrowthTime(p.BaseTemp, T); math.IsNaN(gt) {
			dq = -f.quality * drop
		} else {
			dq = f.quality * (p.GTMultiplier/gt - drop)
		}
		f.quality = min(max(f.quality+dq*dt, MinFruitQuality), MaxFruitQuality)
	}

	first := false
	if f.maxTime < 0 && Round2(f.quality) == MaxFruitQuality {
		f.maxTime = t
		first = true
	}

	// one sample per day; later sub-steps overwrite earlier ones
	f.daily[day] = f.quality
	return first
}

// Quality is the current ripeness.
func (f *FruitQuality) Quality() float64 { return f.quality }

// Harvested reports whether the harvest latch is set for the current year.
func (f *FruitQuality) Harvested() bool { return f.harvested }

// MaxTime is the first time quality rounded to 1.00, or -1.
func (f *FruitQuality) MaxTime() float64 { return f.maxTime }

// Daily returns the stored quality for a day of the year.
func (f *FruitQuality) Daily(day int) float64 { return f.daily[day] }

// Reset returns the model to day 0 with an empty history.
func (f *FruitQuality) Reset() {
	*f = FruitQuality{quality: MinFruitQuality, maxTime: -1}
}
