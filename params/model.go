package params

import "github.com/pthm-cable/swd/components"

// Mortality holds the temperature-mortality coefficients of one stage.
type Mortality struct {
	Max       float64    // rate used outside [MinTemp, MaxTemp]
	MinTemp   float64
	MaxTemp   float64
	Tau       float64    // polynomial centre
	Beta      [4]float64 // cubic coefficients in (T - Tau)
	Predation float64
}

// Fruit holds the fruit quality model coefficients.
type Fruit struct {
	N             float64
	M             float64
	TimeLag       float64
	BaseTemp      float64
	GTMultiplier  float64
	HarvestCutoff float64
	HarvestDrop   float64
}

// Diapause holds the gate thresholds.
type Diapause struct {
	CriticalTemp  float64
	DaylightHours float64
}

// Key builds a per-stage parameter name such as "pupae mortality tau".
func Key(s components.Stage, field string) string {
	return s.String() + " " + field
}

// InitialKey is the name of the initial population of s.
func InitialKey(s components.Stage) string {
	return "initial " + s.String()
}

// Mortality returns the mortality coefficients of s.
func (p *Parameters) Mortality(s components.Stage) Mortality {
	return Mortality{
		Max:     p.Get(Key(s, "mortality max")),
		MinTemp: p.Get(Key(s, "mortality min temp")),
		MaxTemp: p.Get(Key(s, "mortality max temp")),
		Tau:     p.Get(Key(s, "mortality tau")),
		Beta: [4]float64{
			p.Get(Key(s, "mortality beta0")),
			p.Get(Key(s, "mortality beta1")),
			p.Get(Key(s, "mortality beta2")),
			p.Get(Key(s, "mortality beta3")),
		},
		Predation: p.Get(Key(s, "mortality due to predation")),
	}
}

// DevelopmentMax returns the development maximum of s. Males and the last
// female stage do not develop and report 0.
func (p *Parameters) DevelopmentMax(s components.Stage) float64 {
	if s == components.Males || s == components.Females7 {
		return 0
	}
	return p.Get(Key(s, "development max"))
}

// EggViability returns the viability of eggs laid by female stage s.
func (p *Parameters) EggViability(s components.Stage) float64 {
	s.FemaleIndex() // panics for non-female stages
	return p.Get(Key(s, "egg viability"))
}

// InitialPopulations returns the configured injection vector.
func (p *Parameters) InitialPopulations() components.StageVector {
	var v components.StageVector
	for _, s := range components.AllStages {
		v.Set(s, p.Get(InitialKey(s)))
	}
	return v
}

// Fruit returns the fruit model coefficients.
func (p *Parameters) Fruit() Fruit {
	return Fruit{
		N:             p.Get("fruit n"),
		M:             p.Get("fruit m"),
		TimeLag:       p.Get("fruit time lag"),
		BaseTemp:      p.Get("fruit base temp"),
		GTMultiplier:  p.Get("fruit gt multiplier"),
		HarvestCutoff: p.Get("fruit harvest cutoff"),
		HarvestDrop:   p.Get("fruit harvest drop"),
	}
}

// Diapause returns the diapause thresholds.
func (p *Parameters) Diapause() Diapause {
	return Diapause{
		CriticalTemp:  p.Get("diapause critical temp"),
		DaylightHours: p.Get("diapause daylight hours"),
	}
}

// MaleProportion is the fraction of eggs that become males.
func (p *Parameters) MaleProportion() float64 { return p.Get("male proportion") }

// Latitude of the simulated cell in degrees.
func (p *Parameters) Latitude() float64 { return p.Get("latitude") }

// FertilityTmax is the temperature above which females lay no eggs.
func (p *Parameters) FertilityTmax() float64 { return p.Get("fertility tmax") }
