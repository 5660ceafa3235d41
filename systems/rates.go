package systems

import (
	"math"

	"github.com/pthm-cable/swd/components"
	"github.com/pthm-cable/swd/params"
)

// Fertility curve fit: c · (2740.50 − (T − 23.26)²)^88.38.
// The scale and exponent are evaluated in log space so that neither the tiny
// constant nor the large power leaves float64 range.
const (
	fertilityLogScale = -698.7824456171694 // ln(3.3315e-304)
	fertilityPeak     = 2740.50
	fertilityOptimum  = 23.26
	fertilityExponent = 88.38
	fertilityD        = 5.88
	fertilityL        = 52.68
)

// Diapause fertility factor: a generalised logistic curve in day length giving
// the percentage of females in diapause.
const (
	diapauseA = 0.04056
	diapauseK = 99.8
	diapauseV = 1.2428535918
	diapauseM = 0
	diapauseQ = 3.23967951563418e-16
	diapauseB = -2.871323611
)

// Brière juvenile development curve.
const (
	briereA  = 0.0001113
	briereT0 = 9.8504
	briereTL = 30.99
)

// FruitQualityConstant is the half-saturation quality of the fruit effects.
const FruitQualityConstant = 0.5

// Fertility returns eggs per female per day at temperature T. It is zero
// above tmax and outside the band where the curve fit is defined.
func Fertility(T, tmax float64) float64 {
	if T > tmax {
		return 0
	}
	if T*T+fertilityD*fertilityD >= fertilityL*fertilityL {
		return 0
	}
	base := fertilityPeak - (T-fertilityOptimum)*(T-fertilityOptimum)
	if base <= 0 {
		return 0
	}
	return math.Exp(fertilityLogScale + fertilityExponent*math.Log(base))
}

// DiapauseFertilityFactor returns the fraction of females not in diapause
// for a day of the given length.
func DiapauseFertilityFactor(hours float64) float64 {
	denom := 1 + diapauseQ*math.Exp(-diapauseB*(hours-diapauseM))
	effect := diapauseA + (diapauseK-diapauseA)/math.Pow(denom, 1/diapauseV)
	return (100 - effect) / 100
}

// DevelopmentRate is the Brière juvenile development rate scaled by the
// stage's development maximum. It is zero outside [T0, TL].
func DevelopmentRate(T, devMax float64) float64 {
	if T > briereTL || T < briereT0 {
		return 0
	}
	return briereA * T * (T - briereT0) * math.Sqrt(briereTL-T) / devMax
}

// MortalityRate is a cubic in (T − τ), replaced by the stage maximum when T
// leaves the tolerated band.
func MortalityRate(T float64, m params.Mortality) float64 {
	if !(m.MinTemp <= T && T <= m.MaxTemp) {
		return m.Max
	}
	x := T - m.Tau
	return m.Beta[0] + x*(m.Beta[1]+x*(m.Beta[2]+x*m.Beta[3]))
}

func fruitRatio(quality, n float64) float64 {
	return math.Pow(quality/FruitQualityConstant, n)
}

// FruitDevelopmentEffect is the multiplicative fruit effect on juvenile
// development, between 1−m and 1.
func FruitDevelopmentEffect(quality float64, f params.Fruit) float64 {
	ratio := fruitRatio(quality, f.N)
	return f.M*ratio/(1+ratio) + 1 - f.M
}

// FruitMortalityEffect is the additive fruit effect on mortality; poor fruit
// adds up to a tenth of the stage's maximum mortality.
func FruitMortalityEffect(quality, n, maxMortality float64) float64 {
	ratio := fruitRatio(quality, n)
	return 0.1 * maxMortality / (1 + ratio)
}

// Rates are the instantaneous per-stage rates for one integration step.
type Rates struct {
	Fertility          float64 // eggs/female/day, diapause multiplier applied
	Development        components.StageVector
	MortalityNatural   components.StageVector
	MortalityPredation components.StageVector
	MaleProportion     float64
	EggViability       [components.NumFemaleStages]float64
}

// RateInputs are the per-step conditions the rates depend on.
type RateInputs struct {
	Temperature         float64
	FruitQuality        float64
	FertilityMultiplier float64
	IgnoreFruit         bool
}

// ComputeRates evaluates every rate for one step from the parameter snapshot.
func ComputeRates(p *params.Parameters, in RateInputs) Rates {
	T := in.Temperature
	fruit := p.Fruit()

	r := Rates{
		Fertility:      Fertility(T, p.FertilityTmax()) * in.FertilityMultiplier,
		MaleProportion: p.MaleProportion(),
	}

	devEffect := 1.0
	if !in.IgnoreFruit {
		devEffect = FruitDevelopmentEffect(in.FruitQuality, fruit)
	}

	for _, s := range components.AllStages {
		mort := p.Mortality(s)

		switch {
		case s.IsJuvenile():
			r.Development[s] = DevelopmentRate(T, p.DevelopmentMax(s)) * devEffect
		case s == components.Males, s == components.Females7:
			// no onward development
		default:
			// adult females age at a constant rate
			r.Development[s] = p.DevelopmentMax(s)
		}

		r.MortalityNatural[s] = MortalityRate(T, mort)
		if !in.IgnoreFruit {
			r.MortalityNatural[s] += FruitMortalityEffect(in.FruitQuality, fruit.N, mort.Max)
		}
		r.MortalityPredation[s] = mort.Predation

		if s.IsFemale() {
			r.EggViability[s.FemaleIndex()] = p.EggViability(s)
		}
	}
	return r
}
