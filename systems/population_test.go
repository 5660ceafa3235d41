package systems

import (
	"testing"

	"github.com/pthm-cable/swd/components"
	"github.com/pthm-cable/swd/params"
)

func uniformRates(dev, mort, pred float64) Rates {
	var r Rates
	for _, s := range components.AllStages {
		r.Development[s] = dev
		r.MortalityNatural[s] = mort
		r.MortalityPredation[s] = pred
	}
	r.Development[components.Males] = 0
	r.Development[components.Females7] = 0
	r.MaleProportion = 0.5
	return r
}

func TestPopulationEngine_ZeroStaysZero(t *testing.T) {
	var e PopulationEngine
	r := ComputeRates(params.Default(), RateInputs{Temperature: 25, FruitQuality: 0.5, FertilityMultiplier: 1})
	for k := 0; k < 1000; k++ {
		e.Integrate(&r, 0.1)
	}
	if got := e.Stages(); got != (components.StageVector{}) {
		t.Errorf("expected empty population to stay empty, got %v", got)
	}
}

func TestPopulationEngine_SingleStep(t *testing.T) {
	var e PopulationEngine
	var v components.StageVector
	v.Set(components.Eggs, 10)
	v.Set(components.Pupae, 4)
	v.Set(components.Females1, 2)
	v.Set(components.Females7, 1)
	e.Set(v)

	r := uniformRates(0.5, 0.1, 0.05)
	r.Fertility = 3
	r.EggViability = [components.NumFemaleStages]float64{0.8, 0, 0, 0, 0, 0, 0.5}

	e.Integrate(&r, 0.1)
	got := e.Stages()

	tests := []struct {
		stage components.Stage
		want  float64
	}{
		// 10 + 0.1*(3*(0.8*2 + 0.5*1) - 10*0.65)
		{components.Eggs, 10 + 0.1*(3*2.1-6.5)},
		// 0 + 0.1*(0.5*10)
		{components.Instar1, 0.5},
		// 4 + 0.1*(0 - 4*0.65)
		{components.Pupae, 4 - 0.26},
		// 0.1*(0.5*0.5*4)
		{components.Males, 0.1},
		// 2 + 0.1*(0.5*0.5*4 - 2*0.65)
		{components.Females1, 2 + 0.1*(1-1.3)},
		// 0.1*(0.5*2)
		{components.Females2, 0.1},
		// 1 + 0.1*(0 - 1*0.15)
		{components.Females7, 1 - 0.015},
	}
	for _, tt := range tests {
		if !approx(got.Get(tt.stage), tt.want, 1e-12) {
			t.Errorf("%v: expected %v, got %v", tt.stage, tt.want, got.Get(tt.stage))
		}
	}
}

func TestPopulationEngine_UsesPreviousValues(t *testing.T) {
	// Females1 loses everything this step, but eggs must still be laid from
	// its previous value.
	var e PopulationEngine
	var v components.StageVector
	v.Set(components.Females1, 10)
	e.Set(v)

	r := uniformRates(0, 0, 0)
	r.MortalityNatural[components.Females1] = 1
	r.Fertility = 2
	r.EggViability[0] = 1

	e.Integrate(&r, 1)
	got := e.Stages()
	if got.Get(components.Females1) != 0 {
		t.Fatalf("setup: expected females1 to drop to 0, got %v", got.Get(components.Females1))
	}
	if got.Get(components.Eggs) != 20 {
		t.Errorf("expected 20 eggs from previous females, got %v", got.Get(components.Eggs))
	}
}

func TestPopulationEngine_ChainUsesPreviousUpstream(t *testing.T) {
	// A pulse moves one stage per unit step when dev=1 and dt=1.
	var e PopulationEngine
	var v components.StageVector
	v.Set(components.Eggs, 1)
	e.Set(v)

	r := uniformRates(1, 0, 0)
	for k := 1; k <= 4; k++ {
		e.Integrate(&r, 1)
		got := e.Stages()
		want := components.Stage(k)
		if got.Get(want) != 1 || got.Total() != 1 {
			t.Fatalf("step %d: expected pulse in %v only, got %v", k, want, got)
		}
	}
}

func TestPopulationEngine_NegativeAbundanceNotClamped(t *testing.T) {
	// Explicit Euler with a large step overshoots; abundances are reported
	// as computed.
	var e PopulationEngine
	var v components.StageVector
	v.Set(components.Males, 5)
	e.Set(v)

	r := uniformRates(0, 0.8, 0)
	e.Integrate(&r, 2)
	if got := e.Get(components.Males); got >= 0 {
		t.Errorf("expected negative males from overshoot, got %v", got)
	}
}

func TestPopulationEngine_Reset(t *testing.T) {
	var e PopulationEngine
	var v components.StageVector
	v.Set(components.Instar3, 9)
	e.Set(v)
	e.Reset()
	stages := e.Stages()
	if stages.Total() != 0 {
		t.Errorf("expected zero after reset, got %v", e.Stages())
	}
}
