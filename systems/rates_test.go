package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/swd/components"
	"github.com/pthm-cable/swd/params"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ---------- Fertility ----------

func TestFertility_PeakValue(t *testing.T) {
	got := Fertility(23.26, 30)
	if !approx(got, 2.2805421735595, 1e-9) {
		t.Errorf("expected fertility 2.2805 at optimum, got %.12f", got)
	}
}

func TestFertility_ZeroCases(t *testing.T) {
	tests := []struct {
		name string
		T    float64
		tmax float64
	}{
		{"above tmax", 30.5, 30},
		{"outside curve band", 53, 100},
		{"far below", -53, 100},
		{"negative base", -30, 100},
	}
	for _, tt := range tests {
		if got := Fertility(tt.T, tt.tmax); got != 0 {
			t.Errorf("%s: expected 0, got %v", tt.name, got)
		}
	}
}

func TestFertility_PositiveInsideBand(t *testing.T) {
	for T := 0.0; T <= 30; T += 2.5 {
		if got := Fertility(T, 30); got <= 0 || math.IsInf(got, 0) || math.IsNaN(got) {
			t.Errorf("expected finite positive fertility at %v, got %v", T, got)
		}
	}
}

// ---------- Diapause factor ----------

func TestDiapauseFertilityFactor(t *testing.T) {
	tests := []struct {
		hours float64
		want  float64
	}{
		{0, 0.002},
		{12, 0.19094479210730753},
		{14, 0.9738098161864714},
		{24, 0.9995943999975916},
	}
	for _, tt := range tests {
		if got := DiapauseFertilityFactor(tt.hours); !approx(got, tt.want, 1e-9) {
			t.Errorf("DiapauseFertilityFactor(%v) = %v, want %v", tt.hours, got, tt.want)
		}
	}

	prev := -1.0
	for h := 0.0; h <= 24; h += 0.5 {
		got := DiapauseFertilityFactor(h)
		if got < 0 || got > 1 {
			t.Fatalf("factor %v out of [0,1] at %v hours", got, h)
		}
		if got < prev {
			t.Fatalf("factor decreased at %v hours: %v < %v", h, got, prev)
		}
		prev = got
	}
}

// ---------- Development ----------

func TestDevelopmentRate(t *testing.T) {
	if got := DevelopmentRate(20, 0.72); !approx(got, 0.10402564963902734, 1e-12) {
		t.Errorf("expected 0.104026 at 20C, got %v", got)
	}
	for _, T := range []float64{5, 9.85, 31, 40} {
		if got := DevelopmentRate(T, 0.72); got != 0 {
			t.Errorf("expected 0 outside [T0, TL] at %v, got %v", T, got)
		}
	}
}

// ---------- Mortality ----------

func TestMortalityRate(t *testing.T) {
	m := params.Mortality{
		Max:     0.5,
		MinTemp: 3,
		MaxTemp: 33,
		Tau:     10,
		Beta:    [4]float64{0.1, 0.01, 0.001, 0.0001},
	}
	tests := []struct {
		T    float64
		want float64
	}{
		{2, 0.5},
		{34, 0.5},
		{10, 0.1},
		{12, 0.1 + 0.02 + 0.004 + 0.0008},
		{3, 0.1 - 0.07 + 0.049 - 0.0343},
	}
	for _, tt := range tests {
		if got := MortalityRate(tt.T, m); !approx(got, tt.want, 1e-12) {
			t.Errorf("MortalityRate(%v) = %v, want %v", tt.T, got, tt.want)
		}
	}
}

// ---------- Fruit effects ----------

func TestFruitEffects_HalfSaturation(t *testing.T) {
	f := params.Fruit{N: 4, M: 0.75}
	if got := FruitDevelopmentEffect(0.5, f); !approx(got, 0.625, 1e-12) {
		t.Errorf("development effect at q=0.5: expected 0.625, got %v", got)
	}
	if got := FruitMortalityEffect(0.5, 4, 0.3); !approx(got, 0.015, 1e-12) {
		t.Errorf("mortality effect at q=0.5: expected 0.015, got %v", got)
	}
}

func TestFruitEffects_Bounds(t *testing.T) {
	f := params.Fruit{N: 4, M: 0.75}
	for q := 0.05; q <= 1.0; q += 0.05 {
		dev := FruitDevelopmentEffect(q, f)
		if dev < 1-f.M || dev > 1 {
			t.Errorf("development effect %v out of [%v, 1] at q=%v", dev, 1-f.M, q)
		}
		mort := FruitMortalityEffect(q, f.N, 0.4)
		if mort < 0 || mort > 0.04 {
			t.Errorf("mortality effect %v out of [0, 0.04] at q=%v", mort, q)
		}
	}
}

// ---------- ComputeRates ----------

func TestComputeRates_IgnoreFruit(t *testing.T) {
	p := params.Default()
	for _, q := range []float64{0.05, 0.3, 1} {
		r := ComputeRates(p, RateInputs{Temperature: 22, FruitQuality: q, FertilityMultiplier: 1, IgnoreFruit: true})
		for _, s := range components.AllStages {
			wantMort := MortalityRate(22, p.Mortality(s))
			if r.MortalityNatural[s] != wantMort {
				t.Errorf("q=%v %v: mortality %v, want %v with no fruit addend", q, s, r.MortalityNatural[s], wantMort)
			}
			if s.IsJuvenile() {
				wantDev := DevelopmentRate(22, p.DevelopmentMax(s))
				if r.Development[s] != wantDev {
					t.Errorf("q=%v %v: development %v, want %v with no fruit factor", q, s, r.Development[s], wantDev)
				}
			}
		}
	}
}

func TestComputeRates_FruitAppliedToJuvenilesOnly(t *testing.T) {
	p := params.Default()
	r := ComputeRates(p, RateInputs{Temperature: 22, FruitQuality: 0.05, FertilityMultiplier: 1})
	factor := FruitDevelopmentEffect(0.05, p.Fruit())
	if got, want := r.Development[components.Instar2], DevelopmentRate(22, 0.68)*factor; !approx(got, want, 1e-15) {
		t.Errorf("instar2 development = %v, want %v", got, want)
	}
	if got := r.Development[components.Females1]; got != 0.0125 {
		t.Errorf("females1 development = %v, want constant 0.0125", got)
	}
	addend := FruitMortalityEffect(0.05, 4, 0.8367)
	if got, want := r.MortalityNatural[components.Females7], MortalityRate(22, p.Mortality(components.Females7))+addend; !approx(got, want, 1e-15) {
		t.Errorf("females7 mortality = %v, want %v", got, want)
	}
}

func TestComputeRates_AdultsWithoutDevelopment(t *testing.T) {
	r := ComputeRates(params.Default(), RateInputs{Temperature: 20, FruitQuality: 0.5, FertilityMultiplier: 1})
	if r.Development[components.Males] != 0 || r.Development[components.Females7] != 0 {
		t.Errorf("males/females7 should not develop, got %v / %v",
			r.Development[components.Males], r.Development[components.Females7])
	}
	if r.EggViability[6] != 0 || r.EggViability[0] != 0.832 {
		t.Errorf("unexpected egg viabilities %v", r.EggViability)
	}
}

func TestComputeRates_FertilityMultiplier(t *testing.T) {
	p := params.Default()
	full := ComputeRates(p, RateInputs{Temperature: 20, FertilityMultiplier: 1, IgnoreFruit: true})
	half := ComputeRates(p, RateInputs{Temperature: 20, FertilityMultiplier: 0.5, IgnoreFruit: true})
	if !approx(half.Fertility, full.Fertility/2, 1e-15) {
		t.Errorf("expected multiplier to scale fertility, got %v vs %v", half.Fertility, full.Fertility)
	}
}
