package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/swd/params"
)

var testFruit = params.Fruit{
	N:             4,
	M:             0.75,
	TimeLag:       50,
	BaseTemp:      4,
	GTMultiplier:  4,
	HarvestCutoff: 0.95,
	HarvestDrop:   0.1,
}

// runFruit steps the model at a constant temperature and returns the quality
// after each step keyed by step index.
func runFruit(f *FruitQuality, T, dt float64, steps int) []float64 {
	out := make([]float64, steps)
	for k := 0; k < steps; k++ {
		f.Update(T, float64(k)*dt, dt, testFruit)
		out[k] = f.Quality()
	}
	return out
}

func TestGrowthTime(t *testing.T) {
	if got := GrowthTime(4, 25); !approx(got, 1100.0/21+30, 1e-12) {
		t.Errorf("expected gt %.4f, got %.4f", 1100.0/21+30, got)
	}
	for _, T := range []float64{4, 0, -10} {
		if got := GrowthTime(4, T); !math.IsNaN(got) {
			t.Errorf("expected NaN at %v, got %v", T, got)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.555, 2.56},
		{2.554, 2.55},
		{0.996, 1},
		{0.994, 0.99},
		{7, 7},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFruitQuality_StaysInBounds(t *testing.T) {
	f := NewFruitQuality()
	temps := []float64{-20, 0, 4, 8, 15, 25, 35, 45, 60}
	for k := 0; k < 3*DaysPerYear*4; k++ {
		T := temps[k%len(temps)]
		f.Update(T, float64(k)*0.25, 0.25, testFruit)
		q := f.Quality()
		if math.IsNaN(q) || q < MinFruitQuality || q > MaxFruitQuality {
			t.Fatalf("quality %v out of bounds at step %d (T=%v)", q, k, T)
		}
	}
}

func TestFruitQuality_ColdHoldsFloor(t *testing.T) {
	f := NewFruitQuality()
	for _, q := range runFruit(f, 2, 1, 100) {
		if q != MinFruitQuality {
			t.Fatalf("expected quality to stay at floor below base temp, got %v", q)
		}
	}
}

func TestFruitQuality_SeasonAtConstantTemp(t *testing.T) {
	f := NewFruitQuality()
	q := runFruit(f, 25, 1, 2*DaysPerYear)

	if got := f.MaxTime(); got != 64 {
		t.Errorf("expected max quality first reached on day 64, got %v", got)
	}
	if q[112] != 1 {
		t.Errorf("expected full quality on day 112, got %v", q[112])
	}
	if q[113] >= q[112] {
		t.Errorf("expected harvest decline on day 113, got %v after %v", q[113], q[112])
	}
	if q[364] != MinFruitQuality {
		t.Errorf("expected quality back at floor by year end, got %v", q[364])
	}
	if q[365] != MinFruitQuality {
		t.Errorf("expected reset to %v at day 0 of year 2, got %v", MinFruitQuality, q[365])
	}
	if q[366] != q[1] {
		t.Errorf("expected second year to repeat the first: %v vs %v", q[366], q[1])
	}
}

func TestFruitQuality_HarvestLatch(t *testing.T) {
	f := NewFruitQuality()
	runFruit(f, 25, 1, 114)
	if !f.Harvested() {
		t.Fatal("expected harvest latch after lagged quality exceeded cutoff")
	}
	// Continue into the next year; the latch clears at day 0.
	for k := 114; k <= DaysPerYear; k++ {
		f.Update(25, float64(k), 1, testFruit)
	}
	if f.Harvested() {
		t.Error("expected harvest latch cleared at day 0")
	}
}

func TestFruitQuality_DayZeroForcesFloor(t *testing.T) {
	f := NewFruitQuality()
	// Push quality to the ceiling without ever harvesting.
	noHarvest := testFruit
	noHarvest.HarvestCutoff = 1
	for k := 0; k < DaysPerYear; k++ {
		f.Update(30, float64(k), 1, noHarvest)
	}
	if f.Quality() != MaxFruitQuality {
		t.Fatalf("setup: expected quality 1 at year end, got %v", f.Quality())
	}
	f.Update(30, DaysPerYear, 1, noHarvest)
	if f.Quality() != MinFruitQuality {
		t.Errorf("expected %v on day 0 of a new year, got %v", MinFruitQuality, f.Quality())
	}
}

func TestFruitQuality_MaxTimeIsSticky(t *testing.T) {
	f := NewFruitQuality()
	firsts := 0
	for k := 0; k < 2*DaysPerYear; k++ {
		if f.Update(25, float64(k), 1, testFruit) {
			firsts++
		}
	}
	if firsts != 1 {
		t.Errorf("expected a single first-max event, got %d", firsts)
	}
	if f.MaxTime() != 64 {
		t.Errorf("max time moved to %v", f.MaxTime())
	}
}

func TestFruitQuality_OneSamplePerDay(t *testing.T) {
	f := NewFruitQuality()
	for k := 0; k < 40; k++ {
		f.Update(25, float64(k)*0.25, 0.25, testFruit)
	}
	// t = 9.75 was the last sub-step of day 9
	if f.Daily(9) == 0 || f.Daily(9) != f.Quality() {
		t.Errorf("expected day 9 sample to be the last sub-step value %v, got %v", f.Quality(), f.Daily(9))
	}
	if f.Daily(10) != 0 {
		t.Errorf("expected no sample for a future day, got %v", f.Daily(10))
	}
}

func TestFruitQuality_Reset(t *testing.T) {
	f := NewFruitQuality()
	runFruit(f, 25, 1, 120)
	f.Reset()
	if f.Quality() != MinFruitQuality || f.Harvested() || f.MaxTime() != -1 || f.Daily(50) != 0 {
		t.Errorf("expected pristine model after reset, got q=%v harvested=%v max=%v",
			f.Quality(), f.Harvested(), f.MaxTime())
	}
}
