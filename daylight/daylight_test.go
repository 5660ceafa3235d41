package daylight

import (
	"math"
	"testing"
)

func TestSolsticeDay(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{1999, 21},
		{2000, 21},
		{2002, 22},
		{2011, 22},
		{2019, 22},
		{2020, 21},
		{2021, 21},
		{0, 21},
	}
	for _, tt := range tests {
		if got := SolsticeDay(tt.year); got != tt.want {
			t.Errorf("SolsticeDay(%d) = %d, want %d", tt.year, got, tt.want)
		}
	}
	if got := Offset(2003); got != 9 {
		t.Errorf("Offset(2003) = %d, want 9", got)
	}
}

func TestHoursEquator(t *testing.T) {
	for _, day := range []int{0, 90, 182, 300} {
		if got := Hours(0, day, 0); math.Abs(got-12) > 1e-9 {
			t.Errorf("Hours at equator on day %d = %v, want 12", day, got)
		}
	}
}

func TestHoursSeasons(t *testing.T) {
	const lat = 46.49
	winter := Hours(0, 0, lat)
	summer := Hours(0, 183, lat)
	if winter >= 12 || summer <= 12 {
		t.Errorf("expected short winter and long summer days, got winter=%v summer=%v", winter, summer)
	}
	// The day-0 cosine puts the shortest day at the northern winter solstice.
	if winter < 8 || winter > 9 {
		t.Errorf("winter solstice hours at %v = %v, want about 8.5", lat, winter)
	}
}

func TestHoursPolarClamp(t *testing.T) {
	if got := Hours(0, 0, 80); got != 0 {
		t.Errorf("polar night = %v, want 0", got)
	}
	if got := Hours(0, 183, 80); got != 24 {
		t.Errorf("midnight sun = %v, want 24", got)
	}
}

func TestHoursRange(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 7.5 {
		for day := 0; day < 400; day += 11 {
			h := Hours(0, day, lat)
			if math.IsNaN(h) || h < 0 || h > 24 {
				t.Fatalf("Hours(%d, %v) = %v out of [0,24]", day, lat, h)
			}
		}
	}
}

func TestForTimeAppliesOffset(t *testing.T) {
	// year 0 falls back to the 21st: offset 10
	if got, want := ForTime(5.7, 46.49), Hours(0, 15, 46.49); got != want {
		t.Errorf("ForTime(5.7) = %v, want %v", got, want)
	}
	if got, want := ForTime(365, 46.49), Hours(1, 10, 46.49); got != want {
		t.Errorf("ForTime(365) = %v, want %v", got, want)
	}
}
