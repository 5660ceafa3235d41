// Package daylight approximates hours of daylight from latitude and date.
package daylight

import "math"

// AxialTilt is the Earth's axial tilt in degrees.
const AxialTilt = 23.439

// December solstice dates for 2000 through 2020.
var solsticeDays = [...]int{21, 21, 22, 22, 21, 21, 22, 22, 21, 21, 21, 22, 21, 21, 21, 22, 21, 21, 21, 22, 21}

const firstSolsticeYear = 2000

// SolsticeDay returns the day in December of the winter solstice.
// Years outside the table fall back to the 21st.
func SolsticeDay(year int) int {
	if year < firstSolsticeYear || year >= firstSolsticeYear+len(solsticeDays) {
		return 21
	}
	return solsticeDays[year-firstSolsticeYear]
}

// Offset is the number of days between the December solstice and the end
// of the year; it shifts a calendar day so that day 0 falls on the solstice.
func Offset(year int) int {
	return 31 - SolsticeDay(year)
}

// Hours returns the hours of daylight, in [0, 24], on a day counted from the
// winter solstice. The year argument is accepted for callers that key the
// offset by year; the approximation itself does not use it.
func Hours(year, day int, latitude float64) float64 {
	j := math.Pi / 182.625
	m := 1 - math.Tan(radians(latitude))*math.Tan(radians(AxialTilt)*math.Cos(j*float64(day)))

	// m < 0 is polar night and m > 2 is midnight sun.
	m = min(max(m, 0), 2)

	return math.Acos(1-m) / math.Pi * 24
}

// ForTime evaluates Hours for a simulation time in days since the start of
// the run, applying the solstice offset of the run year.
func ForTime(t float64, latitude float64) float64 {
	year := int(t) / 365
	day := int(t) % 365
	return Hours(year, day+Offset(year), latitude)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
