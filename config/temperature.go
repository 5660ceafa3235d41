package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gocarina/gocsv"
)

// ErrNoTemperatureData is returned for a temperature file without rows.
var ErrNoTemperatureData = errors.New("temperature file has no rows")

// TemperatureRecord is one row of a daily temperature file. The day column
// is optional; rows are used in file order.
type TemperatureRecord struct {
	Day         int     `csv:"day"`
	Temperature float64 `csv:"temperature"`
}

// LoadTemperatures reads a CSV file of daily mean temperatures in °C.
func LoadTemperatures(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening temperature file: %w", err)
	}
	defer f.Close()

	var records []TemperatureRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing temperature file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTemperatureData)
	}

	temps := make([]float64, len(records))
	for i, r := range records {
		if math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0) {
			return nil, fmt.Errorf("%s: row %d: temperature %v is not finite", path, i+1, r.Temperature)
		}
		temps[i] = r.Temperature
	}
	return temps, nil
}

// Temperatures returns the daily temperature series of a run: the
// configured file, or the constant temperature when no file is set.
func (c *Config) Temperatures() ([]float64, error) {
	if c.Run.TemperatureFile == "" {
		return []float64{c.Run.ConstantTemp}, nil
	}
	return LoadTemperatures(c.Run.TemperatureFile)
}
