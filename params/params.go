// Package params holds the named model parameters read by the simulation core.
//
// Parameters are a flat mapping from a human-readable name (for example
// "instar2 mortality beta0") to a real value. The set of valid names is fixed
// by the embedded defaults; user files may only override existing names.
package params

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	// ErrUnknownParameter is returned when a name is not part of the model.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrInvalidParameter is wrapped by every ValidationError.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ValidationError describes a value rejected for a named parameter.
type ValidationError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q = %g: %s", e.Name, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidParameter }

// Parameters is a validated snapshot of model parameters.
// A Parameters value is not safe for concurrent mutation; share it by Clone.
type Parameters struct {
	values map[string]float64
}

// Default returns the built-in parameter set.
func Default() *Parameters {
	values, err := parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("params: parsing embedded defaults: %v", err))
	}
	return &Parameters{values: values}
}

// LoadFile returns the defaults overlaid with the parameters in path.
func LoadFile(path string) (*Parameters, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	if err := p.Overlay(path); err != nil {
		return nil, err
	}
	return p, nil
}

func parse(data []byte) (map[string]float64, error) {
	values := make(map[string]float64)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Overlay reads a `name: value` file and applies it on top of p.
// Nothing is applied if any entry is unknown or invalid.
func (p *Parameters) Overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading parameter file: %w", err)
	}
	values, err := parse(data)
	if err != nil {
		return fmt.Errorf("parsing parameter file %s: %w", path, err)
	}
	if err := p.Apply(values); err != nil {
		return fmt.Errorf("parameter file %s: %w", path, err)
	}
	return nil
}

// Apply sets every override after checking all of them.
// If any override is rejected p is left unchanged.
func (p *Parameters) Apply(overrides map[string]float64) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		if err := p.check(name, overrides[name]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	maps.Copy(p.values, overrides)
	return nil
}

// Get returns the value of a known parameter. It panics on an unknown name,
// which inside the simulation core is a programming error.
func (p *Parameters) Get(name string) float64 {
	v, ok := p.values[name]
	if !ok {
		panic(fmt.Sprintf("params: unknown parameter %q", name))
	}
	return v
}

// Lookup returns the value of name and whether it exists.
func (p *Parameters) Lookup(name string) (float64, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Set validates and stores a single value.
func (p *Parameters) Set(name string, value float64) error {
	if err := p.check(name, value); err != nil {
		return err
	}
	p.values[name] = value
	return nil
}

func (p *Parameters) check(name string, value float64) error {
	if _, ok := p.values[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	if reason := checkValue(name, value); reason != "" {
		return &ValidationError{Name: name, Value: value, Reason: reason}
	}
	return nil
}

// Validate reports every out-of-range value in p.
func (p *Parameters) Validate() error {
	var errs []error
	for _, name := range p.Names() {
		v := p.values[name]
		if reason := checkValue(name, v); reason != "" {
			errs = append(errs, &ValidationError{Name: name, Value: v, Reason: reason})
		}
	}
	return errors.Join(errs...)
}

// Clone returns an independent copy of p.
func (p *Parameters) Clone() *Parameters {
	return &Parameters{values: maps.Clone(p.values)}
}

// Names returns every parameter name in sorted order.
func (p *Parameters) Names() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Map returns a copy of the underlying name/value mapping.
func (p *Parameters) Map() map[string]float64 {
	return maps.Clone(p.values)
}

// MarshalYAML writes the parameters in the same flat form LoadFile reads.
func (p *Parameters) MarshalYAML() (any, error) {
	return p.values, nil
}

// WriteFile snapshots the parameters to path.
func (p *Parameters) WriteFile(path string) error {
	data, err := yaml.Marshal(p.values)
	if err != nil {
		return fmt.Errorf("marshaling parameters: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing parameter file: %w", err)
	}
	return nil
}

func checkValue(name string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "must be finite"
	}
	switch name {
	case "fruit m", "fruit harvest cutoff", "fruit harvest drop", "male proportion":
		return within(v, 0, 1)
	case "fruit time lag":
		return within(v, 0, 365)
	case "fruit gt multiplier":
		if v <= 0 {
			return "must be positive"
		}
		return ""
	case "diapause daylight hours":
		return within(v, 0, 24)
	case "latitude":
		return within(v, -90, 90)
	case "time":
		return nonNegative(v)
	}
	switch {
	case strings.HasPrefix(name, "initial "),
		strings.HasSuffix(name, " mortality max"),
		strings.HasSuffix(name, " mortality due to predation"),
		strings.HasSuffix(name, " development max"),
		strings.HasSuffix(name, " egg viability"):
		return nonNegative(v)
	}
	return ""
}

func within(v, lo, hi float64) string {
	if v < lo || v > hi {
		return fmt.Sprintf("must be within [%g, %g]", lo, hi)
	}
	return ""
}

func nonNegative(v float64) string {
	if v < 0 {
		return "must not be negative"
	}
	return ""
}
