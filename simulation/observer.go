package simulation

import (
	"fmt"

	"github.com/pthm-cable/swd/components"
)

// EventType identifies a notable moment in a run.
type EventType string

const (
	EventInjection        EventType = "injection"
	EventDiapauseCrossed  EventType = "diapause_crossed"
	EventFruitMax         EventType = "fruit_max"
	EventThresholdReached EventType = "threshold_reached"
)

// Event is emitted by a Cell when something happens that a run report cares
// about. Index is the threshold index for EventThresholdReached and -1 otherwise.
type Event struct {
	Type  EventType
	Time  float64
	Index int
	Value float64
}

// Description is a one-line human summary of the event.
func (e Event) Description() string {
	switch e.Type {
	case EventInjection:
		return fmt.Sprintf("initial populations injected (%.0f flies)", e.Value)
	case EventDiapauseCrossed:
		return fmt.Sprintf("diapause gate armed on day %d", int(e.Time))
	case EventFruitMax:
		return "fruit quality reached 1.00"
	case EventThresholdReached:
		return fmt.Sprintf("adult females reached threshold %d (%g)", e.Index, e.Value)
	}
	return string(e.Type)
}

// StepInfo describes one completed integration step.
type StepInfo struct {
	Time                float64
	Day                 int // day of the year
	Temperature         float64
	DayLength           float64 // hours; 0 when diapause is ignored
	FertilityMultiplier float64
	GateArmed           bool
	GateOpen            bool
	FruitQuality        float64
	Integrated          bool // false when the closed gate skipped the population update
	Stages              components.StageVector
}

// Observer receives per-step and event notifications from a Cell.
// Callbacks run synchronously on the stepping goroutine.
type Observer interface {
	OnStep(StepInfo)
	OnEvent(Event)
}
