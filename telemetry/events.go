// Package telemetry turns simulation runs into logs, CSV files and plots.
package telemetry

import (
	"log/slog"
	"slices"

	"github.com/pthm-cable/swd/simulation"
	"github.com/pthm-cable/swd/systems"
)

// EventRecord is a simulation event tagged with the run it came from.
type EventRecord struct {
	RunID       string  `csv:"run_id"`
	Type        string  `csv:"type"`
	Time        float64 `csv:"time"`
	Day         int     `csv:"day"`
	Index       int     `csv:"index"`
	Value       float64 `csv:"value"`
	Description string  `csv:"description"`
}

// NewEventRecord converts a cell event into a record.
func NewEventRecord(runID string, e simulation.Event) EventRecord {
	return EventRecord{
		RunID:       runID,
		Type:        string(e.Type),
		Time:        e.Time,
		Day:         int(e.Time),
		Index:       e.Index,
		Value:       e.Value,
		Description: e.Description(),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (r EventRecord) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", r.Type),
		slog.Float64("time", r.Time),
		slog.Float64("value", r.Value),
	}
	if r.Index >= 0 {
		attrs = append(attrs, slog.Int("index", r.Index))
	}
	return slog.GroupValue(attrs...)
}

// EventLog is an observer that keeps every event of a run.
type EventLog struct {
	runID   string
	logger  *slog.Logger
	records []EventRecord
}

// NewEventLog creates an event log for runID. Events are also logged at
// debug level when logger is non-nil.
func NewEventLog(runID string, logger *slog.Logger) *EventLog {
	return &EventLog{runID: runID, logger: logger}
}

func (l *EventLog) OnStep(simulation.StepInfo) {}

func (l *EventLog) OnEvent(e simulation.Event) {
	r := NewEventRecord(l.runID, e)
	l.records = append(l.records, r)
	if l.logger != nil {
		l.logger.Debug(r.Description, "run", l.runID, "event", r)
	}
}

// Records returns a copy of the collected events in emission order.
func (l *EventLog) Records() []EventRecord { return slices.Clone(l.records) }

// Count returns how many events of type t were seen.
func (l *EventLog) Count(t simulation.EventType) int {
	n := 0
	for _, r := range l.records {
		if r.Type == string(t) {
			n++
		}
	}
	return n
}

// First returns the first event of type t.
func (l *EventLog) First(t simulation.EventType) (EventRecord, bool) {
	for _, r := range l.records {
		if r.Type == string(t) {
			return r, true
		}
	}
	return EventRecord{}, false
}

// Reset drops all collected events.
func (l *EventLog) Reset() { l.records = l.records[:0] }

// DiapauseRow is one day of a DiapauseTrace.
type DiapauseRow struct {
	Day                 int     `csv:"day"`
	DayLength           float64 `csv:"day_length"`
	FertilityMultiplier float64 `csv:"fertility_multiplier"`
	GateArmed           bool    `csv:"gate_armed"`
}

// DiapauseTrace records the fertility multiplier applied on each day of the
// year. When a day has several steps the last one wins; later years
// overwrite earlier ones.
type DiapauseTrace struct {
	rows [systems.DaysPerYear]DiapauseRow
	seen [systems.DaysPerYear]bool
}

// NewDiapauseTrace creates an empty trace.
func NewDiapauseTrace() *DiapauseTrace { return &DiapauseTrace{} }

func (d *DiapauseTrace) OnStep(info simulation.StepInfo) {
	d.rows[info.Day] = DiapauseRow{
		Day:                 info.Day,
		DayLength:           info.DayLength,
		FertilityMultiplier: info.FertilityMultiplier,
		GateArmed:           info.GateArmed,
	}
	d.seen[info.Day] = true
}

func (d *DiapauseTrace) OnEvent(simulation.Event) {}

// Multiplier returns the recorded multiplier of a day of the year, or 0 if
// the day was never simulated.
func (d *DiapauseTrace) Multiplier(day int) float64 { return d.rows[day].FertilityMultiplier }

// Rows returns the simulated days in day order.
func (d *DiapauseTrace) Rows() []DiapauseRow {
	var out []DiapauseRow
	for i, ok := range d.seen {
		if ok {
			out = append(out, d.rows[i])
		}
	}
	return out
}
