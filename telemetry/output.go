package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/swd/config"
	"github.com/pthm-cable/swd/params"
)

// csvLog is an append-only CSV file whose header is written with the first
// record.
type csvLog struct {
	file          *os.File
	headerWritten bool
}

func openCSVLog(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{file: f}, nil
}

func appendCSV[T any](l *csvLog, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if !l.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, l.file); err != nil {
			return err
		}
		l.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, l.file)
}

// OutputManager writes the files of a run or batch into one directory:
// batch-wide CSV logs, per-run daily CSVs and plots, and snapshots of the
// configuration and parameters. A nil *OutputManager discards everything.
// It is not safe for concurrent use.
type OutputManager struct {
	dir string

	summary    *csvLog
	thresholds *csvLog
	events     *csvLog
	bookmarks  *csvLog
	perf       *csvLog
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Join(dir, "runs"), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	logs := []struct {
		dst  **csvLog
		name string
	}{
		{&om.summary, "summary.csv"},
		{&om.thresholds, "thresholds.csv"},
		{&om.events, "events.csv"},
		{&om.bookmarks, "bookmarks.csv"},
		{&om.perf, "perf.csv"},
	}
	for _, l := range logs {
		cl, err := openCSVLog(dir, l.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*l.dst = cl
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteParams saves the model parameters in the parameter file format.
func (om *OutputManager) WriteParams(p *params.Parameters) error {
	if om == nil {
		return nil
	}
	return p.WriteFile(filepath.Join(om.dir, "params.yaml"))
}

// WriteSummary appends a run summary to summary.csv.
func (om *OutputManager) WriteSummary(s RunSummary) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.summary, []RunSummary{s}); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// WriteThresholds appends threshold rows to thresholds.csv.
func (om *OutputManager) WriteThresholds(records []ThresholdRecord) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.thresholds, records); err != nil {
		return fmt.Errorf("writing thresholds: %w", err)
	}
	return nil
}

// WriteEvents appends event rows to events.csv.
func (om *OutputManager) WriteEvents(records []EventRecord) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.events, records); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.bookmarks, []Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, batch int) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.perf, []PerfStatsCSV{stats.ToCSV(batch)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteDaily writes the window rows of one run to runs/<label>.csv.
func (om *OutputManager) WriteDaily(label string, rows []WindowStats) error {
	if om == nil {
		return nil
	}
	return om.writeRunCSV(label+".csv", rows)
}

// WriteDiapauseTrace writes the per-day fertility multipliers of one run
// to runs/<label>_diapause.csv.
func (om *OutputManager) WriteDiapauseTrace(label string, rows []DiapauseRow) error {
	if om == nil {
		return nil
	}
	return om.writeRunCSV(label+"_diapause.csv", rows)
}

func (om *OutputManager) writeRunCSV(name string, rows any) error {
	path := filepath.Join(om.dir, "runs", SanitizeLabel(name))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// PlotPath returns the PNG path for a run's plot, or "" when output is
// disabled.
func (om *OutputManager) PlotPath(label string) string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, "runs", SanitizeLabel(label+".png"))
}

// SanitizeLabel makes a run label safe for use as a file name.
func SanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, label)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, l := range []*csvLog{om.summary, om.thresholds, om.events, om.bookmarks, om.perf} {
		if l == nil {
			continue
		}
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
