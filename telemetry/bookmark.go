package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkOutbreak BookmarkType = "outbreak"
	BookmarkRecovery BookmarkType = "recovery"
	BookmarkCrash    BookmarkType = "crash"
	BookmarkSteady   BookmarkType = "steady_state"
)

// Detection limits, in adult females.
const (
	outbreakMinFemales = 10
	recoveryMaxTrough  = 1
	steadyMinFemales   = 1
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	RunID       string       `csv:"run_id"`
	Type        BookmarkType `csv:"type"`
	Day         float64      `csv:"day"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"run", b.RunID,
		"type", string(b.Type),
		"day", b.Day,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in the adult female series of a
// run from its window statistics.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	troughFemales      float64 // lowest female count since the last recovery
	haveTrough         bool
	peakFemales        float64 // highest female count since the last crash
	steadyWindowsCount int     // consecutive windows with low variation
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Outbreak: females > 2x rolling average
		if b := bd.checkOutbreak(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Recovery: from a trough of at most one female to 3x that and beyond the outbreak floor
		if b := bd.checkRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Crash: dropped >50% from recent peak
		if b := bd.checkCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		if b := bd.checkSteady(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if !bd.haveTrough || stats.Females < bd.troughFemales {
		bd.troughFemales = stats.Females
		bd.haveTrough = true
	}
	if stats.Females > bd.peakFemales {
		bd.peakFemales = stats.Females
	}

	return bookmarks
}

// Reset clears the history and tracked extremes.
func (bd *BookmarkDetector) Reset() {
	*bd = BookmarkDetector{
		history:     make([]WindowStats, bd.historySize),
		historySize: bd.historySize,
	}
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	n = min(n, size)
	out := make([]WindowStats, n)
	for i := range n {
		j := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[j]
	}
	return out
}

func (bd *BookmarkDetector) checkOutbreak(stats WindowStats) *Bookmark {
	history := bd.recent(bd.historySize)
	if len(history) < 3 {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += h.Females
	}
	avg := sum / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.Females > avg*2.0 && stats.Females >= outbreakMinFemales {
		return &Bookmark{
			Type:        BookmarkOutbreak,
			Day:         stats.Day,
			Description: fmt.Sprintf("Females %.1f are %.1fx the rolling average (%.1f)", stats.Females, stats.Females/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkRecovery(stats WindowStats) *Bookmark {
	if !bd.haveTrough || bd.troughFemales > recoveryMaxTrough {
		return nil
	}

	threshold := max(bd.troughFemales*3, outbreakMinFemales)
	if stats.Females >= threshold {
		// Reset the trough after triggering
		oldTrough := bd.troughFemales
		bd.troughFemales = stats.Females

		return &Bookmark{
			Type:        BookmarkRecovery,
			Day:         stats.Day,
			Description: fmt.Sprintf("Females recovered from %.2f to %.1f", oldTrough, stats.Females),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCrash(stats WindowStats) *Bookmark {
	if bd.peakFemales <= 0 {
		return nil
	}

	drop := 1.0 - stats.Females/bd.peakFemales
	if drop > 0.50 && stats.Females < bd.peakFemales-1 {
		// Reset peak after crash
		oldPeak := bd.peakFemales
		bd.peakFemales = stats.Females

		return &Bookmark{
			Type:        BookmarkCrash,
			Day:         stats.Day,
			Description: fmt.Sprintf("Females crashed %.0f%% from peak %.1f to %.1f", drop*100, oldPeak, stats.Females),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteady(stats WindowStats) *Bookmark {
	if stats.Females < steadyMinFemales {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.recent(4)
	if len(history) < 4 {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += h.Females
	}
	mean := sum / 4

	var variance float64
	for _, h := range history {
		d := h.Females - mean
		variance += d * d
	}
	variance /= 4

	if mean > 0 && variance/(mean*mean) < 0.04 { // CV < 0.2
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteady,
			Day:         stats.Day,
			Description: fmt.Sprintf("Steady population around %.1f females over 5+ windows", mean),
		}
	}

	return nil
}
