// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package window

import (
	"time"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

const dateLayout = "2006-01-02"

// Span is the time range covered by the transaction log.
type Span struct {
	First time.Time
	Last  time.Time
}

// SpanOf returns the span of txns. ok is false when the log is empty.
func SpanOf(txns []recommend.Transaction) (Span, bool) {
	first, last, ok := recommend.Span(txns)
	return Span{First: first, Last: last}, ok
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Plan lays out the three windows back to back so the holdout ends at the end
// of the log span. The holdout ends at cfg.Anchor when set, otherwise at the
// first midnight after span.Last. Day arithmetic is calendar based, so a
// window crossing a DST change keeps its day count.
func Plan(span Span, cfg recommend.WindowConfig) (recommend.Windows, error) {
	if span.First.IsZero() || span.Last.Before(span.First) {
		return recommend.Windows{}, recommend.NewConfigurationError(recommend.InvariantNonEmptySpan,
			"transaction log is empty")
	}

	lengths := []struct {
		name string
		days int
	}{
		{"historical", cfg.HistoricalDays},
		{"recent", cfg.RecentDays},
		{"holdout", cfg.HoldoutDays},
	}
	for _, l := range lengths {
		if l.days <= 0 {
			return recommend.Windows{}, recommend.NewConfigurationError(recommend.InvariantPositiveWidth,
				"%s window must span at least one day, got %d", l.name, l.days)
		}
	}

	logStart := startOfDay(span.First)
	logEnd := startOfDay(span.Last).AddDate(0, 0, 1)

	end := logEnd
	if !cfg.Anchor.IsZero() {
		if cfg.Anchor.After(logEnd) {
			return recommend.Windows{}, recommend.NewConfigurationError(recommend.InvariantSpanCoverage,
				"anchor %s is after the end of the log %s", cfg.Anchor.Format(time.RFC3339), logEnd.Format(dateLayout))
		}
		end = cfg.Anchor
	}

	holdoutStart := end.AddDate(0, 0, -cfg.HoldoutDays)
	recentStart := holdoutStart.AddDate(0, 0, -cfg.RecentDays)
	historicalStart := recentStart.AddDate(0, 0, -cfg.HistoricalDays)

	if historicalStart.Before(logStart) {
		return recommend.Windows{}, recommend.NewConfigurationError(recommend.InvariantSpanCoverage,
			"windows need %d days from %s but the log starts at %s",
			cfg.HistoricalDays+cfg.RecentDays+cfg.HoldoutDays,
			historicalStart.Format(dateLayout), logStart.Format(dateLayout))
	}

	w := recommend.Windows{
		Historical: recommend.Window{Name: recommend.WindowHistorical, Start: historicalStart, End: recentStart},
		Recent:     recommend.Window{Name: recommend.WindowRecent, Start: recentStart, End: holdoutStart},
		Holdout:    recommend.Window{Name: recommend.WindowHoldout, Start: holdoutStart, End: end},
	}
	if err := Assert(w); err != nil {
		return recommend.Windows{}, err
	}
	return w, nil
}

// Assert checks that every window has positive duration and that the windows
// are ordered historical, recent, holdout without overlap. Every stage calls
// it before reading a window.
func Assert(w recommend.Windows) error {
	for _, win := range w.All() {
		if !win.Start.Before(win.End) {
			return recommend.NewConfigurationError(recommend.InvariantPositiveWidth,
				"%s window [%s, %s) has no duration", win.Name,
				win.Start.Format(time.RFC3339), win.End.Format(time.RFC3339))
		}
	}
	if w.Historical.End.After(w.Recent.Start) {
		return recommend.NewConfigurationError(recommend.InvariantWindowOrder,
			"historical ends at %s after recent starts at %s",
			w.Historical.End.Format(time.RFC3339), w.Recent.Start.Format(time.RFC3339))
	}
	if w.Recent.End.After(w.Holdout.Start) {
		return recommend.NewConfigurationError(recommend.InvariantWindowOrder,
			"recent ends at %s after holdout starts at %s",
			w.Recent.End.Format(time.RFC3339), w.Holdout.Start.Format(time.RFC3339))
	}
	return nil
}
