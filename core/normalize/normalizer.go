// Package normalize maps free-text status cells onto the closed status set.
// It is plain table lookup, not fuzzy matching: a cell either names a known
// synonym or falls back to "not started". Rows are never rejected for their
// status text.
package normalize

import (
	"strings"

	"github.com/gaurav-prasanna/schedpdf/core"
)

// synonyms maps variant phrasings to canonical statuses. Latin keys are
// stored lower-case and matched case-insensitively.
var synonyms = map[string]core.Status{
	// not started
	"未着手": core.StatusNotStarted,
	"未開始": core.StatusNotStarted,
	"着手前": core.StatusNotStarted,
	"予定":  core.StatusNotStarted,
	"not started": core.StatusNotStarted,
	"todo":        core.StatusNotStarted,
	"pending":     core.StatusNotStarted,

	// in progress
	"進行中": core.StatusInProgress,
	"作業中": core.StatusInProgress,
	"施工中": core.StatusInProgress,
	"実施中": core.StatusInProgress,
	"着手":  core.StatusInProgress,
	"in progress": core.StatusInProgress,
	"ongoing":     core.StatusInProgress,
	"wip":         core.StatusInProgress,

	// completed
	"完了": core.StatusCompleted,
	"完成": core.StatusCompleted,
	"済":  core.StatusCompleted,
	"終了": core.StatusCompleted,
	"completed": core.StatusCompleted,
	"complete":  core.StatusCompleted,
	"done":      core.StatusCompleted,
	"finished":  core.StatusCompleted,

	// delayed
	"遅延": core.StatusDelayed,
	"遅れ": core.StatusDelayed,
	"遅滞": core.StatusDelayed,
	"delayed": core.StatusDelayed,
	"late":    core.StatusDelayed,
	"behind":  core.StatusDelayed,

	// suspended
	"中断": core.StatusSuspended,
	"中止": core.StatusSuspended,
	"保留": core.StatusSuspended,
	"休止": core.StatusSuspended,
	"停止": core.StatusSuspended,
	"suspended": core.StatusSuspended,
	"on hold":   core.StatusSuspended,
	"paused":    core.StatusSuspended,
	"halted":    core.StatusSuspended,
}

func init() {
	// Canonical keys and both label sets map to themselves, which makes
	// Status idempotent over its own output in any wording.
	for _, s := range core.Statuses() {
		synonyms[string(s)] = s
		synonyms[s.Label()] = s
		synonyms[strings.ToLower(s.LatinLabel())] = s
	}
}

// Status returns the canonical status named by text. Unknown or empty text
// yields core.StatusNotStarted.
func Status(text string) core.Status {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.StatusNotStarted
	}
	if s, ok := synonyms[text]; ok {
		return s
	}
	if s, ok := synonyms[strings.ToLower(text)]; ok {
		return s
	}
	return core.StatusNotStarted
}
