package core

// Status is the progress state of a schedule item. The set is closed; free
// text is mapped onto it by the normalize package.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelayed    Status = "delayed"
	StatusSuspended  Status = "suspended"
)

// statusLabel is the wording of a status in the document vocabulary (Label)
// and in the Latin-only fallback used when no CJK font is available.
type statusLabel struct {
	status Status
	label  string
	latin  string
}

var statusLabels = []statusLabel{
	{StatusNotStarted, "未着手", "Not started"},
	{StatusInProgress, "進行中", "In progress"},
	{StatusCompleted, "完了", "Completed"},
	{StatusDelayed, "遅延", "Delayed"},
	{StatusSuspended, "中断", "Suspended"},
}

// Statuses returns every status in canonical order.
func Statuses() []Status {
	out := make([]Status, len(statusLabels))
	for i, l := range statusLabels {
		out[i] = l.status
	}
	return out
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	for _, l := range statusLabels {
		if l.status == s {
			return true
		}
	}
	return false
}

// Label returns the document wording of s (e.g. 完了).
func (s Status) Label() string {
	for _, l := range statusLabels {
		if l.status == s {
			return l.label
		}
	}
	return StatusNotStarted.Label()
}

// LatinLabel returns the wording of s drawable with a core PDF font.
func (s Status) LatinLabel() string {
	for _, l := range statusLabels {
		if l.status == s {
			return l.latin
		}
	}
	return StatusNotStarted.LatinLabel()
}

// Field identifies one column of the schedule table.
type Field int

const (
	FieldProcessName Field = iota
	FieldPlannedStart
	FieldPlannedEnd
	FieldActualStart
	FieldActualEnd
	FieldAssignee
	FieldStatus
	FieldRemarks
)

type fieldLabel struct {
	field Field
	label string
	latin string
}

var fieldLabels = []fieldLabel{
	{FieldProcessName, "工程名", "Process"},
	{FieldPlannedStart, "予定開始", "Plan start"},
	{FieldPlannedEnd, "予定終了", "Plan end"},
	{FieldActualStart, "実際開始", "Act. start"},
	{FieldActualEnd, "実際終了", "Act. end"},
	{FieldAssignee, "担当者", "Assignee"},
	{FieldStatus, "状況", "Status"},
	{FieldRemarks, "備考", "Remarks"},
}

// Fields returns the table columns in display order. A field's position in
// this slice is its column index on the page and in extracted grids.
func Fields() []Field {
	out := make([]Field, len(fieldLabels))
	for i, l := range fieldLabels {
		out[i] = l.field
	}
	return out
}

// Label returns the column header in the document vocabulary.
func (f Field) Label() string {
	if int(f) < 0 || int(f) >= len(fieldLabels) {
		return ""
	}
	return fieldLabels[f].label
}

// LatinLabel returns the column header drawable with a core PDF font.
func (f Field) LatinLabel() string {
	if int(f) < 0 || int(f) >= len(fieldLabels) {
		return ""
	}
	return fieldLabels[f].latin
}
