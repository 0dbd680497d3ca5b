// Package store persists projects and their versioned schedules in SQLite.
//
// A schedule version is immutable once saved: every save creates a new
// project_schedules row numbered max(version)+1 for its project, starting at 1.
// Items are stored exactly as handed over and read back ordered by
// order_index, ties in insertion order.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/dates"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id                    TEXT PRIMARY KEY,
	project_number        INTEGER NOT NULL UNIQUE,
	project_name          TEXT NOT NULL,
	construction_location TEXT,
	construction_company  TEXT,
	created_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_schedules (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL CHECK (version >= 1),
	created_at TEXT NOT NULL,
	UNIQUE (project_id, version)
);

CREATE TABLE IF NOT EXISTS schedule_items (
	id                 TEXT PRIMARY KEY,
	schedule_id        TEXT NOT NULL REFERENCES project_schedules(id) ON DELETE CASCADE,
	process_name       TEXT NOT NULL,
	planned_start_date TEXT,
	planned_end_date   TEXT,
	actual_start_date  TEXT,
	actual_end_date    TEXT,
	assignee           TEXT,
	status             TEXT NOT NULL DEFAULT 'not_started',
	remarks            TEXT,
	order_index        INTEGER NOT NULL DEFAULT 0 CHECK (order_index >= 0)
);

CREATE INDEX IF NOT EXISTS idx_schedule_items_schedule ON schedule_items(schedule_id, order_index);
`

// ErrDuplicateProject is returned when a project number is already taken.
var ErrDuplicateProject = errors.New("project number already exists")

// Project is a stored project.
type Project struct {
	ID        string           `json:"id"`
	Info      core.ProjectInfo `json:"project_info"`
	CreatedAt time.Time        `json:"created_at"`
}

// ScheduleSummary describes one stored schedule version without its items.
type ScheduleSummary struct {
	ID        string    `json:"schedule_id"`
	ProjectID string    `json:"project_id"`
	Version   int       `json:"version"`
	ItemCount int       `json:"items_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed schedule repository. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path, applies the
// connection pragmas and the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	// Pragmas go in the DSN so that every pooled connection gets them.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// OpenMemory opens an in-memory store for tests and closes it on cleanup.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateProject stores a new project. A taken project number yields
// ErrDuplicateProject, also when two callers race for it.
func (s *Store) CreateProject(ctx context.Context, info core.ProjectInfo) (*Project, error) {
	if info.ProjectName == "" {
		return nil, fmt.Errorf("store: project name is required")
	}

	p := &Project{ID: uuid.NewString(), Info: info, CreatedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, project_number, project_name, construction_location, construction_company, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, info.ProjectNumber, info.ProjectName,
		nullString(info.ConstructionLocation), nullString(info.ConstructionCompany),
		formatTime(p.CreatedAt))
	if isConstraint(err) {
		return nil, fmt.Errorf("store: project %d: %w", info.ProjectNumber, ErrDuplicateProject)
	}
	if err != nil {
		return nil, fmt.Errorf("store: inserting project: %w", err)
	}
	return p, nil
}

// isConstraint reports whether err is a SQLite constraint violation. The
// projects table has no constraint a well-formed insert can break other than
// the unique project number.
func isConstraint(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		p                 Project
		location, company sql.NullString
		created           string
	)
	err := row.Scan(&p.ID, &p.Info.ProjectNumber, &p.Info.ProjectName, &location, &company, &created)
	if err != nil {
		return nil, err
	}
	p.Info.ConstructionLocation = location.String
	p.Info.ConstructionCompany = company.String
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &p, nil
}

const projectColumns = `id, project_number, project_name, construction_location, construction_company, created_at`

// GetProject returns the project with the given id, or core.ErrProjectNotFound.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading project %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns projects newest first, skipping offset and returning
// at most limit of them. limit <= 0 means no limit.
func (s *Store) ListProjects(ctx context.Context, limit, offset int) ([]Project, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	// rowid follows insertion, which is creation order.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: listing projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ProjectByNumber returns the project with the given number, or
// core.ErrProjectNotFound.
func (s *Store) ProjectByNumber(ctx context.Context, number int) (*Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE project_number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading project %d: %w", number, err)
	}
	return p, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func latestVersion(ctx context.Context, q querier, projectID string) (int, error) {
	var v int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM project_schedules WHERE project_id = ?`, projectID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("store: reading latest version: %w", err)
	}
	return v, nil
}

// LatestVersion returns the highest schedule version of a project, 0 when it
// has none.
func (s *Store) LatestVersion(ctx context.Context, projectID string) (int, error) {
	return latestVersion(ctx, s.db, projectID)
}

// SaveSchedule stores items as the project's next schedule version and
// returns the resulting document. Items are stored as given, including their
// OrderIndex.
func (s *Store) SaveSchedule(ctx context.Context, projectID string, items []core.ScheduleItem) (*core.ScheduleDocument, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	p, err := scanProject(tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading project %s: %w", projectID, err)
	}

	prev, err := latestVersion(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	doc := &core.ScheduleDocument{
		ScheduleID:  uuid.NewString(),
		Version:     prev + 1,
		ProjectInfo: p.Info,
		Items:       append([]core.ScheduleItem(nil), items...),
		CreatedDate: s.now().UTC(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_schedules (id, project_id, version, created_at) VALUES (?, ?, ?, ?)`,
		doc.ScheduleID, projectID, doc.Version, formatTime(doc.CreatedDate))
	if err != nil {
		return nil, fmt.Errorf("store: inserting schedule: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_items (id, schedule_id, process_name,
			planned_start_date, planned_end_date, actual_start_date, actual_end_date,
			assignee, status, remarks, order_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("store: preparing item insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range doc.Items {
		status := it.Status
		if !status.Valid() {
			status = core.StatusNotStarted
		}
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), doc.ScheduleID, it.ProcessName,
			dateValue(it.PlannedStart), dateValue(it.PlannedEnd),
			dateValue(it.ActualStart), dateValue(it.ActualEnd),
			nullString(it.Assignee), string(status), nullString(it.Remarks), it.OrderIndex)
		if err != nil {
			return nil, fmt.Errorf("store: inserting item %q: %w", it.ProcessName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return doc, nil
}

// LoadDocument returns the schedule with its project header and items, or
// core.ErrDocumentNotFound.
func (s *Store) LoadDocument(ctx context.Context, scheduleID string) (*core.ScheduleDocument, error) {
	var (
		doc               core.ScheduleDocument
		location, company sql.NullString
		created           string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT ps.id, ps.version, ps.created_at,
		       p.project_number, p.project_name, p.construction_location, p.construction_company
		FROM project_schedules ps
		JOIN projects p ON p.id = ps.project_id
		WHERE ps.id = ?`, scheduleID).Scan(
		&doc.ScheduleID, &doc.Version, &created,
		&doc.ProjectInfo.ProjectNumber, &doc.ProjectInfo.ProjectName, &location, &company)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading schedule %s: %w", scheduleID, err)
	}
	doc.ProjectInfo.ConstructionLocation = location.String
	doc.ProjectInfo.ConstructionCompany = company.String
	if doc.CreatedDate, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("store: schedule %s: %w", scheduleID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT process_name, planned_start_date, planned_end_date, actual_start_date, actual_end_date,
		       assignee, status, remarks, order_index
		FROM schedule_items
		WHERE schedule_id = ?
		ORDER BY order_index, rowid`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("store: loading items of %s: %w", scheduleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it                core.ScheduleItem
			ps, pe, as, ae    sql.NullString
			assignee, remarks sql.NullString
			status            string
			orderIndex        sql.NullInt64
		)
		if err := rows.Scan(&it.ProcessName, &ps, &pe, &as, &ae, &assignee, &status, &remarks, &orderIndex); err != nil {
			return nil, fmt.Errorf("store: scanning item: %w", err)
		}
		it.PlannedStart = parseDate(ps)
		it.PlannedEnd = parseDate(pe)
		it.ActualStart = parseDate(as)
		it.ActualEnd = parseDate(ae)
		it.Assignee = assignee.String
		it.Status = core.Status(status)
		it.Remarks = remarks.String
		it.OrderIndex = int(orderIndex.Int64)
		doc.Items = append(doc.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: reading items of %s: %w", scheduleID, err)
	}
	return &doc, nil
}

// LatestSchedule returns the project's highest schedule version with its
// items. It fails with core.ErrProjectNotFound for an unknown project and
// core.ErrDocumentNotFound when the project has no schedule yet.
func (s *Store) LatestSchedule(ctx context.Context, projectID string) (*core.ScheduleDocument, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM project_schedules WHERE project_id = ? ORDER BY version DESC LIMIT 1`, projectID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: finding latest schedule of %s: %w", projectID, err)
	}
	return s.LoadDocument(ctx, id)
}

// ListSchedules returns the project's schedule versions, newest first, or
// core.ErrProjectNotFound.
func (s *Store) ListSchedules(ctx context.Context, projectID string) ([]ScheduleSummary, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ps.id, ps.project_id, ps.version, ps.created_at, COUNT(si.id)
		FROM project_schedules ps
		LEFT JOIN schedule_items si ON si.schedule_id = ps.id
		WHERE ps.project_id = ?
		GROUP BY ps.id
		ORDER BY ps.version DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: listing schedules: %w", err)
	}
	defer rows.Close()

	var out []ScheduleSummary
	for rows.Next() {
		var (
			sum     ScheduleSummary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.ProjectID, &sum.Version, &created, &sum.ItemCount); err != nil {
			return nil, fmt.Errorf("store: scanning schedule: %w", err)
		}
		if sum.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dateValue(d *dates.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// parseDate reads a stored date. Values that do not parse are treated as
// missing, the same leniency extraction applies to cells.
func parseDate(v sql.NullString) *dates.Date {
	if !v.Valid {
		return nil
	}
	d, ok := dates.Parse(v.String)
	if !ok {
		return nil
	}
	return &d
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
