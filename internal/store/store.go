// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/paperlist/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a task id does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for list data.
type Store struct {
	db *sql.DB
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer keeps read-modify-write sequences from interleaving.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS app_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			status TEXT NOT NULL DEFAULT 'planning',
			start_time TEXT,
			end_time TEXT,
			tier INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL,
			paper_color TEXT NOT NULL,
			background_color TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY,
			content TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trophy_counts (
			tier INTEGER PRIMARY KEY CHECK (tier BETWEEN 1 AND 8),
			count INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS finishes (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			tier INTEGER NOT NULL,
			tasks_done INTEGER NOT NULL,
			tasks_total INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_sort_order ON tasks(sort_order);`,
		`CREATE INDEX IF NOT EXISTS idx_finishes_ended_at ON finishes(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Tx is a store bound to a single transaction.
type Tx struct {
	q querier
}

// WithinTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := sqlTx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(&Tx{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) direct() *Tx {
	return &Tx{q: s.db}
}

// GetSession returns the singleton list state, creating it with defaults if absent.
func (s *Store) GetSession(ctx context.Context) (model.Session, error) {
	return s.direct().GetSession(ctx)
}

// SaveSession upserts the singleton list state.
func (s *Store) SaveSession(ctx context.Context, session model.Session) error {
	return s.direct().SaveSession(ctx, session)
}

// ListTasks returns all tasks in display order.
func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.direct().ListTasks(ctx)
}

// CreateTask appends a task after the current last one.
func (s *Store) CreateTask(ctx context.Context, content string) (model.Task, error) {
	return s.direct().CreateTask(ctx, content)
}

// GetTask returns a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (model.Task, error) {
	return s.direct().GetTask(ctx, id)
}

// UpdateTask stores content and completion for an existing task.
func (s *Store) UpdateTask(ctx context.Context, task model.Task) error {
	return s.direct().UpdateTask(ctx, task)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.direct().DeleteTask(ctx, id)
}

// ReorderTasks assigns order by position in ids inside one transaction.
func (s *Store) ReorderTasks(ctx context.Context, ids []int64) error {
	return s.WithinTx(ctx, func(tx *Tx) error {
		return tx.ReorderTasks(ctx, ids)
	})
}

// GetTrophyCounts returns the tier histogram.
func (s *Store) GetTrophyCounts(ctx context.Context) (model.TrophyCounts, error) {
	return s.direct().GetTrophyCounts(ctx)
}

// IncrementTrophy adds one to the counter of a tier.
func (s *Store) IncrementTrophy(ctx context.Context, tier int) error {
	return s.direct().IncrementTrophy(ctx, tier)
}

// ListFinishes returns recorded finishes, newest first.
func (s *Store) ListFinishes(ctx context.Context, cfg model.HistoryConfig) ([]model.Finish, error) {
	return s.direct().ListFinishes(ctx, cfg)
}

// GetSession returns the singleton list state, creating it with defaults if absent.
func (t *Tx) GetSession(ctx context.Context) (model.Session, error) {
	def := model.DefaultSession()
	if _, err := t.q.ExecContext(ctx,
		`INSERT INTO app_state (id, status, title, paper_color, background_color)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		string(def.Status), def.Title, def.PaperColor, def.BackgroundColor,
	); err != nil {
		return model.Session{}, err
	}

	var (
		session   model.Session
		status    string
		startTime sql.NullString
		endTime   sql.NullString
	)
	err := t.q.QueryRowContext(ctx,
		`SELECT status, start_time, end_time, tier, title, paper_color, background_color
		 FROM app_state WHERE id = 1`,
	).Scan(&status, &startTime, &endTime, &session.Tier, &session.Title, &session.PaperColor, &session.BackgroundColor)
	if err != nil {
		return model.Session{}, err
	}
	if session.Status, err = model.ParseStatus(status); err != nil {
		return model.Session{}, err
	}
	if session.StartTime, err = parseNullTime(startTime); err != nil {
		return model.Session{}, err
	}
	if session.EndTime, err = parseNullTime(endTime); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// SaveSession upserts the singleton list state.
func (t *Tx) SaveSession(ctx context.Context, session model.Session) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO app_state (id, status, start_time, end_time, tier, title, paper_color, background_color)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			tier = excluded.tier,
			title = excluded.title,
			paper_color = excluded.paper_color,
			background_color = excluded.background_color`,
		string(session.Status),
		formatNullTime(session.StartTime),
		formatNullTime(session.EndTime),
		session.Tier,
		session.Title,
		session.PaperColor,
		session.BackgroundColor,
	)
	return err
}

// ListTasks returns all tasks in display order.
func (t *Tx) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT id, content, completed, sort_order FROM tasks ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var tasks []model.Task
	for rows.Next() {
		var task model.Task
		if err := rows.Scan(&task.ID, &task.Content, &task.Completed, &task.Order); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountTasks returns the total and completed task counts.
func (t *Tx) CountTasks(ctx context.Context) (total, completed int, err error) {
	err = t.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM tasks`,
	).Scan(&total, &completed)
	return total, completed, err
}

// CreateTask appends a task after the current last one.
func (t *Tx) CreateTask(ctx context.Context, content string) (model.Task, error) {
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO tasks (content, completed, sort_order)
		 VALUES (?, 0, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM tasks))`,
		content,
	)
	if err != nil {
		return model.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Task{}, err
	}
	return t.GetTask(ctx, id)
}

// GetTask returns a task by id.
func (t *Tx) GetTask(ctx context.Context, id int64) (model.Task, error) {
	var task model.Task
	err := t.q.QueryRowContext(ctx,
		`SELECT id, content, completed, sort_order FROM tasks WHERE id = ?`, id,
	).Scan(&task.ID, &task.Content, &task.Completed, &task.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTask stores content and completion for an existing task.
func (t *Tx) UpdateTask(ctx context.Context, task model.Task) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE tasks SET content = ?, completed = ? WHERE id = ?`,
		task.Content, task.Completed, task.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res, task.ID)
}

// DeleteTask removes a task.
func (t *Tx) DeleteTask(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

// DeleteTasks removes completed tasks, or every task when all is set.
func (t *Tx) DeleteTasks(ctx context.Context, all bool) (int64, error) {
	query := `DELETE FROM tasks WHERE completed = 1`
	if all {
		query = `DELETE FROM tasks`
	}
	res, err := t.q.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReorderTasks assigns order by position in ids.
func (t *Tx) ReorderTasks(ctx context.Context, ids []int64) error {
	for i, id := range ids {
		res, err := t.q.ExecContext(ctx, `UPDATE tasks SET sort_order = ? WHERE id = ?`, i, id)
		if err != nil {
			return err
		}
		if err := expectRow(res, id); err != nil {
			return err
		}
	}
	return nil
}

// GetTrophyCounts returns the tier histogram.
func (t *Tx) GetTrophyCounts(ctx context.Context) (model.TrophyCounts, error) {
	var counts model.TrophyCounts
	rows, err := t.q.QueryContext(ctx, `SELECT tier, count FROM trophy_counts`)
	if err != nil {
		return counts, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var tier, count int
		if err := rows.Scan(&tier, &count); err != nil {
			return counts, err
		}
		if tier >= 1 && tier <= model.TierCount {
			counts[tier-1] = count
		}
	}
	if err := rows.Err(); err != nil {
		return counts, err
	}
	return counts, nil
}

// IncrementTrophy adds one to the counter of a tier.
func (t *Tx) IncrementTrophy(ctx context.Context, tier int) error {
	if tier < 1 || tier > model.TierCount {
		return fmt.Errorf("tier %d out of range", tier)
	}
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO trophy_counts (tier, count) VALUES (?, 1)
		 ON CONFLICT(tier) DO UPDATE SET count = count + 1`,
		tier,
	)
	return err
}

// InsertFinish appends a finish record.
func (t *Tx) InsertFinish(ctx context.Context, finish model.Finish) (int64, error) {
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO finishes (started_at, ended_at, tier, tasks_done, tasks_total)
		 VALUES (?, ?, ?, ?, ?)`,
		formatSortable(finish.StartedAt),
		formatSortable(finish.EndedAt),
		finish.Tier,
		finish.TasksDone,
		finish.TasksTotal,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListFinishes returns recorded finishes, newest first.
func (t *Tx) ListFinishes(ctx context.Context, cfg model.HistoryConfig) ([]model.Finish, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatSortable(*cfg.Since))
	}
	limit := ""
	if cfg.Last > 0 {
		limit = "LIMIT ?"
		args = append(args, cfg.Last)
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, tier, tasks_done, tasks_total
		FROM finishes
		WHERE %s
		ORDER BY ended_at DESC, id DESC
		%s`, strings.Join(clauses, " AND "), limit)
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var finishes []model.Finish
	for rows.Next() {
		var f model.Finish
		var startedAt, endedAt string
		if err := rows.Scan(&f.ID, &startedAt, &endedAt, &f.Tier, &f.TasksDone, &f.TasksTotal); err != nil {
			return nil, err
		}
		if f.StartedAt, err = parseLocal(startedAt); err != nil {
			return nil, err
		}
		if f.EndedAt, err = parseLocal(endedAt); err != nil {
			return nil, err
		}
		finishes = append(finishes, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return finishes, nil
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// sortableLayout keeps a fixed width so finish timestamps order correctly as text.
const sortableLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatSortable(t time.Time) string {
	return t.UTC().Format(sortableLayout)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseLocal(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.Local(), nil
}
