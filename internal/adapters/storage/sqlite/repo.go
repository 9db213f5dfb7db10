package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository keeps sessions and round results in a private in-memory database.
type Repository struct {
	db   *sql.DB
	name string
}

// OpenInMemory opens a uniquely named shared-cache in-memory database.
// Data lives until Close; nothing is written to disk.
func OpenInMemory() (*Repository, error) {
	name := "lobsim-" + uuid.NewString()
	db, err := sql.Open(driverName, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// The database disappears with its last connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	repo := &Repository{db: db, name: name}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Name returns the in-memory database name.
func (r *Repository) Name() string {
	return r.name
}

// Close releases the database and everything stored in it.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the session ledger tables.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			mode TEXT NOT NULL DEFAULT 'player',
			round INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS round_results (
			session_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			buffer INTEGER NOT NULL DEFAULT 0,
			rows_json TEXT NOT NULL DEFAULT '[]',
			end_day INTEGER NOT NULL DEFAULT 0,
			cost_json TEXT NOT NULL DEFAULT '{}',
			has_cost INTEGER NOT NULL DEFAULT 0,
			duration_ok INTEGER NOT NULL DEFAULT 0,
			cost_ok INTEGER NOT NULL DEFAULT 0,
			pass INTEGER NOT NULL DEFAULT 0,
			has_constraint INTEGER NOT NULL DEFAULT 0,
			correct INTEGER NOT NULL DEFAULT 0,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY(session_id, round),
			FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_round_results_session ON round_results(session_id, round);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateSession creates session.
func (r *Repository) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions(id, player_name, mode, round, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.PlayerName, string(s.Mode), int(s.Round), ts(s.StartedAt), ts(s.UpdatedAt))
	return err
}

// UpdateSession updates the session round and timestamps.
func (r *Repository) UpdateSession(ctx context.Context, s domain.Session) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET player_name = ?, mode = ?, round = ?, updated_at = ?
		WHERE id = ?
	`, s.PlayerName, string(s.Mode), int(s.Round), ts(s.UpdatedAt), s.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetSession returns session.
func (r *Repository) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, player_name, mode, round, started_at, updated_at
		FROM sessions
		WHERE id = ?
	`, id)
	return scanSession(row)
}

// UpsertRoundResult stores a round result, replacing an earlier attempt at the same round.
func (r *Repository) UpsertRoundResult(ctx context.Context, result domain.RoundResult) error {
	rowsJSON, err := json.Marshal(result.Rows)
	if err != nil {
		return fmt.Errorf("encode round rows: %w", err)
	}
	costJSON, err := json.Marshal(result.Cost)
	if err != nil {
		return fmt.Errorf("encode round cost: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO round_results(
			session_id, round, buffer, rows_json, end_day, cost_json, has_cost,
			duration_ok, cost_ok, pass, has_constraint, correct, recorded_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, round) DO UPDATE SET
			buffer = excluded.buffer,
			rows_json = excluded.rows_json,
			end_day = excluded.end_day,
			cost_json = excluded.cost_json,
			has_cost = excluded.has_cost,
			duration_ok = excluded.duration_ok,
			cost_ok = excluded.cost_ok,
			pass = excluded.pass,
			has_constraint = excluded.has_constraint,
			correct = excluded.correct,
			recorded_at = excluded.recorded_at
	`,
		result.SessionID,
		int(result.Round),
		result.Buffer,
		string(rowsJSON),
		result.End,
		string(costJSON),
		boolInt(result.HasCost),
		boolInt(result.Constraint.DurationOK),
		boolInt(result.Constraint.CostOK),
		boolInt(result.Constraint.Pass),
		boolInt(result.HasConstraint),
		boolInt(result.Correct),
		ts(result.RecordedAt),
	)
	if err != nil {
		if isForeignKeyErr(err) {
			return app.ErrNotFound
		}
		return err
	}
	return nil
}

// ListRoundResults lists a session's round results in round order.
func (r *Repository) ListRoundResults(ctx context.Context, sessionID string) ([]domain.RoundResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, round, buffer, rows_json, end_day, cost_json, has_cost,
			duration_ok, cost_ok, pass, has_constraint, correct, recorded_at
		FROM round_results
		WHERE session_id = ?
		ORDER BY round ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RoundResult{}
	for rows.Next() {
		result, err := scanRoundResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanSession decodes one sessions row.
func scanSession(s scanner) (domain.Session, error) {
	var (
		session    domain.Session
		modeRaw    string
		round      int
		startedRaw string
		updatedRaw string
	)
	if err := s.Scan(&session.ID, &session.PlayerName, &modeRaw, &round, &startedRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, app.ErrNotFound
		}
		return domain.Session{}, err
	}
	session.Mode = domain.NormalizeMode(domain.Mode(modeRaw))
	session.Round = domain.Round(round)
	session.StartedAt = parseTS(startedRaw)
	session.UpdatedAt = parseTS(updatedRaw)
	return session, nil
}

// scanRoundResult decodes one round_results row.
func scanRoundResult(s scanner) (domain.RoundResult, error) {
	var (
		result        domain.RoundResult
		round         int
		rowsRaw       string
		costRaw       string
		hasCost       int
		durationOK    int
		costOK        int
		pass          int
		hasConstraint int
		correct       int
		recordedRaw   string
	)
	if err := s.Scan(
		&result.SessionID,
		&round,
		&result.Buffer,
		&rowsRaw,
		&result.End,
		&costRaw,
		&hasCost,
		&durationOK,
		&costOK,
		&pass,
		&hasConstraint,
		&correct,
		&recordedRaw,
	); err != nil {
		return domain.RoundResult{}, err
	}
	if strings.TrimSpace(rowsRaw) == "" {
		rowsRaw = "[]"
	}
	if err := json.Unmarshal([]byte(rowsRaw), &result.Rows); err != nil {
		return domain.RoundResult{}, fmt.Errorf("decode round rows_json: %w", err)
	}
	if strings.TrimSpace(costRaw) == "" {
		costRaw = "{}"
	}
	if err := json.Unmarshal([]byte(costRaw), &result.Cost); err != nil {
		return domain.RoundResult{}, fmt.Errorf("decode round cost_json: %w", err)
	}
	result.Round = domain.Round(round)
	result.HasCost = hasCost != 0
	result.Constraint = domain.ConstraintResult{
		DurationOK: durationOK != 0,
		CostOK:     costOK != 0,
		Pass:       pass != 0,
	}
	result.HasConstraint = hasConstraint != 0
	result.Correct = correct != 0
	result.RecordedAt = parseTS(recordedRaw)
	return result, nil
}

// translateNoRows maps an update that touched nothing to app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts formats a timestamp for storage.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// boolInt stores a bool as an INTEGER column value.
func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// isForeignKeyErr reports whether err is a foreign key violation.
func isForeignKeyErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
