package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/okian/pitchlog/internal/domain/model"
	"github.com/okian/pitchlog/pkg/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	pgMaxOpenConns    = 10
	pgMaxIdleConns    = 5
	pgConnMaxLifetime = 30 * time.Minute

	pgUniqueViolation = "23505"
)

// PostgresStore persists matches and reports in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

// Migrate applies all pending schema migrations to the database at databaseURL.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return crerr.Wrapf(err, "open embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return crerr.Wrapf(err, "create migrator")
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return crerr.Wrapf(err, "apply migrations")
	}
	return nil
}

// NewPostgresStore connects to databaseURL and verifies the connection.
// Call Migrate first to create the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, crerr.Wrapf(err, "connect postgres")
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	s := &PostgresStore{db: db}
	if n, err := s.CountMatches(ctx); err == nil {
		metrics.UpdateStoredMatches(n)
	}
	return s, nil
}

func (s *PostgresStore) CreateMatch(ctx context.Context, m *model.Match) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrapf(err, "begin create match tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO matches (id, match_date, opponent, goals_for, goals_against, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Date, m.Opponent, m.GoalsFor, m.GoalsAgainst, m.Notes, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return crerr.Wrapf(err, "insert match id=%s", m.ID)
	}

	if len(m.GoalEvents) > 0 {
		rows := make([]goalEventTableModel, len(m.GoalEvents))
		for i := range m.GoalEvents {
			rows[i] = goalEventRow(m.ID, i, &m.GoalEvents[i])
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO goal_events (match_id, seq, side, minute, play_type, abp_subtype, x, y, x_end, y_end)
			 VALUES (:match_id, :seq, :side, :minute, :play_type, :abp_subtype, :x, :y, :x_end, :y_end)`,
			rows)
		if err != nil {
			return crerr.Wrapf(err, "insert goal events match_id=%s", m.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return crerr.Wrapf(err, "commit create match")
	}
	if n, err := s.CountMatches(ctx); err == nil {
		metrics.UpdateStoredMatches(n)
	}
	return nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (model.Match, error) {
	var row matchTableModel
	err := s.db.GetContext(ctx, &row, `SELECT * FROM matches WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) || isInvalidUUID(err) {
			return model.Match{}, ErrNotFound
		}
		return model.Match{}, crerr.Wrapf(err, "get match id=%s", id)
	}

	events, err := s.loadEvents(ctx, []string{id})
	if err != nil {
		return model.Match{}, err
	}
	return row.toDomain(events[id]), nil
}

func (s *PostgresStore) DeleteMatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return ErrNotFound
		}
		return crerr.Wrapf(err, "delete match id=%s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return crerr.Wrapf(err, "delete match rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	if c, err := s.CountMatches(ctx); err == nil {
		metrics.UpdateStoredMatches(c)
	}
	return nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, limit int) ([]model.Match, error) {
	query := `SELECT * FROM matches ORDER BY match_date DESC, created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []matchTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select matches")
	}
	if len(rows) == 0 {
		return []model.Match{}, nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	events, err := s.loadEvents(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.Match, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain(events[rows[i].ID])
	}
	return out, nil
}

func (s *PostgresStore) CountMatches(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM matches`); err != nil {
		return 0, crerr.Wrapf(err, "count matches")
	}
	return n, nil
}

// loadEvents returns the events of the given matches keyed by match id, in seq order.
func (s *PostgresStore) loadEvents(ctx context.Context, matchIDs []string) (map[string][]model.GoalEvent, error) {
	var rows []goalEventTableModel
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM goal_events WHERE match_id = ANY($1::uuid[]) ORDER BY match_id, seq`,
		pq.Array(matchIDs))
	if err != nil {
		return nil, crerr.Wrapf(err, "select goal events")
	}

	out := make(map[string][]model.GoalEvent, len(matchIDs))
	for i := range rows {
		out[rows[i].MatchID] = append(out[rows[i].MatchID], rows[i].toDomain())
	}
	return out, nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, r *model.Report) error {
	var summary sql.NullString
	if len(r.Summary) > 0 {
		summary = sql.NullString{String: string(r.Summary), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, num_matches, status, content, error, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		r.ID, r.NumMatches, string(r.Status), r.Content, r.Error, summary, r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return crerr.Wrapf(err, "insert report id=%s", r.ID)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (model.Report, error) {
	var row reportTableModel
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM reports WHERE id = $1`, id); err != nil {
		if isNotFound(err) || isInvalidUUID(err) {
			return model.Report{}, ErrNotFound
		}
		return model.Report{}, crerr.Wrapf(err, "get report id=%s", id)
	}
	return row.toDomain(), nil
}

func (s *PostgresStore) ListReports(ctx context.Context, limit int) ([]model.Report, error) {
	query := `SELECT * FROM reports ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []reportTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select reports")
	}
	out := make([]model.Report, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (s *PostgresStore) FinishReport(ctx context.Context, id string, status model.ReportStatus, content, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = $2, content = $3, error = $4, completed_at = NOW() WHERE id = $1`,
		id, string(status), content, errMsg)
	if err != nil {
		if isInvalidUUID(err) {
			return ErrNotFound
		}
		return crerr.Wrapf(err, "finish report id=%s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return crerr.Wrapf(err, "finish report rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// isInvalidUUID reports a malformed id, which can never match a row.
func isInvalidUUID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
