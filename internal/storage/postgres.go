package storage

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

//go:embed sql/*.sql
var migrationFS embed.FS

func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrations lists the embedded migration files in the order they are applied.
func Migrations() ([]string, error) {
	entries, err := migrationFS.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies every embedded migration. The statements are idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := Migrations()
	if err != nil {
		return err
	}

	for _, name := range names {
		body, err := migrationFS.ReadFile("sql/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}

	return nil
}

// PostgresStore keeps whole reports as JSONB next to a few indexed columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects, migrates and returns a ready store.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewPostgresStore(pool), nil
}

func (p *PostgresStore) Name() string { return "postgres" }

func (p *PostgresStore) Pool() *pgxpool.Pool { return p.pool }

func (p *PostgresStore) Close(context.Context) error {
	p.pool.Close()
	return nil
}

func (p *PostgresStore) SaveReport(ctx context.Context, r contracts.RiskReport) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
        INSERT INTO reports (id, session_id, report_type, title, created_at, body)
        VALUES ($1, $2, $3, $4, $5, $6::jsonb)
        ON CONFLICT (id) DO UPDATE
        SET session_id = EXCLUDED.session_id,
            report_type = EXCLUDED.report_type,
            title = EXCLUDED.title,
            created_at = EXCLUDED.created_at,
            body = EXCLUDED.body
    `, r.ReportID, r.SessionID, string(r.ReportType), r.Title, r.CreatedAt, string(body))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetReport(ctx context.Context, id string) (contracts.RiskReport, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT body FROM reports WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.RiskReport{}, ErrNotFound
		}
		return contracts.RiskReport{}, fmt.Errorf("query report: %w", err)
	}

	var r contracts.RiskReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return contracts.RiskReport{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

func (p *PostgresStore) ListReports(ctx context.Context) ([]contracts.RiskReport, error) {
	return p.queryReports(ctx, `SELECT body FROM reports ORDER BY created_at DESC`)
}

func (p *PostgresStore) ListSessionReports(ctx context.Context, sessionID string) ([]contracts.RiskReport, error) {
	return p.queryReports(ctx, `SELECT body FROM reports WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
}

func (p *PostgresStore) CountSessionReports(ctx context.Context, sessionID string) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE session_id = $1`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count session reports: %w", err)
	}
	return n, nil
}

func (p *PostgresStore) queryReports(ctx context.Context, sql string, args ...any) ([]contracts.RiskReport, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]contracts.RiskReport, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var r contracts.RiskReport
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func (p *PostgresStore) CreateSession(ctx context.Context, s contracts.Session) error {
	_, err := p.pool.Exec(ctx, `
        INSERT INTO sessions (id, name, description, created_at, updated_at, is_active, last_activity)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name,
            description = EXCLUDED.description,
            updated_at = EXCLUDED.updated_at,
            is_active = EXCLUDED.is_active,
            last_activity = EXCLUDED.last_activity
    `, s.SessionID, s.Name, s.Description, s.CreatedAt, s.UpdatedAt, s.IsActive, s.LastActivity)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const sessionColumns = `id, name, description, created_at, updated_at, is_active, last_activity`

func scanSession(row pgx.Row) (contracts.Session, error) {
	var s contracts.Session
	err := row.Scan(&s.SessionID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt, &s.IsActive, &s.LastActivity)
	return s, err
}

func (p *PostgresStore) GetSession(ctx context.Context, id string) (contracts.Session, error) {
	s, err := scanSession(p.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.Session{}, ErrNotFound
		}
		return contracts.Session{}, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}

func (p *PostgresStore) ListSessions(ctx context.Context) ([]contracts.Session, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]contracts.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (p *PostgresStore) UpdateSession(ctx context.Context, s contracts.Session) error {
	cmd, err := p.pool.Exec(ctx, `
        UPDATE sessions
        SET name = $2,
            description = $3,
            updated_at = $4,
            is_active = $5,
            last_activity = $6
        WHERE id = $1
    `, s.SessionID, s.Name, s.Description, s.UpdatedAt, s.IsActive, s.LastActivity)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	cmd, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) AppendMessages(ctx context.Context, sessionID string, msgs ...contracts.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range msgs {
		batch.Queue(`
            INSERT INTO chat_messages (session_id, role, content, msg_type, report_id, sent_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, sessionID, m.Role, m.Content, m.Type, m.ReportID, m.Timestamp)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chat messages: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListMessages(ctx context.Context, sessionID string) ([]contracts.ChatMessage, error) {
	rows, err := p.pool.Query(ctx, `
        SELECT role, content, msg_type, report_id, sent_at
        FROM chat_messages
        WHERE session_id = $1
        ORDER BY id ASC
    `, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]contracts.ChatMessage, 0)
	for rows.Next() {
		var m contracts.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.Type, &m.ReportID, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return msgs, nil
}
