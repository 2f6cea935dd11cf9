package attempts

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/park285/cheese-llm-move/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS move_attempts (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		fen_key TEXT NOT NULL,
		fen TEXT NOT NULL,
		rating TEXT NOT NULL DEFAULT '',
		retry BOOLEAN NOT NULL DEFAULT FALSE,
		completion TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		move TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		result_fen TEXT NOT NULL DEFAULT '',
		latency_ms BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_move_attempts_fen ON move_attempts(fen_key, created_at)`,
}

// Ledger is the durable attempt log on Postgres or SQLite.
type Ledger struct {
	db     *sql.DB
	driver string
}

// OpenLedger picks the driver from the URL: postgres:// and postgresql://
// use lib/pq, sqlite:// and file: use go-sqlite3.
func OpenLedger(ctx context.Context, databaseURL string) (*Ledger, error) {
	driver, dsn, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// one connection so :memory: databases are shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Ledger{db: db, driver: driver}, nil
}

func parseDatabaseURL(raw string) (driver, dsn string, err error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "", "", fmt.Errorf("DATABASE_URL is required")
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "postgres", raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return "sqlite3", strings.TrimPrefix(raw, "sqlite://"), nil
	case strings.HasPrefix(raw, "file:"), raw == ":memory:":
		return "sqlite3", raw, nil
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL scheme: %q", raw)
	}
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for Postgres.
func (l *Ledger) rebind(q string) string {
	if l.driver != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (l *Ledger) Record(ctx context.Context, a domain.Attempt) error {
	q := l.rebind(`INSERT INTO move_attempts (
		id, created_at, fen_key, fen, rating, retry, completion,
		outcome, move, reason, detail, result_fen, latency_ms
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	_, err := l.db.ExecContext(ctx, q,
		a.ID, a.CreatedAt.UTC(), PositionKey(a.FEN), a.FEN, a.Rating, a.Retry, a.Completion,
		a.Outcome, a.Move, a.Reason, a.Detail, a.ResultFEN, a.Latency.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (l *Ledger) Recent(ctx context.Context, fen string, limit int) ([]domain.Attempt, error) {
	q := l.rebind(`SELECT id, created_at, fen, rating, retry, completion,
		outcome, move, reason, detail, result_fen, latency_ms
		FROM move_attempts WHERE fen_key = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	rows, err := l.db.QueryContext(ctx, q, PositionKey(fen), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		var latencyMS int64
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.FEN, &a.Rating, &a.Retry, &a.Completion,
			&a.Outcome, &a.Move, &a.Reason, &a.Detail, &a.ResultFEN, &latencyMS); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Latency = time.Duration(latencyMS) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}
