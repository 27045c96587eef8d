// Package ledger is the append-only capital ledger: every position's
// OPEN/PARTIAL_CLOSE/CLOSE/ASSIGNMENT event, plus a pure, deterministic
// monthly aggregation over that log, behind a repository interface.
// JSONLRepo (jsonl.go) is the canonical store, a capital_ledger.jsonl file
// that is never rewritten, only appended to. SQLRepo is an optional mirror
// over any sqlx.DB — Postgres via lib/pq, or the embedded single-file
// store via modernc.org/sqlite — for ad-hoc SQL querying; MirrorRepo
// fans writes out to both.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/optionwheel/engine/internal/model"
)

// Repo is the storage-agnostic interface both the sqlite and Postgres
// implementations satisfy.
type Repo interface {
	Append(ctx context.Context, entry model.CapitalLedgerEntry) error
	ListBySymbol(ctx context.Context, symbol string) ([]model.CapitalLedgerEntry, error)
	ListAll(ctx context.Context) ([]model.CapitalLedgerEntry, error)
}

// SQLRepo implements Repo over any sqlx.DB — Postgres via lib/pq, or the
// embedded single-file store via modernc.org/sqlite. The query text is
// ANSI-SQL and the same driver-agnostic schema works for both.
type SQLRepo struct {
	db *sqlx.DB
}

func NewSQLRepo(db *sqlx.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS capital_ledger (
	id TEXT PRIMARY KEY,
	position_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	event TEXT NOT NULL,
	amount REAL NOT NULL,
	quantity INTEGER NOT NULL,
	at TIMESTAMP NOT NULL
)`

// Migrate creates the ledger table if it doesn't exist yet.
func (r *SQLRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("ledger: migrate: %w", err)
	}
	return nil
}

func (r *SQLRepo) Append(ctx context.Context, entry model.CapitalLedgerEntry) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO capital_ledger (id, position_id, symbol, event, amount, quantity, at)
		VALUES (:id, :position_id, :symbol, :event, :amount, :quantity, :at)`,
		map[string]any{
			"id":          entry.ID,
			"position_id": entry.PositionID,
			"symbol":      entry.Symbol,
			"event":       string(entry.Event),
			"amount":      entry.Amount,
			"quantity":    entry.Quantity,
			"at":          entry.At,
		})
	if err != nil {
		return fmt.Errorf("ledger: append %s: %w", entry.ID, err)
	}
	return nil
}

func (r *SQLRepo) ListBySymbol(ctx context.Context, symbol string) ([]model.CapitalLedgerEntry, error) {
	var rows []ledgerRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, position_id, symbol, event, amount, quantity, at FROM capital_ledger WHERE symbol = $1 ORDER BY at`,
		symbol)
	if err != nil {
		return nil, fmt.Errorf("ledger: list %s: %w", symbol, err)
	}
	return toEntries(rows), nil
}

func (r *SQLRepo) ListAll(ctx context.Context) ([]model.CapitalLedgerEntry, error) {
	var rows []ledgerRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, position_id, symbol, event, amount, quantity, at FROM capital_ledger ORDER BY at`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list all: %w", err)
	}
	return toEntries(rows), nil
}

type ledgerRow struct {
	ID         string    `db:"id"`
	PositionID string    `db:"position_id"`
	Symbol     string    `db:"symbol"`
	Event      string    `db:"event"`
	Amount     float64   `db:"amount"`
	Quantity   int       `db:"quantity"`
	At         time.Time `db:"at"`
}

func toEntries(rows []ledgerRow) []model.CapitalLedgerEntry {
	out := make([]model.CapitalLedgerEntry, len(rows))
	for i, r := range rows {
		out[i] = model.CapitalLedgerEntry{
			ID:         r.ID,
			PositionID: r.PositionID,
			Symbol:     r.Symbol,
			Event:      model.LedgerEventType(r.Event),
			Amount:     r.Amount,
			Quantity:   r.Quantity,
			At:         r.At,
		}
	}
	return out
}

// MonthlySummary is the deterministic aggregation of a month's ledger
// entries: a pure function of the entries given to it, never a function
// of wall-clock time.
type MonthlySummary struct {
	Month        string // "2026-01"
	Realized      float64
	OpenCount     int
	CloseCount    int
	AssignmentCount int
}

// Aggregate groups entries by calendar month (UTC) and sums realized P&L.
// OPEN/ASSIGNMENT entries contribute zero realized P&L; CLOSE and
// PARTIAL_CLOSE contribute their Amount.
func Aggregate(entries []model.CapitalLedgerEntry) []MonthlySummary {
	byMonth := map[string]*MonthlySummary{}
	var order []string

	for _, e := range entries {
		key := e.At.UTC().Format("2006-01")
		s, ok := byMonth[key]
		if !ok {
			s = &MonthlySummary{Month: key}
			byMonth[key] = s
			order = append(order, key)
		}
		switch e.Event {
		case model.LedgerClose, model.LedgerPartialClose:
			s.Realized += e.Amount
			s.CloseCount++
		case model.LedgerOpen:
			s.OpenCount++
		case model.LedgerAssignment:
			s.AssignmentCount++
		}
	}

	sort.Strings(order)
	out := make([]MonthlySummary, 0, len(order))
	for _, k := range order {
		out = append(out, *byMonth[k])
	}
	return out
}
