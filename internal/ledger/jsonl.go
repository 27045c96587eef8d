package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/optionwheel/engine/internal/model"
)

// JSONLRepo is the append-only capital_ledger.jsonl file: one JSON object
// per line, never rewritten or reordered, fsynced on every append. This is
// the canonical ledger store; Postgres/sqlite behind SQLRepo are optional
// mirrors layered on top via MirrorRepo.
type JSONLRepo struct {
	path string
	mu   sync.Mutex
}

func NewJSONLRepo(path string) *JSONLRepo {
	return &JSONLRepo{path: path}
}

func (r *JSONLRepo) Append(ctx context.Context, entry model.CapitalLedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("ledger: jsonl mkdir: %w", err)
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: jsonl open %s: %w", r.path, err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("ledger: jsonl encode %s: %w", entry.ID, err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("ledger: jsonl append %s: %w", entry.ID, err)
	}
	return f.Sync()
}

func (r *JSONLRepo) ListAll(ctx context.Context) ([]model.CapitalLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll()
}

func (r *JSONLRepo) ListBySymbol(ctx context.Context, symbol string) ([]model.CapitalLedgerEntry, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CapitalLedgerEntry, 0, len(all))
	for _, e := range all {
		if e.Symbol == symbol {
			out = append(out, e)
		}
	}
	return out, nil
}

// readAll scans the file top to bottom, preserving append order — the
// ledger's entries are read back in exactly the order they were recorded.
func (r *JSONLRepo) readAll() ([]model.CapitalLedgerEntry, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: jsonl read %s: %w", r.path, err)
	}
	defer f.Close()

	var out []model.CapitalLedgerEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.CapitalLedgerEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("ledger: jsonl decode line: %w", err)
		}
		out = append(out, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ledger: jsonl scan %s: %w", r.path, err)
	}
	return out, nil
}

// MirrorRepo writes every entry to Primary (the source of truth) and,
// best-effort, to Secondary for ad-hoc SQL querying. A Secondary write
// failure is logged by the caller via the returned error on Append but
// never rolls back the Primary write — the JSONL file is what ledger
// correctness depends on.
type MirrorRepo struct {
	Primary   Repo
	Secondary Repo
}

func NewMirrorRepo(primary, secondary Repo) *MirrorRepo {
	return &MirrorRepo{Primary: primary, Secondary: secondary}
}

func (r *MirrorRepo) Append(ctx context.Context, entry model.CapitalLedgerEntry) error {
	if err := r.Primary.Append(ctx, entry); err != nil {
		return err
	}
	if r.Secondary == nil {
		return nil
	}
	if err := r.Secondary.Append(ctx, entry); err != nil {
		return fmt.Errorf("ledger: mirror append %s: %w", entry.ID, err)
	}
	return nil
}

func (r *MirrorRepo) ListAll(ctx context.Context) ([]model.CapitalLedgerEntry, error) {
	return r.Primary.ListAll(ctx)
}

func (r *MirrorRepo) ListBySymbol(ctx context.Context, symbol string) ([]model.CapitalLedgerEntry, error) {
	return r.Primary.ListBySymbol(ctx, symbol)
}
