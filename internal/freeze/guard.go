// Package freeze implements the freeze guard: a canonical, deterministic
// hash of the run's critical configuration fields, used to block LIVE runs
// whose configuration has drifted from the last approved snapshot. DRY_RUN
// is always allowed regardless of drift, since it can't place trades.
package freeze

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/wheelerr"
)

// Hash computes the canonical hash of the config fields named in
// cfg.Freeze.Fields. Canonical means: sorted keys, no insignificant
// whitespace — two configs with the same critical values always hash
// identically regardless of field order in the source YAML.
func Hash(cfg *config.Config) (string, error) {
	_, hash, err := criticalSnapshot(cfg)
	return hash, err
}

// criticalSnapshot flattens cfg, projects it down to cfg.Freeze.Fields, and
// returns both that snapshot (for diffing against a prior one) and its
// canonical hash.
func criticalSnapshot(cfg *config.Config) (map[string]any, string, error) {
	flat, err := flatten(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("freeze: flatten config: %w", err)
	}

	critical := make(map[string]any, len(cfg.Freeze.Fields))
	for _, path := range cfg.Freeze.Fields {
		critical[path] = flat[path]
	}

	keys := make([]string, 0, len(critical))
	for k := range critical {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	canon := make([]byte, 0, 256)
	canon = append(canon, '{')
	for i, k := range keys {
		if i > 0 {
			canon = append(canon, ',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(critical[k])
		if err != nil {
			return nil, "", fmt.Errorf("freeze: marshal field %q: %w", k, err)
		}
		canon = append(canon, kb...)
		canon = append(canon, ':')
		canon = append(canon, vb...)
	}
	canon = append(canon, '}')

	sum := sha256.Sum256(canon)
	return critical, hex.EncodeToString(sum[:]), nil
}

// flatten turns the config into a dotted-path -> value map keyed by the
// YAML field names (e.g. "eligibility.csp_rsi_min") by round tripping
// through YAML, which is cheap and avoids hand-writing reflection over
// every nested struct as the config grows. Nested maps are recorded under
// their own path too (e.g. "scoring.weights"), alongside their leaves.
func flatten(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}

	out := map[string]any{}
	flattenInto("", generic, out)
	return out, nil
}

func flattenInto(prefix string, v any, out map[string]any) {
	m, ok := v.(map[string]any)
	if !ok {
		out[prefix] = v
		return
	}
	if prefix != "" {
		out[prefix] = m
	}
	for k, child := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		flattenInto(path, child, out)
	}
}

// state is what gets persisted to the freeze snapshot file: the hash, the
// snapshot it was computed from (so a later mismatch can be diffed down to
// the specific fields that changed), and the run mode that approved it.
type state struct {
	ConfigHash     string         `json:"config_hash"`
	ConfigSnapshot map[string]any `json:"config_snapshot"`
	RunMode        string         `json:"run_mode"`
}

// Guard persists the last approved snapshot and checks new runs against it.
type Guard struct {
	snapshotPath string
}

func New(snapshotPath string) *Guard {
	return &Guard{snapshotPath: snapshotPath}
}

// Check compares cfg's hash against the persisted snapshot. DRY_RUN always
// passes and never records anything. LIVE passes only if the hash matches,
// or if no snapshot exists yet (first-run bootstrap writes the snapshot
// instead of blocking). On mismatch, the returned FreezeViolationError
// names only the top-level keys whose critical value actually changed.
func (g *Guard) Check(cfg *config.Config) error {
	if !cfg.Freeze.Enabled || cfg.Mode == "DRY_RUN" {
		return nil
	}

	critical, current, err := criticalSnapshot(cfg)
	if err != nil {
		return err
	}

	stored, err := g.load()
	if os.IsNotExist(err) {
		return g.save(state{ConfigHash: current, ConfigSnapshot: critical, RunMode: cfg.Mode})
	}
	if err != nil {
		return fmt.Errorf("freeze: read snapshot: %w", err)
	}

	if stored.ConfigHash != current {
		changed := changedTopLevelKeys(stored.ConfigSnapshot, critical)
		return fmt.Errorf("freeze: config hash %s != approved %s: %w: %w",
			current, stored.ConfigHash, wheelerr.ErrFreezeBlocked, &wheelerr.FreezeViolationError{ChangedFields: changed})
	}
	return nil
}

// Approve overwrites the persisted snapshot with cfg's current hash and
// critical field values, the operator's explicit sign-off after a reviewed
// config change.
func (g *Guard) Approve(cfg *config.Config) error {
	critical, current, err := criticalSnapshot(cfg)
	if err != nil {
		return err
	}
	return g.save(state{ConfigHash: current, ConfigSnapshot: critical, RunMode: cfg.Mode})
}

func (g *Guard) load() (state, error) {
	data, err := os.ReadFile(g.snapshotPath)
	if err != nil {
		return state{}, err
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return state{}, fmt.Errorf("freeze: decode snapshot: %w", err)
	}
	return s, nil
}

func (g *Guard) save(s state) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("freeze: encode snapshot: %w", err)
	}
	return os.WriteFile(g.snapshotPath, data, 0o644)
}

// changedTopLevelKeys diffs two dotted-path critical-field snapshots and
// returns the sorted, deduplicated set of top-level keys (the segment
// before the first '.') whose value actually differs. A field present in
// one snapshot and absent in the other counts as changed.
func changedTopLevelKeys(before, after map[string]any) []string {
	seen := map[string]bool{}
	for path := range before {
		if !valuesEqual(before[path], after[path]) {
			seen[topLevel(path)] = true
		}
	}
	for path := range after {
		if !valuesEqual(before[path], after[path]) {
			seen[topLevel(path)] = true
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func topLevel(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

func valuesEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}
