// Package artifactstore writes and reads the decision artifact, the
// single durable output of one evaluation run, using a temp-file write,
// fsync, atomic rename pattern with a single in-process writer lock.
package artifactstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/wheelerr"
)

// Store writes DecisionArtifacts to a directory, one JSON file per run,
// serialized behind a single mutex so concurrent callers never interleave
// writes to the same path.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory this store writes artifacts into.
func (s *Store) Dir() string {
	return s.dir
}

// Save atomically writes a decision artifact as "<run_id>.json" under the
// store's directory: write to a temp file, fsync, then rename over any
// existing file with that name.
func (s *Store) Save(artifact *model.DecisionArtifact) (string, error) {
	if artifact.Version == "" {
		artifact.Version = model.ArtifactVersion
	}
	if artifact.Version != model.ArtifactVersion {
		return "", fmt.Errorf("artifactstore: save %s: %w", artifact.RunID, wheelerr.ErrArtifactVersion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("artifactstore: mkdir %s: %w", s.dir, err)
	}

	finalPath := filepath.Join(s.dir, artifact.RunID+".json")
	tempPath := finalPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("artifactstore: create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tempPath)
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		return "", fmt.Errorf("artifactstore: encode %s: %w", artifact.RunID, err)
	}

	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("artifactstore: fsync %s: %w", artifact.RunID, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("artifactstore: close temp file: %w", err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("artifactstore: rename into place: %w", err)
	}

	return finalPath, nil
}

// Load reads back a previously saved artifact and rejects anything not at
// the current version rather than silently upgrading it.
func (s *Store) Load(runID string) (*model.DecisionArtifact, error) {
	path := filepath.Join(s.dir, runID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifactstore: read %s: %w", path, err)
	}

	var artifact model.DecisionArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("artifactstore: decode %s: %w", path, err)
	}
	if artifact.Version != model.ArtifactVersion {
		return nil, fmt.Errorf("artifactstore: load %s: got version %q: %w", runID, artifact.Version, wheelerr.ErrArtifactVersion)
	}

	return &artifact, nil
}

// Latest reads back the most recently saved artifact, by run ID
// (timestamp-prefixed, so lexicographic order is chronological order).
// Returns wheelerr.ErrArtifactVersion's sibling condition via a plain
// "no artifacts" error when the store directory holds nothing yet.
func (s *Store) Latest() (*model.DecisionArtifact, error) {
	s.mu.Lock()
	entries, err := os.ReadDir(s.dir)
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifactstore: no runs in %s", s.dir)
		}
		return nil, fmt.Errorf("artifactstore: list %s: %w", s.dir, err)
	}

	var latestName string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if e.Name() > latestName {
			latestName = e.Name()
		}
	}
	if latestName == "" {
		return nil, fmt.Errorf("artifactstore: no runs in %s", s.dir)
	}

	return s.Load(strings.TrimSuffix(latestName, ".json"))
}

// NewRunID mints a timestamp-prefixed identifier for a fresh run.
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102T150405Z")
}
