// Package alerts implements a deduplicated Slack webhook dispatcher for
// operator recommendations and freeze/drift BLOCK events, using an
// explicit-struct config idiom and a sha256-hash dedup state file. No
// trading logic lives here.
package alerts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
)

// EventType selects which configured webhook a message is routed to.
type EventType string

const (
	EventCritical EventType = "CRITICAL"
	EventSignal   EventType = "SIGNAL"
	EventHealth   EventType = "HEALTH"
	EventDaily    EventType = "DAILY"
)

// WebhookConfig holds the four optional webhook URLs. Any subset may be
// configured; dispatching to an unconfigured event type is a silent no-op
// logged at debug level, never a crash.
type WebhookConfig struct {
	Critical string
	Signal   string
	Health   string
	Daily    string
}

func (w WebhookConfig) urlFor(event EventType) string {
	switch event {
	case EventCritical:
		return w.Critical
	case EventSignal:
		return w.Signal
	case EventHealth:
		return w.Health
	case EventDaily:
		return w.Daily
	default:
		return ""
	}
}

// Configured reports whether at least one webhook is set.
func (w WebhookConfig) Configured() bool {
	return w.Critical != "" || w.Signal != "" || w.Health != "" || w.Daily != ""
}

// Dispatcher posts messages to Slack incoming webhooks, deduplicated by a
// content hash against a last-sent-state file so re-running the same
// evaluation doesn't re-alert.
type Dispatcher struct {
	webhooks  WebhookConfig
	statePath string
	http      *http.Client
	log       zerolog.Logger
}

func NewDispatcher(webhooks WebhookConfig, statePath string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		webhooks:  webhooks,
		statePath: statePath,
		http:      &http.Client{},
		log:       log,
	}
}

// Dispatch sends text to the webhook configured for event, unless an
// identical payload (by content hash) was the last thing sent under
// eventKey. Returns (sent, error); sent=false with a nil error means the
// message was deduplicated or no webhook is configured for event, not
// dropped due to a failure. A failed post is not recorded as sent, so an
// identical retry is not suppressed.
func (d *Dispatcher) Dispatch(ctx context.Context, event EventType, eventKey, text string, payload map[string]any) (bool, error) {
	url := d.webhooks.urlFor(event)
	if url == "" {
		d.log.Debug().Str("event", string(event)).Msg("alerts: webhook not configured, skipping")
		return false, nil
	}

	hash, err := stateHash(payload)
	if err != nil {
		return false, fmt.Errorf("alerts: hash payload: %w", err)
	}

	should, err := d.shouldSend(eventKey, hash)
	if err != nil {
		return false, fmt.Errorf("alerts: dedup state: %w", err)
	}
	if !should {
		return false, nil
	}

	if err := d.post(ctx, url, text); err != nil {
		if state, lerr := loadState(d.statePath); lerr == nil {
			delete(state, eventKey)
			_ = saveState(d.statePath, state)
		}
		return false, fmt.Errorf("alerts: post to %s webhook: %w", event, err)
	}
	return true, nil
}

func (d *Dispatcher) post(ctx context.Context, url, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// stateHash canonicalizes payload (sorted keys) and hashes it, so the
// same logical content always hashes identically regardless of map
// iteration order.
func stateHash(payload map[string]any) (string, error) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	canon := make(map[string]any, len(payload))
	for _, k := range keys {
		canon[k] = payload[k]
	}

	data, err := json.Marshal(canon)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// shouldSend compares newHash against the persisted hash for eventKey. A
// match suppresses the send; a mismatch updates the persisted state and
// allows it.
func (d *Dispatcher) shouldSend(eventKey, newHash string) (bool, error) {
	state, err := loadState(d.statePath)
	if err != nil {
		return false, err
	}

	if state[eventKey] == newHash {
		return false, nil
	}
	state[eventKey] = newHash
	return true, saveState(d.statePath, state)
}

func loadState(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var state map[string]string
	if err := json.Unmarshal(data, &state); err != nil {
		return map[string]string{}, nil // corrupt state file; start fresh rather than blocking alerts
	}
	return state, nil
}

func saveState(path string, state map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
