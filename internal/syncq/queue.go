// Package syncq journals commands issued while the API is unreachable so
// `tycoon sync` can replay them later.
package syncq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tycoon/internal/game"
)

type Entry struct {
	SessionID      string       `json:"session_id"`
	Command        game.Command `json:"command"`
	IdempotencyKey string       `json:"idempotency_key"`
	QueuedAt       time.Time    `json:"queued_at"`
}

func dir() (string, error) {
	base := strings.TrimSpace(os.Getenv("TYCOON_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".tycoon")
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", err
	}
	return base, nil
}

func queuePath() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "queue.json"), nil
}

func Load() ([]Entry, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Entry{}, nil
	}
	var out []Entry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(entries []Entry) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func Push(e Entry) error {
	entries, err := Load()
	if err != nil {
		return err
	}
	if e.QueuedAt.IsZero() {
		e.QueuedAt = time.Now().UTC()
	}
	entries = append(entries, e)
	return Save(entries)
}

// ForSession splits entries into those for sessionID and the rest, keeping order.
func ForSession(entries []Entry, sessionID string) (mine, rest []Entry) {
	for _, e := range entries {
		if e.SessionID == sessionID {
			mine = append(mine, e)
		} else {
			rest = append(rest, e)
		}
	}
	return mine, rest
}
