package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNoSession = errors.New("no active game, run `tycoon new` first")

// Session remembers which game the CLI is playing.
type Session struct {
	SessionID  string    `json:"session_id"`
	APIBaseURL string    `json:"api_base_url"`
	StartedAt  time.Time `json:"started_at"`
}

// BaseURL is the server the game was started on, or fallback for files
// written before the URL was recorded.
func (s Session) BaseURL(fallback string) string {
	if u := strings.TrimRight(strings.TrimSpace(s.APIBaseURL), "/"); u != "" {
		return u
	}
	return fallback
}

func baseDir() (string, error) {
	dir := strings.TrimSpace(os.Getenv("TYCOON_HOME"))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".tycoon")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func sessionPath() (string, error) {
	dir, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

func LoadSession() (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	body, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Session{}, ErrNoSession
	case err != nil:
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return Session{}, fmt.Errorf("%w: %s has no session id", ErrNoSession, path)
	}
	return s, nil
}

func ClearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
