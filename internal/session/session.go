package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	sessionFile   = ".svp/session"
	sessionPrefix = "ses_"
)

// Session represents the current terminal session
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	StartedAt time.Time `json:"started_at"`
	IsNew     bool      `json:"-"`
}

// generateID creates a new random session ID
func generateID() (string, error) {
	bytes := make([]byte, 3) // 6 hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return sessionPrefix + hex.EncodeToString(bytes), nil
}

func parse(data []byte) (*Session, error) {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("invalid session file")
	}
	sess := &Session{ID: strings.TrimSpace(lines[0])}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(lines[1])); err == nil {
		sess.StartedAt = t
	}
	if len(lines) >= 3 {
		sess.Username = strings.TrimSpace(lines[2])
	}
	return sess, nil
}

// GetOrCreate returns the current session, creating one if necessary.
// The .svp directory must already exist.
func GetOrCreate(baseDir string) (*Session, error) {
	if _, err := os.Stat(filepath.Join(baseDir, filepath.Dir(sessionFile))); err != nil {
		return nil, fmt.Errorf("session not available: run 'svp init' first")
	}

	if data, err := os.ReadFile(filepath.Join(baseDir, sessionFile)); err == nil {
		if sess, err := parse(data); err == nil {
			return sess, nil
		}
	}
	return create(baseDir, "")
}

// Start replaces the current session with a fresh one for username
func Start(baseDir, username string) (*Session, error) {
	if _, err := os.Stat(filepath.Join(baseDir, filepath.Dir(sessionFile))); err != nil {
		return nil, fmt.Errorf("session not available: run 'svp init' first")
	}
	return create(baseDir, username)
}

func create(baseDir, username string) (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        id,
		Username:  username,
		StartedAt: time.Now().UTC().Truncate(time.Second),
		IsNew:     true,
	}
	if err := Save(baseDir, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save writes the session to disk
func Save(baseDir string, sess *Session) error {
	sessionPath := filepath.Join(baseDir, sessionFile)

	content := fmt.Sprintf("%s\n%s\n%s\n", sess.ID, sess.StartedAt.Format(time.RFC3339), sess.Username)
	if err := os.WriteFile(sessionPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	return nil
}

// Get returns the current session without creating one
func Get(baseDir string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, sessionFile))
	if err != nil {
		return nil, fmt.Errorf("session not found: run 'svp init' first")
	}
	return parse(data)
}

// End removes the session file. A missing file is not an error.
func End(baseDir string) error {
	err := os.Remove(filepath.Join(baseDir, sessionFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
