// Package storage persists local client state: configuration, the login
// session and a cache of the last loaded collection.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/nikbrunner/shelf/internal/session"
)

// SessionFile persists the login session as JSON.
type SessionFile struct {
	path string
}

// NewSessionFile creates a SessionFile at the given path.
func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// Path returns the session file path.
func (f *SessionFile) Path() string {
	return f.path
}

// Load reads the saved session.
// Returns nil without error if nobody is logged in.
func (f *SessionFile) Load() (*session.Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session, readable by the owner only.
// Creates the directory if it doesn't exist.
func (f *SessionFile) Save(sess *session.Session) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(f.path, data, 0600)
}

// Clear removes the saved session. Missing files are not an error.
func (f *SessionFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DefaultDir returns the default data directory: ~/.config/shelf
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "shelf"), nil
}

func defaultFile(name string) (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// DefaultSessionPath returns the default session path: ~/.config/shelf/session.json
func DefaultSessionPath() (string, error) {
	return defaultFile("session.json")
}

// DefaultSQLitePath returns the default cache path: ~/.config/shelf/cache.db
func DefaultSQLitePath() (string, error) {
	return defaultFile("cache.db")
}

// DefaultConfigFilePath returns the default config path: ~/.config/shelf/config.yaml
func DefaultConfigFilePath() (string, error) {
	return defaultFile("config.yaml")
}

// DefaultLogPath returns the default log path: ~/.config/shelf/shelf.log
func DefaultLogPath() (string, error) {
	return defaultFile("shelf.log")
}
