package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/homestage-ai/staging-client/internal/client"
)

const credentialsFile = "credentials.json"

// Credentials is the persisted login blob. Timestamp records when the
// token was stored, in unix milliseconds.
type Credentials struct {
	User      string `json:"user"`
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
}

// Store reads and writes the credential blob under the homestage home
// directory.
type Store struct {
	path string
}

func NewStore(homeDir string) *Store {
	return &Store{path: filepath.Join(homeDir, credentialsFile)}
}

func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &creds, nil
}

func (s *Store) Save(user, token string) error {
	creds := Credentials{
		User:      user,
		Token:     token,
		Timestamp: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), os.ModePerm); err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0600)
}

func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// TokenProvider adapts the store to the client's injected capability.
// A missing or unreadable blob means anonymous usage, not an error.
func (s *Store) TokenProvider() client.TokenProvider {
	return func() (string, bool) {
		creds, err := s.Load()
		if err != nil || creds == nil || creds.Token == "" {
			return "", false
		}

		return creds.Token, true
	}
}
