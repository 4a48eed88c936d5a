package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// credentialKey is the fixed name under which the single credential entry is
// stored, mirroring the key the web client used in browser-local storage.
const credentialKey = "consultlaw.token"

// Store persists at most one credential string in a JSON file. It is the
// client-local equivalent of browser localStorage: one string entry under a
// fixed key, nothing else.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a store at the given path. An empty path selects
// <user config dir>/consultlaw/credentials.json.
func New(path string) (*Store, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user config dir: %w", err)
		}
		path = filepath.Join(configDir, "consultlaw", "credentials.json")
	}
	return &Store{path: path}, nil
}

// Load reads the stored credential. The second return is false when no
// credential is present.
func (s *Store) Load() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return "", false, err
	}

	token, ok := entries[credentialKey]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save persists the credential, replacing any previous one.
func (s *Store) Save(token string) error {
	if token == "" {
		return errors.New("refusing to store empty credential")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(map[string]string{credentialKey: token})
}

// Clear removes the stored credential. Clearing an absent credential is not
// an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt file is treated as logged out rather than bricking the client
		return map[string]string{}, nil
	}
	return entries, nil
}

func (s *Store) write(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential file: %w", err)
	}

	// Write-then-rename so a crash never leaves a half-written credential file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}
