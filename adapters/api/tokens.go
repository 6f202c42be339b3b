package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"bhss/models"
)

// AuthKey is the storage key the session is persisted under
const AuthKey = "bhss_auth"

// Auth is the persisted login state
type Auth struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// TokenStore persists the login state between runs
type TokenStore interface {
	Load() (*Auth, error)
	Save(auth Auth) error
	Clear() error
}

// FileTokenStore keeps key/value pairs in one JSON file. Only AuthKey is
// touched, other keys in the file are preserved.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore creates a store backed by the file at path
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load returns the stored session, or nil when nobody is logged in
func (s *FileTokenStore) Load() (*Auth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := values[AuthKey]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var auth Auth
	if err := json.Unmarshal(raw, &auth); err != nil {
		return nil, err
	}
	if auth.Token == "" {
		return nil, nil
	}
	return &auth, nil
}

// Save stores auth under AuthKey
func (s *FileTokenStore) Save(auth Auth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(auth)
	if err != nil {
		return err
	}
	values[AuthKey] = raw
	return s.write(values)
}

// Clear removes the stored session
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	delete(values, AuthKey)
	return s.write(values)
}

func (s *FileTokenStore) read() (map[string]json.RawMessage, error) {
	values := map[string]json.RawMessage{}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *FileTokenStore) write(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

// MemoryTokenStore keeps the session in memory only
type MemoryTokenStore struct {
	mu   sync.Mutex
	auth *Auth
}

// Load returns the held session
func (s *MemoryTokenStore) Load() (*Auth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth == nil {
		return nil, nil
	}
	auth := *s.auth
	return &auth, nil
}

// Save replaces the held session
func (s *MemoryTokenStore) Save(auth Auth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = &auth
	return nil
}

// Clear drops the held session
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = nil
	return nil
}
