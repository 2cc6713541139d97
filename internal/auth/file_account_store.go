package auth

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// FileAccountStore persists accounts as one JSON file, for deployments that
// run without Mongo.
type FileAccountStore struct {
	mu     sync.Mutex
	path   string
	byName map[string]*Account
}

func NewFileAccountStore(path string) (*FileAccountStore, error) {
	s := &FileAccountStore{path: path, byName: map[string]*Account{}}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var list []*Account
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	for _, a := range list {
		s.byName[a.Name] = a
	}
	return s, nil
}

func (s *FileAccountStore) Find(ctx context.Context, name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byName[name]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, ErrAccountNotFound
}

func (s *FileAccountStore) Create(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[a.Name]; exists {
		return ErrAccountExists
	}
	clone := *a
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.byName[a.Name] = &clone
	return s.persist()
}

func (s *FileAccountStore) UpdatePassword(ctx context.Context, name, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[name]
	if !ok {
		return ErrAccountNotFound
	}
	a.PassHash = newHash
	return s.persist()
}

func (s *FileAccountStore) persist() error {
	list := make([]*Account, 0, len(s.byName))
	for _, a := range s.byName {
		list = append(list, a)
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
