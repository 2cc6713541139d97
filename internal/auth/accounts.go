package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrBadAccountName  = errors.New("account name must be 3-64 chars of [a-z0-9._-]")
)

var accountNameRe = regexp.MustCompile(`^[a-z0-9._-]{3,64}$`)

// Account is a server-side identity. PassHash is the argon2id login hash;
// the encrypted keyring and version data live in the storage package, keyed
// off the account name.
type Account struct {
	Name      string    `bson:"name" json:"name"`
	PassHash  string    `bson:"pass_hash" json:"pass_hash"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NormalizeAccountName lowercases and validates a name from a signup or
// login request.
func NormalizeAccountName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !accountNameRe.MatchString(name) {
		return "", ErrBadAccountName
	}
	return name, nil
}

type AccountStore interface {
	Find(ctx context.Context, name string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	UpdatePassword(ctx context.Context, name, newHash string) error
}

// MemoryAccountStore backs the file-store deployment mode and tests.
type MemoryAccountStore struct {
	mu     sync.RWMutex
	byName map[string]*Account
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{byName: map[string]*Account{}}
}

func (s *MemoryAccountStore) Find(ctx context.Context, name string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byName[name]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, ErrAccountNotFound
}

func (s *MemoryAccountStore) Create(ctx context.Context, a *Account) error {
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
	return nil
}

func (s *MemoryAccountStore) UpdatePassword(ctx context.Context, name, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[name]
	if !ok {
		return ErrAccountNotFound
	}
	a.PassHash = newHash
	return nil
}
