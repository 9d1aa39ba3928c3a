package auth

import (
	"errors"
	"sync"
)

// ErrUserExists is returned by Register for an already-registered username.
var ErrUserExists = errors.New("user already exists")

// CredentialStore is an in-memory username -> argon2id hash mapping. Safe for
// concurrent use. State is lost on restart; the service re-registers users
// through the admin API.
type CredentialStore struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		users: make(map[string]string),
	}
}

// Register hashes password and stores it under username.
func (s *CredentialStore) Register(username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = hash
	return nil
}

// Verify reports whether password matches the stored hash for username.
// Unknown usernames verify against a throwaway hash so the response time does
// not reveal which usernames exist.
func (s *CredentialStore) Verify(username, password string) bool {
	s.mu.RLock()
	hash, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		VerifyPassword(dummyHash, password)
		return false
	}

	match, err := VerifyPassword(hash, password)
	return err == nil && match
}

// Count returns the number of registered users.
func (s *CredentialStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// dummyHash is a fixed argon2id hash of a random string, used to equalize
// verification time for unknown usernames.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$vzCFl7jWCMk2ZcTxmZYeqmcBDdRGLWJUTUMbSeYYzeE"
