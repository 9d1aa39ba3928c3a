package auth

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStoreRegisterAndVerify(t *testing.T) {
	s := NewCredentialStore()

	require.NoError(t, s.Register("alice", "s3cret-password"))
	assert.Equal(t, 1, s.Count())

	assert.True(t, s.Verify("alice", "s3cret-password"))
	assert.False(t, s.Verify("alice", "wrong"))
	assert.False(t, s.Verify("unknown", "s3cret-password"))
}

func TestCredentialStoreDuplicateRegister(t *testing.T) {
	s := NewCredentialStore()

	require.NoError(t, s.Register("alice", "first"))
	err := s.Register("alice", "second")
	assert.ErrorIs(t, err, ErrUserExists)

	// The original password still verifies.
	assert.True(t, s.Verify("alice", "first"))
	assert.False(t, s.Verify("alice", "second"))
}

func TestCredentialStoreConcurrentAccess(t *testing.T) {
	s := NewCredentialStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n)
			s.Register(user, "password")
			s.Verify(user, "password")
			s.Count()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Count())
}
