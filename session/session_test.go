package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/repositories/memory"
	"go.uber.org/zap"
)

// failingStorage is a Storage whose writes always fail
type failingStorage struct {
	values map[string]string
	getErr error
}

func (f *failingStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *failingStorage) SetItem(context.Context, string, string) error {
	return errors.New("disk full")
}

func (f *failingStorage) RemoveItem(context.Context, string) error {
	return errors.New("disk full")
}

func newTestSession(t *testing.T) (*Session, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore(10, 0)
	s := New("sid-1", memory.NewDefaultAccountDirectory(), store.Scope("sid-1"), zap.NewNop())
	require.NoError(t, s.Restore(context.Background()))
	return s, store
}

func TestSession_StartsUnauthenticated(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Equal(t, "sid-1", s.ID())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Equal(t, models.RoleGuest, s.Role())
}

func TestSession_LoginUnknownEmail(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t)

	assert.False(t, s.Login(ctx, "nobody@jain.com"))
	assert.False(t, s.IsAuthenticated())

	_, found, err := store.Scope("sid-1").GetItem(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSession_LoginUnknownEmailKeepsExistingUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	require.True(t, s.Login(ctx, "faculty@jain.com"))
	assert.False(t, s.Login(ctx, "nobody@jain.com"))
	assert.Equal(t, models.RoleFaculty, s.Role())
}

func TestSession_LoginIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()

	for _, email := range []string{"student@jain.com", "STUDENT@jain.com", "  Student@Jain.COM "} {
		t.Run(email, func(t *testing.T) {
			s, _ := newTestSession(t)
			require.True(t, s.Login(ctx, email))
			assert.Equal(t, models.RoleStudent, s.Role())
			assert.Equal(t, "student@jain.com", s.User().Email)
		})
	}
}

func TestSession_LoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t)

	require.True(t, s.Login(ctx, "admin@jain.com"))

	raw, found, err := store.Scope("sid-1").GetItem(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, raw, `"role":"ADMIN"`)

	reloaded := New("sid-1", memory.NewDefaultAccountDirectory(), store.Scope("sid-1"), zap.NewNop())
	require.NoError(t, reloaded.Restore(ctx))
	require.True(t, reloaded.IsAuthenticated())
	assert.Equal(t, models.RoleAdmin, reloaded.Role())
	assert.Equal(t, "ADM001", reloaded.User().ID)
}

func TestSession_SecondLoginReplacesIdentity(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	require.True(t, s.Login(ctx, "admin@jain.com"))
	require.True(t, s.Login(ctx, "guest@jain.com"))
	assert.Equal(t, models.RoleGuest, s.Role())
	assert.True(t, s.IsAuthenticated())
}

func TestSession_Logout(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t)

	require.True(t, s.Login(ctx, "faculty@jain.com"))
	s.Logout(ctx)

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	_, found, err := store.Scope("sid-1").GetItem(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, found)

	// logging out twice is harmless
	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated())
}

func TestSession_UserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	require.True(t, s.Login(ctx, "student@jain.com"))
	u := s.User()
	u.Role = models.RoleAdmin
	assert.Equal(t, models.RoleStudent, s.Role())
}

func TestSession_RestoreDiscardsMalformedPayload(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":     "{oops",
		"unknown role": `{"id":"X","name":"X","email":"x@jain.com","role":"DEAN"}`,
		"missing email": `{"id":"X","name":"X","role":"ADMIN"}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			store := memory.NewSessionStore(10, 0)
			scope := store.Scope("sid-x")
			require.NoError(t, scope.SetItem(ctx, StorageKey, payload))

			s := New("sid-x", memory.NewDefaultAccountDirectory(), scope, zap.NewNop())
			require.NoError(t, s.Restore(ctx))
			assert.False(t, s.IsAuthenticated())

			_, found, err := scope.GetItem(ctx, StorageKey)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestSession_RestoreReturnsStorageError(t *testing.T) {
	storage := &failingStorage{getErr: errors.New("connection refused")}
	s := New("sid", memory.NewDefaultAccountDirectory(), storage, zap.NewNop())

	err := s.Restore(context.Background())
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

func TestSession_WriteFailuresDoNotChangeOutcome(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{values: map[string]string{}}
	s := New("sid", memory.NewDefaultAccountDirectory(), storage, zap.NewNop())

	assert.True(t, s.Login(ctx, "admin@jain.com"))
	assert.Equal(t, models.RoleAdmin, s.Role())

	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated())
}

func TestSession_EvictionDestroysSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore(1, 0)
	accounts := memory.NewDefaultAccountDirectory()

	first := New("a", accounts, store.Scope("a"), zap.NewNop())
	require.True(t, first.Login(ctx, "admin@jain.com"))

	second := New("b", accounts, store.Scope("b"), zap.NewNop())
	require.True(t, second.Login(ctx, "student@jain.com"))

	reopened := New("a", accounts, store.Scope("a"), zap.NewNop())
	require.NoError(t, reopened.Restore(ctx))
	assert.False(t, reopened.IsAuthenticated())
}
