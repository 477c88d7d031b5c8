package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*MemoryStore
	failOn string
}

func (f *failingStore) Set(key, value string) error {
	if key == f.failOn {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Set(key, value)
}

func parent() SessionUser {
	return SessionUser{Token: "tok-1", Email: "alex@example.com", FullName: "Alex Parent", Role: RoleParent, UserID: 7}
}

func TestRestoreEmptyStore(t *testing.T) {
	g := Restore(NewMemoryStore())
	assert.False(t, g.IsAuthenticated())
	assert.Nil(t, g.Current())
	assert.Equal(t, RoleNone, g.Role())
	assert.Equal(t, "/login", g.DefaultRoute())
}

func TestLoginRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	u := parent()

	g := Restore(store)
	require.NoError(t, g.Login(u))
	assert.True(t, g.IsAuthenticated())

	tok, ok := store.Get(TokenKey)
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok)

	restored := Restore(store)
	require.NotNil(t, restored.Current())
	assert.Equal(t, u, *restored.Current())
}

func TestLoginOverwritesExistingSession(t *testing.T) {
	store := NewMemoryStore()
	g := Restore(store)
	require.NoError(t, g.Login(parent()))

	clinician := SessionUser{Token: "tok-2", Email: "dr@example.com", FullName: "Dr Lee", Role: RoleClinician}
	require.NoError(t, g.Login(clinician))

	assert.Equal(t, clinician, *Restore(store).Current())
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	g := Restore(store)
	require.NoError(t, g.Login(parent()))

	g.Logout()
	assert.False(t, g.IsAuthenticated())
	assert.Equal(t, 0, store.Len())

	g.Logout()
	assert.False(t, g.IsAuthenticated())
	assert.Equal(t, 0, store.Len())
	assert.False(t, Restore(store).IsAuthenticated())
}

func TestCorruptedSessionIsTreatedAsSignedOut(t *testing.T) {
	for name, raw := range map[string]string{
		"bad json":     "{not json",
		"unknown role": `{"token":"t","email":"e","fullName":"n","role":"Clinician"}`,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Set(UserKey, raw))
			assert.False(t, Restore(store).IsAuthenticated())
		})
	}
}

func TestLoginStorageFailureLeavesGateSignedOut(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failOn: UserKey}
	g := Restore(store)

	err := g.Login(parent())
	require.Error(t, err)
	assert.False(t, g.IsAuthenticated())
	_, ok := store.Get(TokenKey)
	assert.False(t, ok)
}

func TestLoginRejectsInvalidRole(t *testing.T) {
	store := NewMemoryStore()
	g := Restore(store)
	require.NoError(t, g.Login(parent()))

	for _, role := range []Role{RoleNone, Role("superuser")} {
		u := parent()
		u.Token = "tok-2"
		u.Role = role
		err := g.Login(u)
		require.ErrorIs(t, err, ErrInvalidRole)

		assert.Equal(t, RoleParent, g.Role())
		tok, _ := store.Get(TokenKey)
		assert.Equal(t, "tok-1", tok)
	}
}

func TestDefaultRouteFor(t *testing.T) {
	tests := []struct {
		name    string
		session *SessionUser
		want    string
	}{
		{"nil", nil, "/login"},
		{"parent", &SessionUser{Role: RoleParent}, "/parent/dashboard"},
		{"clinician", &SessionUser{Role: RoleClinician}, "/clinician/dashboard"},
		{"admin", &SessionUser{Role: RoleAdmin}, "/clinician/dashboard"},
		{"therapist", &SessionUser{Role: RoleTherapist}, "/login"},
		{"unset", &SessionUser{}, "/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRouteFor(tt.session))
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRole("Clinician")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}
