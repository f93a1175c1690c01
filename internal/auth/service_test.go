package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
)

type memAuthStore struct {
	credentials []Credential
	sessions    map[string]Session
	nextID      int
}

func newMemAuthStore(creds ...Credential) *memAuthStore {
	return &memAuthStore{credentials: creds, sessions: map[string]Session{}}
}

func (m *memAuthStore) ActiveCredentials(context.Context) ([]Credential, error) {
	return m.credentials, nil
}

func (m *memAuthStore) CredentialByStaffID(_ context.Context, staffID string) (Credential, error) {
	for _, c := range m.credentials {
		if c.StaffID == staffID {
			return c, nil
		}
	}
	return Credential{}, errors.New("not found")
}

func (m *memAuthStore) CreateSession(_ context.Context, staffID, tokenHash, _, _ string, expiresAt time.Time) error {
	m.nextID++
	m.sessions[tokenHash] = Session{ID: fmt.Sprintf("sess-%d", m.nextID), StaffID: staffID, ExpiresAt: expiresAt}
	return nil
}

func (m *memAuthStore) GetSessionByToken(_ context.Context, tokenHash string) (Session, error) {
	s, ok := m.sessions[tokenHash]
	if !ok {
		return Session{}, errors.New("not found")
	}
	return s, nil
}

func (m *memAuthStore) RotateSessionToken(_ context.Context, sessionID, tokenHash string, expiresAt time.Time) error {
	for hash, s := range m.sessions {
		if s.ID == sessionID {
			delete(m.sessions, hash)
			s.ExpiresAt = expiresAt
			m.sessions[tokenHash] = s
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memAuthStore) DeleteSessionByToken(_ context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

func (m *memAuthStore) DeleteSessionsByStaff(_ context.Context, staffID string) error {
	for hash, s := range m.sessions {
		if s.StaffID == staffID {
			delete(m.sessions, hash)
		}
	}
	return nil
}

func mustHash(t *testing.T, pin string) string {
	t.Helper()
	hash, err := argon2id.CreateHash(pin, argon2id.DefaultParams)
	require.NoError(t, err)
	return hash
}

func newTestAuth(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store, Secret: "test-secret-please-rotate"})
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesTokenWithClaims(t *testing.T) {
	store := newMemAuthStore(Credential{
		StaffID:     "staff-1",
		Name:        "Asad",
		Role:        "Manager",
		PINHash:     mustHash(t, "4321"),
		Permissions: []string{"ADJUST_STOCK", "VIEW_REPORTS"},
	})
	svc := newTestAuth(t, store)

	result, err := svc.Login(context.Background(), "4321", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "staff-1", result.StaffID)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	claims, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "staff-1", claims.StaffID)
	require.Equal(t, "Asad", claims.Name)
	require.Equal(t, "Manager", claims.Role)
	require.ElementsMatch(t, []string{"ADJUST_STOCK", "VIEW_REPORTS"}, claims.Permissions)
}

func TestLoginRejectsWrongPIN(t *testing.T) {
	store := newMemAuthStore(Credential{StaffID: "staff-1", PINHash: mustHash(t, "4321")})
	svc := newTestAuth(t, store)

	_, err := svc.Login(context.Background(), "0000", "", "")
	require.Error(t, err)

	_, err = svc.Login(context.Background(), "", "", "")
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newMemAuthStore(Credential{StaffID: "staff-1", Name: "Asad", PINHash: mustHash(t, "4321")})
	svc := newTestAuth(t, store)

	login, err := svc.Login(context.Background(), "4321", "", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is gone after rotation.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)

	_, err = svc.Refresh(context.Background(), refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	store := newMemAuthStore(Credential{StaffID: "staff-1", PINHash: mustHash(t, "4321")})
	svc := newTestAuth(t, store)

	login, err := svc.Login(context.Background(), "4321", "", "")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(48 * time.Hour) })
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	store := newMemAuthStore(Credential{StaffID: "staff-1", PINHash: mustHash(t, "4321")})
	svc := newTestAuth(t, store)

	login, err := svc.Login(context.Background(), "4321", "", "")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(24 * time.Hour) })
	_, err = svc.ParseAccessToken(login.AccessToken)
	require.Error(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	store := newMemAuthStore(Credential{StaffID: "staff-1", PINHash: mustHash(t, "4321")})
	svc := newTestAuth(t, store)

	login, err := svc.Login(context.Background(), "4321", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
}

func TestRevokeStaffDropsAllSessions(t *testing.T) {
	store := newMemAuthStore(Credential{StaffID: "staff-1", PINHash: mustHash(t, "4321")})
	svc := newTestAuth(t, store)

	first, err := svc.Login(context.Background(), "4321", "", "")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "4321", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeStaff(context.Background(), "staff-1"))
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	require.Error(t, err)
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.Error(t, err)
}
