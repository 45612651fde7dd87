package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroom-live/greenroom/internal/auth"
	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/store"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(store.NewMemory(), auth.NewTokenManager("test-secret"))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, "Bob", "bob@example.com", "hunter22", domain.RoleCandidate)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, domain.RoleCandidate, u.Role)
	assert.NotEqual(t, "hunter22", u.PasswordHash, "password must be stored hashed")

	_, _, err = svc.Register(ctx, "Bob Again", "bob@example.com", "other", domain.RoleCandidate)
	assert.ErrorIs(t, err, auth.ErrEmailExists)

	logged, token2, err := svc.Login(ctx, "bob@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token2)
	assert.Equal(t, u.ID, logged.ID)

	_, _, err = svc.Login(ctx, "bob@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "", "bob@example.com", "pw", domain.RoleCandidate)
	assert.ErrorIs(t, err, domain.ErrNameEmpty)

	_, _, err = svc.Register(ctx, strings.Repeat("x", domain.MaxNameLen+1), "long@example.com", "pw", domain.RoleCandidate)
	assert.ErrorIs(t, err, domain.ErrNameTooLong)

	_, _, err = svc.Register(ctx, "Bob", "", "pw", domain.RoleCandidate)
	assert.ErrorIs(t, err, auth.ErrMissingFields)

	// Unknown role falls back to candidate.
	u, _, err := svc.Register(ctx, "Eve", "eve@example.com", "pw", domain.Role("superuser"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCandidate, u.Role)
}

func TestResolve(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, "Bob", "bob@example.com", "hunter22", domain.RoleCandidate)
	require.NoError(t, err)

	resolved := svc.Resolve(ctx, token)
	require.NotNil(t, resolved)
	assert.Equal(t, u.ID, resolved.ID)

	assert.Nil(t, svc.Resolve(ctx, ""))
	assert.Nil(t, svc.Resolve(ctx, "not.a.token"))

	// A token signed with a different secret degrades to anonymous.
	other := auth.NewTokenManager("other-secret")
	foreign, err := other.Issue(u)
	require.NoError(t, err)
	assert.Nil(t, svc.Resolve(ctx, foreign))
}

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret")
	u := &domain.User{ID: "u-1", Role: domain.RoleInterviewer}

	token, err := tm.Issue(u)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.RoleInterviewer, claims.Role)
}

func TestSeedIdempotent(t *testing.T) {
	db := store.NewMemory()
	svc := auth.NewService(db, auth.NewTokenManager("test-secret"))
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))
	admin, err := db.UserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	require.NoError(t, svc.Seed(ctx))
	again, err := db.UserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID, "seeding twice must not replace accounts")

	_, _, err = svc.Login(ctx, "interviewer@example.com", "interviewerpass")
	assert.NoError(t, err)
}
