package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopd/internal/domain/user"
	"shopd/internal/infrastructure/memory"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	return NewService(memory.NewStore(), nil, &seqIDs{}, "test-secret", ttl)
}

func register(t *testing.T, svc *Service, name, email string) *Result {
	t.Helper()
	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: "hunter22",
	})
	require.NoError(t, err)
	return result
}

func TestRegisterFirstUserIsSuperAdmin(t *testing.T) {
	svc := newTestService(t, time.Hour)

	first := register(t, svc, "alice", "alice@example.com")
	assert.Equal(t, []string{user.RoleSuperAdmin}, first.User.Roles)

	second := register(t, svc, "bob", "bob@example.com")
	assert.Equal(t, []string{user.RoleClient}, second.User.Roles)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "", Email: "a@b.c", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "a", Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "a", Email: "a@b.c", Password: ""})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t, time.Hour)
	register(t, svc, "alice", "alice@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "imposter",
		Email:    "alice@example.com",
		Password: "pw",
	})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t, time.Hour)
	register(t, svc, "alice", "alice@example.com")
	ctx := context.Background()

	result, err := svc.Login(ctx, "alice@example.com", "hunter22", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(ctx, "alice@example.com", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "hunter22", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveValidToken(t *testing.T) {
	svc := newTestService(t, time.Hour)
	result := register(t, svc, "alice", "alice@example.com")

	u, ok := svc.Resolve(context.Background(), result.Token)
	require.True(t, ok)
	assert.Equal(t, result.User.ID, u.ID)
}

func TestResolveNeverErrorsOnGarbage(t *testing.T) {
	svc := newTestService(t, time.Hour)
	ctx := context.Background()

	for _, bearer := range []string{"", "garbage", "a.b.c"} {
		u, ok := svc.Resolve(ctx, bearer)
		assert.False(t, ok)
		assert.Nil(t, u)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	svc := newTestService(t, -time.Minute)
	result := register(t, svc, "alice", "alice@example.com")

	_, ok := svc.Resolve(context.Background(), result.Token)
	assert.False(t, ok)
}

func TestLogoutRevokesOutstandingTokens(t *testing.T) {
	svc := newTestService(t, time.Hour)
	result := register(t, svc, "alice", "alice@example.com")
	ctx := context.Background()

	_, ok := svc.Resolve(ctx, result.Token)
	require.True(t, ok)

	require.NoError(t, svc.Logout(ctx, result.User.ID))

	_, ok = svc.Resolve(ctx, result.Token)
	assert.False(t, ok, "tokens issued before logout must stop resolving")
}

func TestLoginRevokesPreviousTokens(t *testing.T) {
	svc := newTestService(t, time.Hour)
	register(t, svc, "alice", "alice@example.com")
	ctx := context.Background()

	first, err := svc.Login(ctx, "alice@example.com", "hunter22", "")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "alice@example.com", "hunter22", "")
	require.NoError(t, err)

	_, ok := svc.Resolve(ctx, first.Token)
	assert.False(t, ok, "a new login invalidates older credentials")

	_, ok = svc.Resolve(ctx, second.Token)
	assert.True(t, ok)
}

func TestResolveRejectsForgedSignature(t *testing.T) {
	svc := newTestService(t, time.Hour)
	other := NewService(memory.NewStore(), nil, &seqIDs{}, "different-secret", time.Hour)

	forged := register(t, other, "mallory", "mallory@example.com")
	register(t, svc, "alice", "alice@example.com")

	_, ok := svc.Resolve(context.Background(), forged.Token)
	assert.False(t, ok)
}
