package service

import (
	"context"
	"testing"
	"time"

	"apptbook/internal/database"
	"apptbook/internal/models"
	"apptbook/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) (*AuthService, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := repository.NewMemorySessionRepository(time.Hour)
	svc := NewAuthService(db, sessions, nil, time.Hour, &logger)
	return svc, db
}

func TestSignUpAndAuthenticate(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "Alice@Example.com", "Alice", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice@example.com", session.Email)
	assert.Equal(t, models.RoleCustomer, session.Role)

	actor, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, actor.ID)
	assert.Equal(t, "alice@example.com", actor.Email)
	assert.False(t, actor.CanManage())
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "not-an-email", "X", "long enough password")
	assert.Error(t, err)

	_, err = svc.SignUp(ctx, "x@example.com", "X", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "alice@example.com", "Alice II", "correct horse")
	assert.ErrorIs(t, err, database.ErrEmailTaken)
}

func TestSignInVerifiesPassword(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)

	session, err := svc.SignIn(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = svc.SignIn(ctx, "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email looks exactly like a wrong password.
	_, err = svc.SignIn(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInRateLimit(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)

	for i := 0; i < models.RateLimitLogins; i++ {
		_, err = svc.SignIn(ctx, "alice@example.com", "wrong password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = svc.SignIn(ctx, "alice@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSignOutDropsSession(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, session.Token))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Unknown token is a no-op.
	require.NoError(t, svc.SignOut(ctx, "nope"))
	require.NoError(t, svc.SignOut(ctx, ""))
}

func TestAuthenticateRejectsMissingAndExpired(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestEnsureAdmin(t *testing.T) {
	svc, db := setupAuth(t)
	ctx := context.Background()

	// Fresh install: the account is created with the admin role.
	require.NoError(t, svc.EnsureAdmin(ctx, "Root@Example.com", "Root", "correct horse"))
	admin, err := db.GetUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	// Re-running is a no-op.
	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "Root", "correct horse"))

	// The seeded admin can actually sign in.
	session, err := svc.SignIn(ctx, "root@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.Role)

	// An existing customer account gets promoted instead of duplicated.
	_, err = svc.SignUp(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin(ctx, "alice@example.com", "Alice", "correct horse"))
	alice, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, alice.Role)

	assert.ErrorIs(t, svc.EnsureAdmin(ctx, "not-an-email", "X", "correct horse"), ErrInvalidEmail)
	assert.ErrorIs(t, svc.EnsureAdmin(ctx, "new@example.com", "X", "short"), ErrWeakPassword)
}

func TestSetRole(t *testing.T) {
	svc, db := setupAuth(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "Root", "correct horse"))
	adminSession, err := svc.SignIn(ctx, "root@example.com", "correct horse")
	require.NoError(t, err)
	admin := adminSession.Actor()

	customerSession, err := svc.SignUp(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)
	customer := customerSession.Actor()

	// Customers cannot grant roles.
	assert.ErrorIs(t, svc.SetRole(ctx, customer, "alice@example.com", models.RoleEmployee), ErrForbidden)
	assert.ErrorIs(t, svc.SetRole(ctx, models.Actor{}, "alice@example.com", models.RoleEmployee), ErrUnauthenticated)

	// Admin promotes the customer to employee.
	require.NoError(t, svc.SetRole(ctx, admin, "alice@example.com", models.RoleEmployee))
	alice, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, alice.Role)

	// A fresh sign-in picks up the new role.
	session, err := svc.SignIn(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.True(t, session.Actor().CanManage())

	assert.ErrorIs(t, svc.SetRole(ctx, admin, "alice@example.com", "superuser"), ErrInvalidRole)
	assert.ErrorIs(t, svc.SetRole(ctx, admin, "nobody@example.com", models.RoleEmployee), database.ErrNotFound)

	// An admin cannot demote themselves.
	assert.ErrorIs(t, svc.SetRole(ctx, admin, "root@example.com", models.RoleCustomer), ErrForbidden)
}

func TestUpdatePassword(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)
	actor := session.Actor()

	assert.ErrorIs(t, svc.UpdatePassword(ctx, actor, "wrong", "new password here"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.UpdatePassword(ctx, actor, "correct horse", "tiny"), ErrWeakPassword)
	assert.ErrorIs(t, svc.UpdatePassword(ctx, models.Actor{}, "a", "new password here"), ErrUnauthenticated)

	require.NoError(t, svc.UpdatePassword(ctx, actor, "correct horse", "battery staple"))

	_, err = svc.SignIn(ctx, "alice@example.com", "battery staple")
	require.NoError(t, err)
}
