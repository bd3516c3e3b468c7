package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apptbook/internal/database"
	"apptbook/internal/domain"
	"apptbook/internal/events"
	"apptbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthService owns accounts and the opaque session tokens behind them.
// Tokens live in the session repository (redis with memory failover), so a
// lost redis never locks users out, it only signs them out.
type AuthService struct {
	users    domain.UserStore
	sessions domain.SessionRepository
	eventBus domain.EventPublisher
	ttl      time.Duration
	logger   *zerolog.Logger
}

func NewAuthService(users domain.UserStore, sessions domain.SessionRepository, eventBus domain.EventPublisher, ttl time.Duration, logger *zerolog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = models.DefaultSessionTTL * time.Second
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		eventBus: eventBus,
		ttl:      ttl,
		logger:   logger,
	}
}

// SignUp creates a customer account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, email, name, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventUserSignedUp, map[string]any{
			"user_id": user.ID,
			"email":   user.Email,
		}); err != nil {
			s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("publish signup event error")
		}
	}

	return s.startSession(ctx, user)
}

// SignIn verifies credentials and issues a fresh session token. Failures are
// rate limited per email; unknown email and wrong password are deliberately
// indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	allowed, err := s.sessions.CheckRateLimit(ctx, "login:"+email, models.RateLimitLogins, models.RateLimitWindow*time.Second)
	if err != nil {
		// Rate limiter trouble must not block sign-in.
		s.logger.Warn().Err(err).Msg("login rate limit check error")
	} else if !allowed {
		return nil, ErrRateLimited
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// SignOut drops the session. Unknown tokens are a no-op.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to an actor. Missing, unknown, and
// expired tokens all map to ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	if token == "" {
		return models.Actor{}, ErrUnauthenticated
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return models.Actor{}, fmt.Errorf("session lookup: %w", err)
	}
	if session == nil || session.Expired(time.Now()) {
		return models.Actor{}, ErrUnauthenticated
	}
	return session.Actor(), nil
}

// UpdatePassword changes the actor's password after verifying the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, actor models.Actor, current, next string) error {
	if actor.ID == 0 {
		return ErrUnauthenticated
	}
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.users.GetUserByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdateUserPassword(ctx, actor.ID, string(hash))
}

// EnsureAdmin guarantees the configured bootstrap admin account exists: an
// existing account with the email is promoted, otherwise the account is
// created. Called once at startup; without it a fresh install has nobody
// able to grant roles.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if user.Role == models.RoleAdmin {
			return nil
		}
		s.logger.Info().Str("email", email).Msg("promoting existing account to admin")
		return s.users.UpdateUserRole(ctx, user.ID, models.RoleAdmin)
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return err
	}
	s.logger.Info().Str("email", email).Msg("bootstrap admin account created")
	return nil
}

// SetRole changes another account's role. Admins only, and an admin cannot
// demote themselves, so the system always keeps at least one admin. The
// target's existing sessions keep the old role until they expire or the
// user signs back in.
func (s *AuthService) SetRole(ctx context.Context, actor models.Actor, email, role string) error {
	if actor.ID == 0 {
		return ErrUnauthenticated
	}
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	switch role {
	case models.RoleCustomer, models.RoleEmployee, models.RoleAdmin:
	default:
		return ErrInvalidRole
	}

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.ID == actor.ID && role != models.RoleAdmin {
		return ErrForbidden
	}
	return s.users.UpdateUserRole(ctx, user.ID, role)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}
