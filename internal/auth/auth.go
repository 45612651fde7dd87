package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/store"
)

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrEmailExists        = errors.New("email exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const bcryptCost = 10

type Service struct {
	users  store.UserStore
	tokens *TokenManager
}

func NewService(users store.UserStore, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates an account and issues a token for it. Unknown or
// empty roles default to candidate.
func (s *Service) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	if err := domain.ValidateName(name); err != nil {
		return nil, "", err
	}
	if !role.Valid() {
		role = domain.RoleCandidate
	}
	if _, err := s.users.UserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", err
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and issues a token. Unknown email and bad
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Resolve maps a bearer token to a user. Any failure (bad signature,
// expiry, deleted account) yields nil: the connection stays anonymous
// and the caller decides whether that is acceptable.
func (s *Service) Resolve(ctx context.Context, token string) *domain.User {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		log.Debug().Err(err).Str("module", "auth").Msg("token verify failed")
		return nil
	}
	u, err := s.users.UserByID(ctx, claims.UserID)
	if err != nil {
		log.Debug().Err(err).Str("module", "auth").Msg("token user lookup failed")
		return nil
	}
	return u
}

// Seed upserts the demo admin and interviewer accounts. Existing
// emails are left untouched.
func (s *Service) Seed(ctx context.Context) error {
	seeds := []struct {
		name, email, password string
		role                  domain.Role
	}{
		{"Admin", "admin@example.com", "adminpass", domain.RoleAdmin},
		{"Interviewer", "interviewer@example.com", "interviewerpass", domain.RoleInterviewer},
	}
	for _, sd := range seeds {
		if _, err := s.users.UserByEmail(ctx, sd.email); err == nil {
			continue
		}
		if _, _, err := s.Register(ctx, sd.name, sd.email, sd.password, sd.role); err != nil {
			return err
		}
		log.Info().Str("module", "auth").Str("email", sd.email).Str("role", string(sd.role)).Msg("seeded user")
	}
	return nil
}
