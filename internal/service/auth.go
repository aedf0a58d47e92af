// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept primitives and return domain errors (apperror); they know
// nothing about HTTP. Handlers translate domain errors to status codes.
//
// Every repository call runs under a bounded timeout so a wedged database
// can't hold a request goroutine forever — the deadline error propagates up
// and the handler maps it to 503.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/game-store/internal/apperror"
	"github.com/sakif/game-store/internal/auth"
	"github.com/sakif/game-store/internal/model"
	"github.com/sakif/game-store/internal/repository"
)

// storeTimeout bounds each call into the persistent store.
const storeTimeout = 5 * time.Second

// lastPostPlaceholder is shown on profiles with no forum activity yet.
const lastPostPlaceholder = "No recent posts"

// AuthService composes the credential store, the password hasher, and the
// token issuer into register/login/identify operations.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// handler can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account and issues a session token.
//
// Both fields are required. Duplicate emails surface as a Conflict error —
// the repository relies on the store's UNIQUE constraint rather than a
// check-then-insert, so concurrent registrations of the same email resolve
// correctly (exactly one wins).
//
// The issued token carries the user ID as subject plus the email claim,
// the same shape Login issues.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password for %s: %w", email, err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", email, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a session token.
//
// The two failure messages ("user not found" vs "wrong password") are kept
// distinct, matching the behaviour the frontend was built against. Both map
// to 401 at the HTTP layer.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "email and password are required")
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.Unauthorized("user not found")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	// An empty stored hash (GitHub-only account) never verifies, so OAuth
	// accounts can't be entered through the password door.
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("failed login attempt", slog.String("userID", user.ID))
		return nil, apperror.Unauthorized("wrong password")
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// LoginWithGitHub upserts the account for a GitHub profile and issues the
// same session token a password login would.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		Email:     ghUser.Email,
		Name:      ghUser.Login,
		AvatarURL: ghUser.AvatarURL,
		GitHubID:  ghUser.ID,
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting GitHub user %d: %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Identify validates a session token and returns the owner's profile
// projection.
//
// Any token problem (malformed, bad signature, expired) fails closed as
// Unauthorized. A valid token whose subject no longer exists — the account
// was removed after issuance — returns NotFound.
func (s *AuthService) Identify(ctx context.Context, tokenStr string) (*model.Profile, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return buildProfile(user), nil
}

// GetProfile returns the profile projection for an already-authenticated
// user ID (the middleware has validated the token by the time handlers run).
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return buildProfile(user), nil
}

// buildProfile applies the display defaults: name falls back to the email's
// local part, lastPost to a placeholder, and an unset avatar becomes null.
func buildProfile(user *model.User) *model.Profile {
	name := user.Name
	if name == "" {
		name = user.Email
		if at := strings.Index(name, "@"); at > 0 {
			name = name[:at]
		}
	}

	lastPost := user.LastPost
	if lastPost == "" {
		lastPost = lastPostPlaceholder
	}

	var avatar *string
	if user.AvatarURL != "" {
		avatar = &user.AvatarURL
	}

	return &model.Profile{
		Email:     user.Email,
		Name:      name,
		LastPost:  lastPost,
		AvatarURL: avatar,
	}
}
