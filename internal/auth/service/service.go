// Package service implements authentication workflows: sign-in, token
// refresh, sign-out, and user administration.
package service

import (
	"context"
	"errors"
	"time"

	"assurdesk_backend/internal/auth/password"
	"assurdesk_backend/internal/auth/policy"
	"assurdesk_backend/internal/auth/repository"
	"assurdesk_backend/internal/auth/token"
	"assurdesk_backend/platform/apperr"
	"assurdesk_backend/platform/config"
	"assurdesk_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SignIn verifies credentials and returns an access token plus an opaque
// refresh token. Inactive accounts are rejected with the same error as bad
// credentials so the response does not leak account state.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (string, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("sign_in", email, false, "unknown email")
		return "", "", apperr.Unauthorized("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("sign_in", email, false, "bad password")
		return "", "", apperr.Unauthorized("invalid credentials")
	}

	if !user.IsActive {
		s.log.AuthEvent("sign_in", email, false, "account inactive")
		return "", "", apperr.Unauthorized("invalid credentials")
	}

	s.log.AuthEvent("sign_in", email, true, "")
	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates the refresh token: the presented token is revoked and a
// fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return "", "", apperr.Unauthorized("token invalid")
	}

	if time.Now().After(expiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return "", "", apperr.Unauthorized("token expired")
	}

	_ = s.repo.RevokeRefreshToken(ctx, hash)
	return s.issueTokens(ctx, userID)
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	hash := token.HashSHA256(refreshToken)
	return s.repo.RevokeRefreshToken(ctx, hash)
}

type Profile struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (Profile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, apperr.NotFound("user not found")
		}
		return Profile{}, err
	}

	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

// CreateUser provisions an account with the given roles. Admin only; the
// handler enforces that via the authorization policy.
func (s *Service) CreateUser(ctx context.Context, email, plainPassword, fullName string, roles []string) (Profile, error) {
	for _, r := range roles {
		if !policy.Role(r).Valid() {
			return Profile{}, apperr.Validation("unknown role: " + r)
		}
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return Profile{}, err
	}

	user, err := s.repo.CreateUser(ctx, email, hash, fullName)
	if err != nil {
		return Profile{}, apperr.Wrap(apperr.KindConflict, "email already registered", err)
	}

	if err := s.repo.SetUserRoles(ctx, user.ID, roles); err != nil {
		return Profile{}, err
	}

	s.log.AuthEvent("user_created", email, true, "")
	return Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

func (s *Service) SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	for _, r := range roles {
		if !policy.Role(r).Valid() {
			return apperr.Validation("unknown role: " + r)
		}
	}

	if err := s.repo.SetUserRoles(ctx, userID, roles); err != nil {
		if errors.Is(err, repository.ErrInvalidRole) {
			return apperr.Validation("invalid role set")
		}
		return err
	}

	// Force re-authentication so stale role claims cannot outlive the change.
	return s.repo.RevokeAllRefreshTokens(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]repository.UserWithRoles, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (string, string, error) {
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return "", "", err
	}

	accessToken, err := s.signJWT(userID, roles, s.cfg.GetAccessTokenTTL())
	if err != nil {
		return "", "", err
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return "", "", err
	}

	hash := token.HashSHA256(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, hash, expiresAt); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *Service) signJWT(userID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  accessTokenType,
		"roles": roles,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
