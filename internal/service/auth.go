package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/izinapp/izin-api/internal/events"
	"github.com/izinapp/izin-api/internal/hash"
	"github.com/izinapp/izin-api/internal/logging"
	"github.com/izinapp/izin-api/internal/models"
	"github.com/izinapp/izin-api/internal/repo"
	"github.com/izinapp/izin-api/internal/tokens"
)

// AuthService orchestrates the credential lifecycle: it composes the signer
// and the credential store and owns the rotation protocol. It keeps no
// mutable state of its own; the database is the only synchronization point.
type AuthService struct {
	Repo   *repo.Repo
	Signer *tokens.Signer
	Events *events.Producer
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.Repo.FindUserByEmailForAuth(ctx, email)
	if err != nil {
		l.Error("login_failed", "reason", "directory lookup", "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		l.Warn("login_failed", "reason", "unknown email")
		return nil, ErrUserNotFound
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueAndStore(ctx, user, &user.ID)
	if err != nil {
		l.Error("login_failed", "reason", "issue tokens", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.publish(ctx, "user_login", user.ID)
	l.Info("login_successful", "user_id", user.ID)

	return &LoginResult{User: user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Refresh performs single-use rotation. The presented token is revoked
// before the replacement exists: a crash in between logs the user out
// rather than leaving two live credentials, which is the intended
// fail-closed trade-off. The plaintext token is never logged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, ErrValidation
	}

	stored, err := s.Repo.FindLive(ctx, refreshToken)
	if err != nil {
		l.Error("refresh_failed", "reason", "store lookup", "error", err)
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if stored == nil {
		l.Warn("refresh_failed", "reason", "no live credential")
		return nil, ErrInvalidToken
	}

	userID, err := s.Signer.VerifyRefresh(refreshToken)
	if err != nil {
		// The row outlived the token's cryptographic validity; drop it so
		// the dead credential cannot linger.
		if _, delErr := s.Repo.DeleteByToken(ctx, refreshToken, nil); delErr != nil {
			l.Error("refresh_cleanup_failed", "error", delErr)
		}
		l.Warn("refresh_failed", "reason", "signature invalid", "user_id", stored.UserID)
		return nil, ErrInvalidToken
	}

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		l.Error("refresh_failed", "reason", "directory lookup", "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		if _, delErr := s.Repo.DeleteByToken(ctx, refreshToken, nil); delErr != nil {
			l.Error("refresh_cleanup_failed", "error", delErr)
		}
		l.Warn("refresh_failed", "reason", "principal vanished", "user_id", userID)
		return nil, ErrUserNotFound
	}

	// Revoke before issuing. Zero rows deleted means a concurrent rotation
	// of the same token won; this caller loses.
	deleted, err := s.Repo.DeleteByToken(ctx, refreshToken, &user.ID)
	if err != nil {
		l.Error("refresh_failed", "reason", "revoke old credential", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("delete credential: %w", err)
	}
	if deleted == 0 {
		l.Warn("refresh_failed", "reason", "lost rotation race", "user_id", user.ID)
		return nil, ErrInvalidToken
	}

	pair, err := s.issueAndStore(ctx, user, &user.ID)
	if err != nil {
		l.Error("refresh_failed", "reason", "issue tokens", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.publish(ctx, "token_rotated", user.ID)
	l.Info("refresh_successful", "user_id", user.ID)

	return pair, nil
}

// Logout is idempotent: revoking a token that is already gone succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if refreshToken == "" {
		return ErrValidation
	}

	stored, err := s.Repo.FindLive(ctx, refreshToken)
	if err != nil {
		l.Error("logout_failed", "reason", "store lookup", "error", err)
		return fmt.Errorf("find credential: %w", err)
	}

	var actorID *uint
	if stored != nil {
		actorID = &stored.UserID
	}
	deleted, err := s.Repo.DeleteByToken(ctx, refreshToken, actorID)
	if err != nil {
		l.Error("logout_failed", "error", err)
		return fmt.Errorf("delete credential: %w", err)
	}

	if deleted > 0 && stored != nil {
		s.publish(ctx, "user_logout", stored.UserID)
	}
	l.Info("logout_successful", "rows_deleted", deleted)
	return nil
}

// RevokeAll kills every live session the user has, on behalf of actorID.
func (s *AuthService) RevokeAll(ctx context.Context, userID uint, actorID *uint) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "auth.revoke_all", "user_id", userID)

	affected, err := s.Repo.RevokeAllForUser(ctx, userID, actorID)
	if err != nil {
		l.Error("revoke_all_failed", "error", err)
		return 0, fmt.Errorf("revoke credentials: %w", err)
	}

	s.publish(ctx, "tokens_revoked", userID)
	l.Info("revoke_all_successful", "rows_affected", affected)
	return affected, nil
}

func (s *AuthService) issueAndStore(ctx context.Context, user *models.User, actorID *uint) (*TokenPair, error) {
	accessToken, _, err := s.Signer.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, refreshExp, err := s.Signer.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if _, err := s.Repo.UpsertForUser(ctx, user.ID, refreshToken, refreshExp, actorID); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, userID uint) {
	event := map[string]any{"type": eventType, "user_id": userID}
	if err := s.Events.Publish(ctx, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", eventType, "error", err)
	}
}
