package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldforce-hq/fieldforce/internal/audit"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Service wraps authentication and token issuance business rules.
type Service struct {
	repo       Repository
	tokens     *TokenManager
	sessions   *SessionStore
	events     audit.Recorder
	logger     *slog.Logger
	bcryptCost int
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, sessions *SessionStore, events audit.Recorder, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		sessions:   sessions,
		events:     events,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Authenticate validates email/password credentials. A missing account, a
// wrong password and a deactivated account all surface as
// ErrInvalidCredentials so the response cannot be used to enumerate
// accounts; the distinction is kept in internal logs only.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.record(ctx, audit.Event{Action: audit.ActionLoginFailed, Entity: "user", EntityID: email, Meta: map[string]any{"reason": "unknown account"}})
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.record(ctx, audit.Event{ActorID: user.ID, Action: audit.ActionLoginFailed, Entity: "user", EntityID: user.ID.String(), Meta: map[string]any{"reason": "bad password"}})
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Info("login rejected", slog.String("user_id", user.ID.String()), slog.Any("error", shared.ErrAccountDisabled))
		s.record(ctx, audit.Event{ActorID: user.ID, Action: audit.ActionLoginFailed, Entity: "user", EntityID: user.ID.String(), Meta: map[string]any{"reason": "deactivated"}})
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Issue loads the user's current role, level and permission set and mints a
// signed access/refresh token pair embedding that snapshot. The snapshot is
// frozen into the tokens: permissions revoked afterwards stay usable until
// the access token expires or the pair is refreshed. That staleness window
// is an accepted trade-off bounded by the access-token TTL.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	snap, err := s.repo.Snapshot(ctx, userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: load snapshot: %w", err)
	}
	pair, jti, err := s.tokens.Mint(shared.Claims{
		UserID:      snap.UserID,
		Email:       snap.Email,
		RoleName:    snap.RoleName,
		RoleLevel:   snap.RoleLevel,
		Permissions: snap.Permissions,
	})
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Register(ctx, jti, snap.UserID.String()); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Login authenticates and issues tokens in one step.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.Issue(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.record(ctx, audit.Event{ActorID: user.ID, Action: audit.ActionLoginSucceeded, Entity: "user", EntityID: user.ID.String()})
	return user, pair, nil
}

// Refresh verifies the refresh token, re-checks the account is still active
// and issues a fresh pair with a recomputed permission snapshot. This is the
// only point where a stale snapshot self-heals without a new login. The
// presented token's registry entry is consumed, so each refresh token can be
// redeemed once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, jti, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	live, err := s.sessions.Consume(ctx, jti)
	if err != nil {
		return TokenPair{}, err
	}
	if !live {
		return TokenPair{}, shared.ErrTokenInvalid
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return TokenPair{}, shared.ErrTokenInvalid
	}

	pair, err := s.Issue(ctx, user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	s.record(ctx, audit.Event{ActorID: user.ID, Action: audit.ActionTokenRefreshed, Entity: "user", EntityID: user.ID.String()})
	return pair, nil
}

// Logout drops the refresh token's registry entry. The access token is left
// to age out; it carries its own expiry and is never stored server-side.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, jti, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}
	if err := s.sessions.Remove(ctx, jti); err != nil {
		return err
	}
	s.record(ctx, audit.Event{ActorID: claims.UserID, Action: audit.ActionLogout, Entity: "user", EntityID: claims.UserID.String()})
	return nil
}

// RegisterParams carries admin user creation input.
type RegisterParams struct {
	Email     string
	Phone     string
	Password  string
	FullName  string
	RoleID    *uuid.UUID
	EntityID  *uuid.UUID
	ReportsTo *uuid.UUID
}

// Register creates a user account and issues its first token pair.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, TokenPair{}, err
	}
	user, err := s.repo.CreateUser(ctx, User{
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: string(hash),
		FullName:     params.FullName,
		IsActive:     true,
		RoleID:       params.RoleID,
		EntityID:     params.EntityID,
		ReportsTo:    params.ReportsTo,
	})
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.Issue(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.record(ctx, audit.Event{ActorID: user.ID, Action: audit.ActionUserCreated, Entity: "user", EntityID: user.ID.String()})
	return user, pair, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	s.record(ctx, audit.Event{ActorID: userID, Action: audit.ActionPasswordChanged, Entity: "user", EntityID: userID.String()})
	return nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.events == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := s.events.Record(ctx, event); err != nil && s.logger != nil {
		s.logger.Warn("record audit event", slog.Any("error", err), slog.String("action", event.Action))
	}
}
