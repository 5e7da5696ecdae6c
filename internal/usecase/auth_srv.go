package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guidehub/internal/data/entity"
	"guidehub/internal/data/repository"
	"guidehub/internal/dto/request"
	"guidehub/internal/dto/response"
	"guidehub/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      entity.UserRole
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest, meta request.SessionMeta) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest, meta request.SessionMeta) (*response.AuthResponse, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	// Authenticate resolves a bearer token to an Identity. The token must
	// be validly signed and its session neither revoked nor expired.
	Authenticate(ctx context.Context, token string) (*Identity, error)
	CleanupSessions(ctx context.Context) (int64, error)
}

type authService struct {
	repo   *repository.Repository
	tokens *utils.TokenManager
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(repo *repository.Repository, tokens *utils.TokenManager, log *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		log:    log.With(zap.String("service", "auth")),
		now:    time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest, meta request.SessionMeta) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	role := entity.RoleTourist
	if req.Role != "" {
		role = entity.UserRole(req.Role)
	}
	if !role.SelfAssignable() {
		return nil, fmt.Errorf("%w: role %s cannot be chosen", ErrInvalidInput, req.Role)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return s.issue(ctx, user, false, meta)
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, meta request.SessionMeta) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	user, err := s.repo.User.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid login attempt", zap.String("email", req.Email))
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("account is deactivated: %w", ErrForbidden)
	}

	resp, err := s.issue(ctx, user, req.RememberMe, meta)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.repo.Session.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.log.Info("User logged out", zap.String("session_id", sessionID.String()))
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	userID, sessionID, err := claims.UserAndSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	session, err := s.repo.Session.FindValidSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return nil, fmt.Errorf("session revoked or expired: %w", ErrUnauthorized)
	}

	return &Identity{
		UserID:    userID,
		SessionID: sessionID,
		Role:      entity.UserRole(claims.Role),
	}, nil
}

func (s *authService) CleanupSessions(ctx context.Context) (int64, error) {
	removed, err := s.repo.Session.CleanExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("Expired sessions removed", zap.Int64("count", removed))
	}
	return removed, nil
}

// issue stores a session row and signs a token naming it.
func (s *authService) issue(ctx context.Context, user *entity.User, remember bool, meta request.SessionMeta) (*response.AuthResponse, error) {
	now := s.now().UTC()
	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:    user.ID,
		UserAgent: optional(meta.UserAgent),
		IPAddress: optional(meta.IPAddress),
		ExpiresAt: now.Add(s.tokens.TTL(remember)),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, session.ID, string(user.Role), session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &response.AuthResponse{
		User:      response.UserToResponse(user),
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
