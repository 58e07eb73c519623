package service

import (
	"context"
	"errors"
	"time"

	"staffhub/internal/apperror"
	"staffhub/internal/config"
	"staffhub/internal/dto"
	"staffhub/internal/model"
	"staffhub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreateUser(ctx context.Context, actorID uuid.UUID, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, actorID uuid.UUID, includeInactive bool) ([]dto.UserResponse, error)
	GetUser(ctx context.Context, actorID, id uuid.UUID) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, actorID, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeactivateUser(ctx context.Context, actorID, id uuid.UUID) error
	ReactivateUser(ctx context.Context, actorID, id uuid.UUID) error
}

type authService struct {
	repo  repository.UserRepository
	perms PermissionService
	cfg   *config.Config
}

func NewAuthService(repo repository.UserRepository, perms PermissionService, cfg *config.Config) AuthService {
	return &authService{repo: repo, perms: perms, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		// Same message for unknown user and bad password.
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("invalid or expired refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperror.Unauthorized("invalid claims")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, apperror.Unauthorized("malformed token")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, apperror.Unauthorized("malformed token")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, apperror.Unauthorized("user not found or inactive")
	}

	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userResponse(user),
	}, nil
}

func (s *authService) CreateUser(ctx context.Context, actorID uuid.UUID, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := s.perms.RequirePermission(ctx, actorID, "user", "manage"); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:         req.Username,
		Name:             req.Name,
		Email:            req.Email,
		PasswordHash:     string(hash),
		Role:             req.Role,
		LeaveBalanceDays: decimal.NewFromInt(int64(s.cfg.DefaultLeaveDays)),
		Active:           true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.Storage(err)
	}
	resp := userResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, actorID uuid.UUID, includeInactive bool) ([]dto.UserResponse, error) {
	if err := s.perms.RequirePermission(ctx, actorID, "user", "read"); err != nil {
		return nil, err
	}
	var users []model.User
	var err error
	if includeInactive {
		users, err = s.repo.ListAll(ctx)
	} else {
		users, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = userResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) GetUser(ctx context.Context, actorID, id uuid.UUID) (*dto.UserResponse, error) {
	// Users may always read themselves; anything else needs the read grant.
	if actorID != id {
		if err := s.perms.RequirePermission(ctx, actorID, "user", "read"); err != nil {
			return nil, err
		}
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user %s not found", id)
		}
		return nil, apperror.Storage(err)
	}
	resp := userResponse(user)
	return &resp, nil
}

func (s *authService) UpdateUser(ctx context.Context, actorID, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.perms.RequirePermission(ctx, actorID, "user", "manage"); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user %s not found", id)
		}
		return nil, apperror.Storage(err)
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperror.Storage(err)
	}
	resp := userResponse(user)
	return &resp, nil
}

func (s *authService) DeactivateUser(ctx context.Context, actorID, id uuid.UUID) error {
	if err := s.perms.RequirePermission(ctx, actorID, "user", "manage"); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *authService) ReactivateUser(ctx context.Context, actorID, id uuid.UUID) error {
	if err := s.perms.RequirePermission(ctx, actorID, "user", "manage"); err != nil {
		return err
	}
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func userResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               u.ID.String(),
		Username:         u.Username,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		LeaveBalanceDays: u.LeaveBalanceDays.String(),
		Active:           u.Active,
	}
}
