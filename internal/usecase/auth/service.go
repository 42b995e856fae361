package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/pkg/hash"
	"github.com/frontandrew/garage/internal/pkg/jwt"
	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/frontandrew/garage/internal/repository"
	"github.com/google/uuid"
)

// minPasswordLength - минимальная длина пароля при регистрации
const minPasswordLength = 6

// RegisterRequest - запрос на регистрацию
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse - ответ на вход
type LoginResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   string       `json:"expires_at"`
}

// Service содержит бизнес-логику аутентификации
type Service struct {
	userRepo     repository.UserRepository
	tokenService *jwt.TokenService
	logger       logger.Logger
}

// NewService создает новый экземпляр AuthService
func NewService(
	userRepo repository.UserRepository,
	tokenService *jwt.TokenService,
	logger logger.Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register регистрирует новый аккаунт
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)

	s.logger.Info("Registering new user", map[string]interface{}{
		"email": email,
	})

	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidUserData
	}

	// Проверяем, что аккаунт с таким email еще не существует
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if existingUser != nil {
		s.logger.Warn("User already exists", map[string]interface{}{
			"email": email,
		})
		return nil, domain.ErrUserAlreadyExists
	}

	// Хешируем пароль
	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	// Не возвращаем password_hash
	user.PasswordHash = ""

	return user, nil
}

// Login аутентифицирует аккаунт и возвращает JWT токен.
// Неизвестный email и неверный пароль дают одинаковую ошибку:
// ответ не раскрывает, существует ли аккаунт.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	email := domain.NormalizeEmail(req.Email)

	s.logger.Info("User login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.GenerateToken(user)
	if err != nil {
		s.logger.Error("Failed to generate token", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})

	// Не возвращаем password_hash
	user.PasswordHash = ""

	return &LoginResponse{
		User:        user,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// GetUserByID возвращает аккаунт по ID
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Не возвращаем password_hash
	user.PasswordHash = ""

	return user, nil
}

// ValidateToken валидирует JWT токен и возвращает claims
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenService.ValidateToken(tokenString)
}
