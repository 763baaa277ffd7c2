package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"recetario/internal/mail"
	"recetario/internal/middleware"
	"recetario/internal/models"
	"recetario/internal/repository"
	"recetario/internal/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const passwordResetKeyPrefix = "password_reset:"

type AuthService struct {
	userRepo      repository.UserRepository
	rdb           *redis.Client
	mailer        mail.Mailer
	resetTTL      time.Duration
	publicBaseURL string
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type AuthConfig struct {
	ResetTTL      time.Duration
	PublicBaseURL string
}

func NewAuthService(userRepo repository.UserRepository, rdb *redis.Client, mailer mail.Mailer, cfg AuthConfig) *AuthService {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 30 * time.Minute
	}
	return &AuthService{
		userRepo:      userRepo,
		rdb:           rdb,
		mailer:        mailer,
		resetTTL:      cfg.ResetTTL,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Signup creates a regular user account.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := validation.NormalizeEmail(in.Email)

	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already in use")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:              name,
		Email:             email,
		Password:          string(hashedPassword),
		Role:              models.RoleUser,
		FavoriteRecipeIDs: []uint{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks email and password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// RequestPasswordReset mails a reset link when the address belongs to a user.
// Unknown addresses succeed silently so the endpoint cannot be used to probe accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		middleware.Logger.InfoContext(ctx, "Password reset requested for unknown email")
		return nil
	}
	if s.rdb == nil {
		return models.NewUnavailableError("Password reset is temporarily unavailable", errors.New("redis not configured"))
	}

	token := uuid.NewString()
	if err := s.rdb.Set(ctx, passwordResetKeyPrefix+token, strconv.FormatUint(uint64(user.ID), 10), s.resetTTL).Err(); err != nil {
		return models.NewUnavailableError("Password reset is temporarily unavailable", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.publicBaseURL, token)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Restablece tu contraseña",
		Body: fmt.Sprintf("Hola %s,\n\nPara elegir una nueva contraseña abre este enlace:\n%s\n\nEl enlace caduca en %d minutos.\n",
			user.Name, link, int(s.resetTTL.Minutes())),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		middleware.Logger.ErrorContext(ctx, "Failed to send password reset email",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		s.rdb.Del(ctx, passwordResetKeyPrefix+token)
		return models.NewUnavailableError("Could not send the reset email", err)
	}
	return nil
}

// ResetPassword consumes a reset token and stores the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.NewValidationError("Reset token is required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	if s.rdb == nil {
		return models.NewUnavailableError("Password reset is temporarily unavailable", errors.New("redis not configured"))
	}

	raw, err := s.rdb.GetDel(ctx, passwordResetKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return models.NewValidationError("Reset token is invalid or expired")
	}
	if err != nil {
		return models.NewUnavailableError("Password reset is temporarily unavailable", err)
	}

	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return models.NewInternalError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, uint(userID), string(hashedPassword))
}
