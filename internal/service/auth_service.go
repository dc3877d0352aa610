package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/auth"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/config"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	// Export assembles the citizen's full stored data set.
	Export(ctx context.Context, userID int64) (*domain.DataExport, error)
	// Erase removes the user and all their bookings. Unconditional.
	Erase(ctx context.Context, userID int64) error
}

type authService struct {
	userRepo    repository.UserRepository
	bookingRepo repository.BookingRepository
	auditRepo   repository.AuditRepository
	config      *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	auditRepo repository.AuditRepository,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		auditRepo:   auditRepo,
		config:      config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req, hash)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, domain.AuditUserRegistered, fmt.Sprintf("user %d (%s) registered", user.ID, user.Username))
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.AuthError("invalid credentials")
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return nil, domain.AuthError("invalid credentials")
	}

	token, err := auth.NewToken(user.ID, user.Role, s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Auth.TokenTTL.Seconds()),
	}, nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFoundError("user %d not found", id)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *authService) UpdateRole(ctx context.Context, id int64, role string) error {
	if !domain.IsValidRole(role) {
		return domain.ValidationError("unknown role %q", role)
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		return err
	}
	if !updated {
		return domain.NotFoundError("user %d not found", id)
	}

	s.audit(ctx, domain.AuditRoleChanged, fmt.Sprintf("user %d role set to %s", id, role))
	return nil
}

func (s *authService) Export(ctx context.Context, userID int64) (*domain.DataExport, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListByUser(ctx, userID, 100, 0)
	if err != nil {
		return nil, err
	}

	return &domain.DataExport{User: user, Bookings: bookings}, nil
}

func (s *authService) Erase(ctx context.Context, userID int64) error {
	erased, err := s.userRepo.Erase(ctx, userID)
	if err != nil {
		return err
	}
	if !erased {
		return domain.NotFoundError("user %d not found", userID)
	}

	s.audit(ctx, domain.AuditUserErased, fmt.Sprintf("user %d erased with all bookings", userID))
	return nil
}

func (s *authService) audit(ctx context.Context, entryType, message string) {
	if err := s.auditRepo.Append(ctx, entryType, message); err != nil {
		logger.ErrorContext(ctx, "Failed to append audit entry", "type", entryType, "error", err)
	}
}
