package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/auth"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/repository"
	"github.com/record-tracker-api/internal/validation"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgTokenFailed        = "Not authorized, token failed"
	msgUserExists         = "User already exists"
	msgEmailInUse         = "Email already in use"
)

// authService is the concrete implementation of AuthService
type authService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	now        Clock
	log        zerolog.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, now Clock, log zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        now,
		log:        log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a regular (non-admin) account and signs a token for it
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	if err := validation.ValidateRegistration(req).Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, unexpected(err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Validation(msgUserExists)
		}
		return nil, unexpected(err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	return s.respond(user)
}

// Login checks credentials and signs a fresh token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, unexpected(err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.log.Debug().Str("email", email).Msg("Login rejected")
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	return s.respond(user)
}

// Profile returns the caller's own account
func (s *authService) Profile(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, unexpected(err)
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	return user.Sanitized(), nil
}

// UpdateProfile merge-patches the caller's own account. A non-blank password
// replaces the stored hash. The admin flag is never touched here.
func (s *authService) UpdateProfile(ctx context.Context, caller models.Caller, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, unexpected(err)
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}

	if v := models.TrimmedOrNil(req.FirstName); v != nil {
		user.FirstName = *v
	}
	if v := models.TrimmedOrNil(req.LastName); v != nil {
		user.LastName = *v
	}
	if v := models.TrimmedOrNil(req.Email); v != nil {
		email := strings.ToLower(*v)
		if !validation.IsValidEmail(email) {
			return nil, apperr.Validation("Please add a valid email")
		}
		user.Email = email
	}
	if v := models.TrimmedOrNil(req.Phone); v != nil {
		user.Phone = *v
	}

	withPassword := req.Password != nil && *req.Password != ""
	if withPassword {
		if len(*req.Password) < validation.MinPasswordLength {
			return nil, apperr.Validation("Password must be at least %d characters", validation.MinPasswordLength)
		}
		hash, err := auth.HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, unexpected(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user, withPassword); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Validation(msgEmailInUse)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound(msgUserNotFound)
		default:
			return nil, unexpected(err)
		}
	}

	s.log.Info().Str("user_id", user.ID).Bool("password_changed", withPassword).Msg("Profile updated")
	return user.Sanitized(), nil
}

// ResolveCaller validates token and loads its user so that the admin flag
// reflects the stored value at request time.
func (s *authService) ResolveCaller(ctx context.Context, token string) (models.Caller, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return models.Caller{}, apperr.Unauthorized(msgTokenFailed)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Caller{}, unexpected(err)
	}
	if user == nil {
		return models.Caller{}, apperr.Unauthorized(msgTokenFailed)
	}

	return models.Caller{ID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// BootstrapAdmin promotes the account registered under email. A missing
// account is logged and skipped.
func (s *authService) BootstrapAdmin(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return unexpected(err)
	}
	if user == nil {
		s.log.Warn().Str("email", email).Msg("Admin bootstrap account not found")
		return nil
	}
	if user.IsAdmin {
		return nil
	}

	user.IsAdmin = true
	if err := s.users.Update(ctx, user, false); err != nil {
		return unexpected(err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("Admin bootstrap account promoted")
	return nil
}

func (s *authService) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, unexpected(err)
	}
	return &models.AuthResponse{User: user.Sanitized(), Token: token}, nil
}
