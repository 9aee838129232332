package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/auth"
	"github.com/record-tracker-api/internal/config"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/repository"
)

// Clock returns the current time
type Clock func() time.Time

// RecordService defines record operations scoped to the caller
type RecordService interface {
	Create(ctx context.Context, caller models.Caller, req *models.CreateRecordRequest) (*models.Record, error)
	List(ctx context.Context, caller models.Caller, filter models.RecordFilter) ([]*models.Record, error)
	GetByID(ctx context.Context, caller models.Caller, id string) (*models.Record, error)
	Update(ctx context.Context, caller models.Caller, id string, req *models.UpdateRecordRequest) (*models.Record, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
}

// AdminService defines user administration, cross-user record access and
// dashboard statistics. Every method requires an admin caller.
type AdminService interface {
	ListUsers(ctx context.Context, caller models.Caller) ([]*models.User, error)
	GetUser(ctx context.Context, caller models.Caller, id string) (*models.User, error)
	UpdateUser(ctx context.Context, caller models.Caller, id string, req *models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, caller models.Caller, id string) error
	ListAllRecords(ctx context.Context, caller models.Caller, filter models.RecordFilter) ([]*models.RecordWithOwner, error)
	UpdateRecordStatus(ctx context.Context, caller models.Caller, id, status string) (*models.Record, error)
	DashboardStats(ctx context.Context, caller models.Caller) (*models.DashboardStats, error)
}

// AuthService defines registration, login and caller resolution
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context, caller models.Caller) (*models.User, error)
	UpdateProfile(ctx context.Context, caller models.Caller, req *models.UpdateProfileRequest) (*models.User, error)
	ResolveCaller(ctx context.Context, token string) (models.Caller, error)
	BootstrapAdmin(ctx context.Context, email string) error
}

// ExportService defines streaming exports
type ExportService interface {
	StreamRecords(ctx context.Context, caller models.Caller, w http.ResponseWriter, format string, filter models.RecordFilter) error
}

// Services holds all service interfaces
type Services struct {
	Record RecordService
	Admin  AdminService
	Auth   AuthService
	Export ExportService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, tokens *auth.TokenManager, cfg *config.Config, log zerolog.Logger) *Services {
	loc := cfg.Stats.Location
	return &Services{
		Record: NewRecordService(repos, loc, time.Now, log),
		Admin:  NewAdminService(repos, loc, time.Now, log),
		Auth:   NewAuthService(repos.User, tokens, cfg.Auth.BcryptCost, time.Now, log),
		Export: NewExportService(repos, log),
	}
}

// unexpected wraps a store failure; typed failures pass through untouched
func unexpected(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Unexpected(err)
}
