package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/policy"
	"github.com/record-tracker-api/internal/repository"
	"github.com/record-tracker-api/internal/validation"
)

const (
	msgUserNotFound = "User not found"

	// trendDays is the length of the dashboard activity histogram
	trendDays = 7
)

// adminService is the concrete implementation of AdminService
type adminService struct {
	users   repository.UserRepository
	records repository.RecordRepository
	loc     *time.Location
	now     Clock
	log     zerolog.Logger
}

// NewAdminService creates an AdminService. loc defines day boundaries for
// the dashboard statistics.
func NewAdminService(repos *repository.Repositories, loc *time.Location, now Clock, log zerolog.Logger) AdminService {
	return &adminService{
		users:   repos.User,
		records: repos.Record,
		loc:     loc,
		now:     now,
		log:     log.With().Str("service", "admin").Logger(),
	}
}

// ListUsers returns every user without password hashes
func (s *adminService) ListUsers(ctx context.Context, caller models.Caller) ([]*models.User, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, unexpected(err)
	}
	for i, u := range users {
		users[i] = u.Sanitized()
	}
	return users, nil
}

// GetUser returns one user without password hash
func (s *adminService) GetUser(ctx context.Context, caller models.Caller, id string) (*models.User, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// UpdateUser merge-patches a user's profile and admin flag
func (s *adminService) UpdateUser(ctx context.Context, caller models.Caller, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
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
	if req.IsAdmin != nil && policy.CanMutateUserAdminFlag(caller) {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.users.Update(ctx, user, false); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Validation(msgEmailInUse)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound(msgUserNotFound)
		default:
			return nil, unexpected(err)
		}
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("admin_id", caller.ID).
		Bool("is_admin", user.IsAdmin).
		Msg("User updated")
	return user.Sanitized(), nil
}

// DeleteUser removes a user. The user's records are left in place with a
// dangling owner reference.
func (s *adminService) DeleteUser(ctx context.Context, caller models.Caller, id string) error {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeUserDeletion(caller, user); err != nil {
		return err
	}

	deleted, err := s.users.Delete(ctx, user.ID)
	if err != nil {
		return unexpected(err)
	}
	if !deleted {
		return apperr.NotFound(msgUserNotFound)
	}

	s.log.Info().Str("user_id", user.ID).Str("admin_id", caller.ID).Msg("User deleted")
	return nil
}

// ListAllRecords returns records across all owners, enriched with owner details
func (s *adminService) ListAllRecords(ctx context.Context, caller models.Caller, filter models.RecordFilter) ([]*models.RecordWithOwner, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	records, err := s.records.ListWithOwners(ctx, filter)
	if err != nil {
		return nil, unexpected(err)
	}
	return records, nil
}

// UpdateRecordStatus overwrites a record's status regardless of its owner
func (s *adminService) UpdateRecordStatus(ctx context.Context, caller models.Caller, id, status string) (*models.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, unexpected(err)
	}
	if record == nil {
		return nil, apperr.NotFound(msgRecordNotFound)
	}
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	parsed, err := models.ParseStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	updated, err := s.records.UpdateStatus(ctx, record.ID, parsed)
	if err != nil {
		return nil, unexpected(err)
	}
	if updated == nil {
		return nil, apperr.NotFound(msgRecordNotFound)
	}

	s.log.Info().
		Str("record_id", updated.ID).
		Str("admin_id", caller.ID).
		Str("from", record.Status.String()).
		Str("to", updated.Status.String()).
		Msg("Record status changed")
	return updated, nil
}

// DashboardStats computes the dashboard counters as of now. Day boundaries
// are midnights in the configured location; every window is half-open.
func (s *adminService) DashboardStats(ctx context.Context, caller models.Caller) (*models.DashboardStats, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	stats := &models.DashboardStats{Last7Days: make([]models.DayCount, trendDays)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.users.Count(gctx)
		stats.TotalUsers = n
		return err
	})
	// The total is derived from the per-status counts so both come from
	// one snapshot.
	g.Go(func() error {
		counts, err := s.records.CountByStatus(gctx)
		stats.StatusCounts = counts
		stats.TotalRecords = counts.Total()
		return err
	})
	g.Go(func() error {
		n, err := s.records.CountCreatedBetween(gctx, today, now)
		stats.TodayRecords = n
		return err
	})

	for i := 0; i < trendDays; i++ {
		day := today.AddDate(0, 0, i-(trendDays-1))
		next := day.AddDate(0, 0, 1)
		slot := &stats.Last7Days[i]
		slot.Date = day.Format("2006-01-02")

		g.Go(func() error {
			n, err := s.records.CountCreatedBetween(gctx, day, next)
			slot.Count = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("Failed to compute dashboard stats")
		return nil, unexpected(err)
	}
	return stats, nil
}

func (s *adminService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, unexpected(err)
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	return user, nil
}
