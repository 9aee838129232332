package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/mocks"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/repository"
	"github.com/record-tracker-api/internal/service"
)

func TestAdminService_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	svc := f.adminService()
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, alice)
	assertKind(t, err, apperr.KindUnauthorized)

	_, err = svc.GetUser(ctx, alice, bob.ID)
	assertKind(t, err, apperr.KindUnauthorized)

	_, err = svc.UpdateUser(ctx, alice, alice.ID, &models.UpdateUserRequest{IsAdmin: boolPtr(true)})
	assertKind(t, err, apperr.KindUnauthorized)

	err = svc.DeleteUser(ctx, alice, bob.ID)
	assertKind(t, err, apperr.KindUnauthorized)

	_, err = svc.ListAllRecords(ctx, alice, models.RecordFilter{})
	assertKind(t, err, apperr.KindUnauthorized)

	_, err = svc.DashboardStats(ctx, alice)
	assertKind(t, err, apperr.KindUnauthorized)

	stored, _ := f.users.GetByID(ctx, alice.ID)
	assert.False(t, stored.IsAdmin, "a rejected update must not promote")
}

func TestAdminService_ListUsersHidesPasswords(t *testing.T) {
	f := newFixture(t)

	users, err := f.adminService().ListUsers(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash, "password hash leaked for %s", u.Email)
	}

	stored, _ := f.users.GetByID(context.Background(), alice.ID)
	assert.Equal(t, "hash", stored.PasswordHash, "sanitizing must not touch the store")
}

func TestAdminService_GetUser(t *testing.T) {
	f := newFixture(t)
	svc := f.adminService()

	user, err := svc.GetUser(context.Background(), root, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.GetUser(context.Background(), root, "missing")
	assertKind(t, err, apperr.KindNotFound)
}

func TestAdminService_UpdateUser(t *testing.T) {
	f := newFixture(t)
	svc := f.adminService()
	ctx := context.Background()

	updated, err := svc.UpdateUser(ctx, root, alice.ID, &models.UpdateUserRequest{
		FirstName: strPtr("Alicia"),
		LastName:  strPtr("  "),
		Email:     strPtr(" Alicia@Example.com "),
		IsAdmin:   boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "Tester", updated.LastName)
	assert.Equal(t, "alicia@example.com", updated.Email)
	assert.True(t, updated.IsAdmin)
	assert.Empty(t, updated.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, root, bob.ID, &models.UpdateUserRequest{Email: strPtr("ROOT@example.com")})
		assertKind(t, err, apperr.KindValidation)
		assert.Equal(t, "Email already in use", apperr.Message(err))
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, root, bob.ID, &models.UpdateUserRequest{Email: strPtr("bob-at-example")})
		assertKind(t, err, apperr.KindValidation)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, root, "missing", &models.UpdateUserRequest{})
		assertKind(t, err, apperr.KindNotFound)
	})
}

func TestAdminService_DeleteSelfForbidden(t *testing.T) {
	f := newFixture(t)

	// root is the only admin; deleting it must still be refused
	err := f.adminService().DeleteUser(context.Background(), root, root.ID)
	assertKind(t, err, apperr.KindSelfActionForbidden)
	assert.Equal(t, "Cannot delete your own account", apperr.Message(err))

	stored, _ := f.users.GetByID(context.Background(), root.ID)
	assert.NotNil(t, stored)
}

func TestAdminService_DeleteUserOrphansRecords(t *testing.T) {
	f := newFixture(t)
	svc := f.adminService()
	ctx := context.Background()

	f.addRecord(t, "alice-1", alice.ID, fixedNow, models.StatusPending)
	f.addRecord(t, "bob-1", bob.ID, fixedNow.Add(-time.Hour), models.StatusPending)

	require.NoError(t, svc.DeleteUser(ctx, root, alice.ID))

	err := svc.DeleteUser(ctx, root, alice.ID)
	assertKind(t, err, apperr.KindNotFound)

	records, err := svc.ListAllRecords(ctx, root, models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "alice-1", records[0].ID)
	assert.Nil(t, records[0].Owner, "orphaned record should have no owner")
	require.NotNil(t, records[1].Owner)
	assert.Equal(t, "bob@example.com", records[1].Owner.Email)
}

func TestAdminService_ListAllRecordsFilterByUser(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, "alice-1", alice.ID, fixedNow, models.StatusPending)
	f.addRecord(t, "bob-1", bob.ID, fixedNow, models.StatusCompleted)
	f.addRecord(t, "bob-2", bob.ID, fixedNow.Add(-time.Hour), models.StatusPending)

	completed := models.StatusCompleted
	records, err := f.adminService().ListAllRecords(context.Background(), root, models.RecordFilter{UserID: &bob.ID})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = f.adminService().ListAllRecords(context.Background(), root, models.RecordFilter{Status: &completed})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "bob-1", records[0].ID)
}

func TestAdminService_UpdateRecordStatus(t *testing.T) {
	f := newFixture(t)
	svc := f.adminService()
	ctx := context.Background()
	f.addRecord(t, "alice-1", alice.ID, fixedNow, models.StatusPending)

	updated, err := svc.UpdateRecordStatus(ctx, root, "alice-1", "Completed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, alice.ID, updated.UserID)

	tests := []struct {
		name   string
		caller models.Caller
		id     string
		status string
		want   apperr.Kind
	}{
		{"non-admin owner", alice, "alice-1", "Rejected", apperr.KindUnauthorized},
		{"unknown status", root, "alice-1", "Archived", apperr.KindValidation},
		{"empty status", root, "alice-1", "", apperr.KindValidation},
		{"missing record", root, "missing", "Completed", apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateRecordStatus(ctx, tt.caller, tt.id, tt.status)
			assertKind(t, err, tt.want)
		})
	}

	stored, _ := f.records.GetByID(ctx, "alice-1")
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestAdminService_DashboardStats(t *testing.T) {
	f := newFixture(t)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	f.addRecord(t, "r1", alice.ID, today.Add(2*time.Hour), models.StatusPending)
	f.addRecord(t, "r2", alice.ID, today.Add(11*time.Hour), models.StatusCompleted)
	f.addRecord(t, "r3", bob.ID, today.AddDate(0, 0, -1).Add(5*time.Hour), models.StatusRejected)
	f.addRecord(t, "r4", bob.ID, today.AddDate(0, 0, -6), models.StatusProcessing)
	f.addRecord(t, "r5", bob.ID, today.AddDate(0, 0, -7), models.StatusPending)

	stats, err := f.adminService().DashboardStats(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 5, stats.TotalRecords)
	assert.Equal(t, stats.TotalRecords, stats.StatusCounts.Total())
	assert.Equal(t, models.StatusCounts{Pending: 2, Processing: 1, Completed: 1, Rejected: 1}, stats.StatusCounts)
	assert.Equal(t, 2, stats.TodayRecords)

	require.Len(t, stats.Last7Days, 7)
	assert.Equal(t, "2024-03-15", stats.Last7Days[6].Date)
	assert.Equal(t, "2024-03-09", stats.Last7Days[0].Date)
	for i := 1; i < len(stats.Last7Days); i++ {
		prev, _ := time.Parse("2006-01-02", stats.Last7Days[i-1].Date)
		cur, _ := time.Parse("2006-01-02", stats.Last7Days[i].Date)
		assert.Equal(t, 24*time.Hour, cur.Sub(prev), "days must be consecutive")
	}

	counts := make([]int, 7)
	for i, d := range stats.Last7Days {
		counts[i] = d.Count
	}
	assert.Equal(t, []int{1, 0, 0, 0, 0, 1, 2}, counts)
}

func TestAdminService_DashboardStatsUsesLocation(t *testing.T) {
	f := newFixture(t)
	f.loc = time.FixedZone("UTC+10", 10*60*60)
	// 20:00 UTC on the 15th is 06:00 on the 16th at UTC+10
	f.now = time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

	f.addRecord(t, "early", alice.ID, time.Date(2024, 3, 15, 13, 30, 0, 0, time.UTC), models.StatusPending)
	f.addRecord(t, "late", alice.ID, time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), models.StatusPending)

	stats, err := f.adminService().DashboardStats(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-16", stats.Last7Days[6].Date)
	assert.Equal(t, 1, stats.TodayRecords, "only the record after local midnight counts as today")
	assert.Equal(t, 1, stats.Last7Days[5].Count)
	assert.Equal(t, 1, stats.Last7Days[6].Count)
}

// insertingRecords adds a record right after each status count, as a
// concurrent writer would.
type insertingRecords struct {
	*mocks.MockRecordRepository
	inserted int
}

func (r *insertingRecords) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	counts, err := r.MockRecordRepository.CountByStatus(ctx)
	if err != nil {
		return counts, err
	}
	r.inserted++
	return counts, r.Create(ctx, &models.Record{
		ID:        fmt.Sprintf("late-%d", r.inserted),
		UserID:    alice.ID,
		Status:    models.StatusPending,
		Date:      fixedNow,
		CreatedAt: fixedNow.AddDate(0, 0, -30),
	})
}

func TestAdminService_DashboardStatsTotalMatchesStatusCounts(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, "r1", alice.ID, fixedNow, models.StatusPending)
	f.addRecord(t, "r2", bob.ID, fixedNow, models.StatusRejected)
	inserting := &insertingRecords{MockRecordRepository: f.records}
	repos := &repository.Repositories{User: f.users, Record: inserting}
	svc := service.NewAdminService(repos, f.loc, f.clock, zerolog.Nop())

	stats, err := svc.DashboardStats(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, inserting.inserted)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, stats.StatusCounts.Total(), stats.TotalRecords)
}

func TestAdminService_DashboardStatsStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.records.Err = errors.New("timeout")

	_, err := f.adminService().DashboardStats(context.Background(), root)
	assertKind(t, err, apperr.KindUnexpected)
}

func boolPtr(b bool) *bool { return &b }
