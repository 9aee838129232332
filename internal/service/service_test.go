package service_test

import (
	"context"
	"errors"
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

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

var (
	alice = models.Caller{ID: "11111111-1111-1111-1111-111111111111"}
	bob   = models.Caller{ID: "22222222-2222-2222-2222-222222222222"}
	root  = models.Caller{ID: "99999999-9999-9999-9999-999999999999", IsAdmin: true}
)

type fixture struct {
	users   *mocks.MockUserRepository
	records *mocks.MockRecordRepository
	repos   *repository.Repositories
	loc     *time.Location
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := mocks.NewMockUserRepository()
	records := mocks.NewMockRecordRepository(users)
	f := &fixture{
		users:   users,
		records: records,
		repos:   &repository.Repositories{User: users, Record: records},
		loc:     time.UTC,
		now:     fixedNow,
	}

	f.addUser(t, alice, "alice@example.com")
	f.addUser(t, bob, "bob@example.com")
	f.addUser(t, root, "root@example.com")
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) recordService() service.RecordService {
	return service.NewRecordService(f.repos, f.loc, f.clock, zerolog.Nop())
}

func (f *fixture) adminService() service.AdminService {
	return service.NewAdminService(f.repos, f.loc, f.clock, zerolog.Nop())
}

func (f *fixture) addUser(t *testing.T, caller models.Caller, email string) {
	t.Helper()
	err := f.users.Create(context.Background(), &models.User{
		ID:           caller.ID,
		FirstName:    email[:3],
		LastName:     "Tester",
		Email:        email,
		PasswordHash: "hash",
		IsAdmin:      caller.IsAdmin,
		CreatedAt:    fixedNow.Add(-24 * time.Hour),
		UpdatedAt:    fixedNow.Add(-24 * time.Hour),
	})
	require.NoError(t, err)
}

func (f *fixture) addRecord(t *testing.T, id, owner string, date time.Time, status models.Status) *models.Record {
	t.Helper()
	record := &models.Record{
		ID:          id,
		UserID:      owner,
		Title:       "Record " + id,
		Description: "Seeded",
		Category:    models.DefaultCategory,
		Status:      status,
		Date:        date,
		CreatedAt:   date,
		UpdatedAt:   date,
	}
	require.NoError(t, f.records.Create(context.Background(), record))
	return record
}

func strPtr(s string) *string { return &s }

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}

func TestRecordService_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	svc := f.recordService()

	record, err := svc.Create(context.Background(), alice, &models.CreateRecordRequest{
		Title:       "  Broken window ",
		Description: "Third floor",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, record.Status)
	assert.Equal(t, alice.ID, record.UserID)
	assert.Equal(t, "Broken window", record.Title)
	assert.Equal(t, models.DefaultCategory, record.Category)
	assert.True(t, record.Date.Equal(fixedNow), "date should default to now, got %v", record.Date)
	assert.NotEmpty(t, record.ID)

	stored, err := f.records.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestRecordService_CreateWithDateAndCategory(t *testing.T) {
	f := newFixture(t)

	record, err := f.recordService().Create(context.Background(), alice, &models.CreateRecordRequest{
		Title:       "Invoice",
		Description: "Q1",
		Category:    "Finance",
		Date:        "2024-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "Finance", record.Category)
	assert.True(t, record.Date.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
}

func TestRecordService_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *models.CreateRecordRequest
	}{
		{"missing title", &models.CreateRecordRequest{Description: "d"}},
		{"blank title", &models.CreateRecordRequest{Title: "  ", Description: "d"}},
		{"missing description", &models.CreateRecordRequest{Title: "t"}},
		{"bad date", &models.CreateRecordRequest{Title: "t", Description: "d", Date: "tomorrow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.recordService().Create(context.Background(), alice, tt.req)
			assertKind(t, err, apperr.KindValidation)

			count, _ := f.records.Count(context.Background())
			assert.Zero(t, count, "nothing should be stored")
		})
	}
}

func TestRecordService_OwnershipMatrix(t *testing.T) {
	tests := []struct {
		name   string
		caller models.Caller
		want   apperr.Kind
		ok     bool
	}{
		{"owner", alice, 0, true},
		{"other user", bob, apperr.KindUnauthorized, false},
		{"admin", root, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.recordService()
			ctx := context.Background()
			f.addRecord(t, "rec-1", alice.ID, fixedNow, models.StatusPending)

			_, getErr := svc.GetByID(ctx, tt.caller, "rec-1")
			_, updErr := svc.Update(ctx, tt.caller, "rec-1", &models.UpdateRecordRequest{Title: strPtr("Renamed")})
			delErr := svc.Delete(ctx, tt.caller, "rec-1")

			if tt.ok {
				assert.NoError(t, getErr)
				assert.NoError(t, updErr)
				assert.NoError(t, delErr)
				return
			}
			assertKind(t, getErr, tt.want)
			assertKind(t, updErr, tt.want)
			assertKind(t, delErr, tt.want)

			stored, _ := f.records.GetByID(ctx, "rec-1")
			require.NotNil(t, stored, "record must survive a rejected delete")
			assert.Equal(t, "Record rec-1", stored.Title)
		})
	}
}

func TestRecordService_NotFoundBeforeAuthorization(t *testing.T) {
	f := newFixture(t)
	svc := f.recordService()
	ctx := context.Background()

	_, err := svc.GetByID(ctx, bob, "missing")
	assertKind(t, err, apperr.KindNotFound)

	_, err = svc.Update(ctx, bob, "missing", &models.UpdateRecordRequest{})
	assertKind(t, err, apperr.KindNotFound)

	err = svc.Delete(ctx, root, "missing")
	assertKind(t, err, apperr.KindNotFound)
}

func TestRecordService_GetByIDIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.recordService()
	f.addRecord(t, "rec-1", alice.ID, fixedNow, models.StatusProcessing)

	first, err := svc.GetByID(context.Background(), alice, "rec-1")
	require.NoError(t, err)
	second, err := svc.GetByID(context.Background(), alice, "rec-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecordService_UpdateSuppressesStatusForNonAdmin(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, "rec-1", alice.ID, fixedNow, models.StatusPending)

	updated, err := f.recordService().Update(context.Background(), alice, "rec-1", &models.UpdateRecordRequest{
		Title:  strPtr("New title"),
		Status: strPtr("Completed"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, models.StatusPending, updated.Status)

	stored, _ := f.records.GetByID(context.Background(), "rec-1")
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "New title", stored.Title)
}

// statusRacingRecords lets an admin status change land between the owner's
// load and write.
type statusRacingRecords struct {
	*mocks.MockRecordRepository
	status models.Status
}

func (r *statusRacingRecords) GetByID(ctx context.Context, id string) (*models.Record, error) {
	record, err := r.MockRecordRepository.GetByID(ctx, id)
	if err != nil || record == nil {
		return record, err
	}
	if _, err := r.UpdateStatus(ctx, id, r.status); err != nil {
		return nil, err
	}
	return record, nil
}

func TestRecordService_OwnerUpdateKeepsConcurrentStatusChange(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, "rec-1", alice.ID, fixedNow, models.StatusPending)
	racing := &statusRacingRecords{MockRecordRepository: f.records, status: models.StatusCompleted}
	repos := &repository.Repositories{User: f.users, Record: racing}
	svc := service.NewRecordService(repos, f.loc, f.clock, zerolog.Nop())

	updated, err := svc.Update(context.Background(), alice, "rec-1", &models.UpdateRecordRequest{Title: strPtr("Edited")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	stored, _ := f.records.GetByID(context.Background(), "rec-1")
	assert.Equal(t, "Edited", stored.Title)
	assert.Equal(t, models.StatusCompleted, stored.Status, "the owner's edit must not undo the admin's status")
}

func TestRecordService_UpdateStatusAsAdmin(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, "rec-1", alice.ID, fixedNow, models.StatusPending)
	svc := f.recordService()

	updated, err := svc.Update(context.Background(), root, "rec-1", &models.UpdateRecordRequest{Status: strPtr("Rejected")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)

	_, err = svc.Update(context.Background(), root, "rec-1", &models.UpdateRecordRequest{
		Title:  strPtr("Should not stick"),
		Status: strPtr("Archived"),
	})
	assertKind(t, err, apperr.KindValidation)

	stored, _ := f.records.GetByID(context.Background(), "rec-1")
	assert.Equal(t, models.StatusRejected, stored.Status)
	assert.Equal(t, "Record rec-1", stored.Title, "a failed update must leave state unchanged")
}

func TestRecordService_UpdateIgnoresBlankFields(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, "rec-1", alice.ID, fixedNow, models.StatusPending)

	updated, err := f.recordService().Update(context.Background(), alice, "rec-1", &models.UpdateRecordRequest{
		Title:       strPtr("   "),
		Description: strPtr(""),
		Category:    strPtr("Maintenance"),
		Date:        strPtr("2024-02-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Record rec-1", updated.Title)
	assert.Equal(t, "Seeded", updated.Description)
	assert.Equal(t, "Maintenance", updated.Category)
	assert.True(t, updated.Date.Equal(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)))
}

func TestRecordService_ListJanuaryWindow(t *testing.T) {
	f := newFixture(t)
	day := func(m time.Month, d, h int) time.Time { return time.Date(2024, m, d, h, 0, 0, 0, time.UTC) }

	f.addRecord(t, "dec-31", alice.ID, time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), models.StatusPending)
	f.addRecord(t, "jan-01", alice.ID, day(time.January, 1, 0), models.StatusPending)
	f.addRecord(t, "jan-15", alice.ID, day(time.January, 15, 9), models.StatusCompleted)
	f.addRecord(t, "jan-31", alice.ID, day(time.January, 31, 23), models.StatusPending)
	f.addRecord(t, "feb-01", alice.ID, day(time.February, 1, 0), models.StatusPending)
	f.addRecord(t, "bob-jan", bob.ID, day(time.January, 20, 0), models.StatusPending)

	from := day(time.January, 1, 0)
	before := day(time.February, 1, 0)
	// userId is always overridden for own listings
	filter := models.RecordFilter{UserID: &bob.ID, DateFrom: &from, DateBefore: &before}

	records, err := f.recordService().List(context.Background(), alice, filter)
	require.NoError(t, err)

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"jan-31", "jan-15", "jan-01"}, ids)
}

func TestRecordService_StoreFailureIsUnexpected(t *testing.T) {
	f := newFixture(t)
	f.records.Err = errors.New("connection reset")

	_, err := f.recordService().List(context.Background(), alice, models.RecordFilter{})
	assertKind(t, err, apperr.KindUnexpected)
	assert.Equal(t, "Internal server error", apperr.Message(err))
}
