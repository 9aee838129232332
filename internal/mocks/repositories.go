package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.UserRepository   = (*MockUserRepository)(nil)
	_ repository.RecordRepository = (*MockRecordRepository)(nil)
)

// MockUserRepository is an in-memory implementation of UserRepository
type MockUserRepository struct {
	mu    sync.RWMutex
	Users map[string]*models.User

	// Err, when set, is returned by every method
	Err error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range m.Users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.Users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	users := make([]*models.User, 0, len(m.Users))
	for _, u := range m.Users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User, withPassword bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.Users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	user.UpdatedAt = time.Now()
	cp := *user
	if !withPassword {
		cp.PasswordHash = stored.PasswordHash
	}
	cp.CreatedAt = stored.CreatedAt
	m.Users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.Users[id]; !ok {
		return false, nil
	}
	delete(m.Users, id)
	return true, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Users), nil
}

// MockRecordRepository is an in-memory implementation of RecordRepository.
// Owner lookups for ListWithOwners go through Users when set.
type MockRecordRepository struct {
	mu      sync.RWMutex
	Records map[string]*models.Record
	Users   *MockUserRepository

	// Err, when set, is returned by every method
	Err error
	// CountCalls counts CountCreatedBetween invocations
	CountCalls int
}

func NewMockRecordRepository(users *MockUserRepository) *MockRecordRepository {
	return &MockRecordRepository{
		Records: make(map[string]*models.Record),
		Users:   users,
	}
}

func (m *MockRecordRepository) Create(ctx context.Context, record *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cp := *record
	m.Records[record.ID] = &cp
	return nil
}

func (m *MockRecordRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Records[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// matching returns copies of the records matching filter in listing order
func (m *MockRecordRepository) matching(filter models.RecordFilter) []*models.Record {
	records := make([]*models.Record, 0)
	for _, r := range m.Records {
		if filter.Matches(r) {
			cp := *r
			records = append(records, &cp)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID < records[j].ID
	})
	return records
}

func (m *MockRecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.matching(filter), nil
}

func (m *MockRecordRepository) ListWithOwners(ctx context.Context, filter models.RecordFilter) ([]*models.RecordWithOwner, error) {
	m.mu.RLock()
	records := m.matching(filter)
	err := m.Err
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	results := make([]*models.RecordWithOwner, 0, len(records))
	for _, r := range records {
		item := &models.RecordWithOwner{Record: *r}
		if m.Users != nil {
			owner, err := m.Users.GetByID(ctx, r.UserID)
			if err != nil {
				return nil, err
			}
			if owner != nil {
				item.Owner = &models.OwnerSummary{
					ID:        owner.ID,
					FirstName: owner.FirstName,
					LastName:  owner.LastName,
					Email:     owner.Email,
				}
			}
		}
		results = append(results, item)
	}
	return results, nil
}

func (m *MockRecordRepository) StreamAll(ctx context.Context, filter models.RecordFilter, callback func(*models.Record) error) error {
	records, err := m.List(ctx, filter)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := callback(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockRecordRepository) Update(ctx context.Context, record *models.Record, withStatus bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.Records[record.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !withStatus {
		record.Status = stored.Status
	}
	record.UpdatedAt = time.Now()
	cp := *record
	cp.UserID = stored.UserID
	cp.CreatedAt = stored.CreatedAt
	m.Records[record.ID] = &cp
	return nil
}

func (m *MockRecordRepository) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	stored, ok := m.Records[id]
	if !ok {
		return nil, nil
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	cp := *stored
	return &cp, nil
}

func (m *MockRecordRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.Records[id]; !ok {
		return false, nil
	}
	delete(m.Records, id)
	return true, nil
}

func (m *MockRecordRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Records), nil
}

func (m *MockRecordRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var counts models.StatusCounts
	if m.Err != nil {
		return counts, m.Err
	}
	for _, r := range m.Records {
		switch r.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusProcessing:
			counts.Processing++
		case models.StatusCompleted:
			counts.Completed++
		case models.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (m *MockRecordRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CountCalls++
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, r := range m.Records {
		if !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}
