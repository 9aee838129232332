package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/record-tracker-api/internal/database"
	"github.com/record-tracker-api/internal/models"
)

var (
	// ErrDuplicateEmail is returned when a user write collides with an existing email
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrNotFound is returned by updates whose target vanished
	ErrNotFound = errors.New("not found")
)

// UserRepository defines the interface for user data operations.
// Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User, withPassword bool) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// RecordRepository defines the interface for record data operations.
// Listings are ordered by date descending, then id ascending.
type RecordRepository interface {
	Create(ctx context.Context, record *models.Record) error
	GetByID(ctx context.Context, id string) (*models.Record, error)
	List(ctx context.Context, filter models.RecordFilter) ([]*models.Record, error)
	ListWithOwners(ctx context.Context, filter models.RecordFilter) ([]*models.RecordWithOwner, error)
	StreamAll(ctx context.Context, filter models.RecordFilter, callback func(*models.Record) error) error
	Update(ctx context.Context, record *models.Record, withStatus bool) error
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Record, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User   UserRepository
	Record RecordRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepo(db),
		Record: NewRecordRepo(db),
	}
}

// psql builds statements with Postgres placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// validID reports whether id can be looked up at all. Ids are UUIDs, so
// anything else is treated as a miss rather than sent to the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
