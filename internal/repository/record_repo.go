package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/record-tracker-api/internal/database"
	"github.com/record-tracker-api/internal/models"
)

var recordColumns = []string{
	"r.id", "r.user_id", "r.title", "r.description", "r.category", "r.status", "r.date", "r.created_at", "r.updated_at",
}

// recordRepo is the concrete implementation of RecordRepository
type recordRepo struct {
	db *database.DB
}

// NewRecordRepo creates a new record repository
func NewRecordRepo(db *database.DB) RecordRepository {
	return &recordRepo{db: db}
}

func recordFields(record *models.Record) []interface{} {
	return []interface{}{
		&record.ID, &record.UserID, &record.Title, &record.Description, &record.Category,
		&record.Status, &record.Date, &record.CreatedAt, &record.UpdatedAt,
	}
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var record models.Record
	if err := row.Scan(recordFields(&record)...); err != nil {
		return nil, err
	}
	return &record, nil
}

// selectRecords builds the filtered, ordered listing query
func selectRecords(filter models.RecordFilter, extra ...string) squirrel.SelectBuilder {
	q := psql.Select(append(append([]string{}, recordColumns...), extra...)...).From("records r")

	if filter.UserID != nil {
		q = q.Where(squirrel.Eq{"r.user_id": *filter.UserID})
	}
	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"r.category": *filter.Category})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"r.status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"r.date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"r.date": *filter.DateTo})
	}
	if filter.DateBefore != nil {
		q = q.Where(squirrel.Lt{"r.date": *filter.DateBefore})
	}

	return q.OrderBy("r.date DESC", "r.id ASC")
}

// Create inserts a new record
func (r *recordRepo) Create(ctx context.Context, record *models.Record) error {
	query, args, err := psql.Insert("records").
		Columns("id", "user_id", "title", "description", "category", "status", "date", "created_at", "updated_at").
		Values(
			record.ID, record.UserID, record.Title, record.Description, record.Category,
			record.Status, record.Date, record.CreatedAt, record.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by ID
func (r *recordRepo) GetByID(ctx context.Context, id string) (*models.Record, error) {
	if !validID(id) {
		return nil, nil
	}

	query, args, err := psql.Select(recordColumns...).From("records r").Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select record: %w", err)
	}
	return record, nil
}

// List returns the records matching filter
func (r *recordRepo) List(ctx context.Context, filter models.RecordFilter) ([]*models.Record, error) {
	records := make([]*models.Record, 0)
	err := r.StreamAll(ctx, filter, func(record *models.Record) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// StreamAll streams the records matching filter without buffering them
func (r *recordRepo) StreamAll(ctx context.Context, filter models.RecordFilter, callback func(*models.Record) error) error {
	query, args, err := selectRecords(filter).ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := callback(record); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ListWithOwners returns the records matching filter joined with their owners
func (r *recordRepo) ListWithOwners(ctx context.Context, filter models.RecordFilter) ([]*models.RecordWithOwner, error) {
	query, args, err := selectRecords(filter, "u.id", "u.first_name", "u.last_name", "u.email").
		LeftJoin("users u ON u.id = r.user_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records with owners: %w", err)
	}
	defer rows.Close()

	results := make([]*models.RecordWithOwner, 0)
	for rows.Next() {
		var item models.RecordWithOwner
		var ownerID, firstName, lastName, email sql.NullString
		dest := append(recordFields(&item.Record), &ownerID, &firstName, &lastName, &email)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if ownerID.Valid {
			item.Owner = &models.OwnerSummary{
				ID:        ownerID.String,
				FirstName: firstName.String,
				LastName:  lastName.String,
				Email:     email.String,
			}
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}

// Update writes the editable columns of record in a single statement. The
// status column is only written when withStatus is set; otherwise record
// receives the stored status.
func (r *recordRepo) Update(ctx context.Context, record *models.Record, withStatus bool) error {
	q := psql.Update("records").
		Set("title", record.Title).
		Set("description", record.Description).
		Set("category", record.Category).
		Set("date", record.Date).
		Set("updated_at", time.Now())
	if withStatus {
		q = q.Set("status", record.Status)
	}

	query, args, err := q.Where(squirrel.Eq{"id": record.ID}).
		Suffix("RETURNING status, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&record.Status, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// UpdateStatus overwrites only the status column and returns the stored record
func (r *recordRepo) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Record, error) {
	if !validID(id) {
		return nil, nil
	}

	query, args, err := psql.Update("records r").
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"r.id": id}).
		Suffix("RETURNING " + strings.Join(recordColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update record status: %w", err)
	}
	return record, nil
}

// Delete removes a record
func (r *recordRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM records WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountByStatus returns the number of records in each status
func (r *recordRepo) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	var counts models.StatusCounts

	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM records GROUP BY status")
	if err != nil {
		return counts, fmt.Errorf("count records by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status models.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		switch status {
		case models.StatusPending:
			counts.Pending = n
		case models.StatusProcessing:
			counts.Processing = n
		case models.StatusCompleted:
			counts.Completed = n
		case models.StatusRejected:
			counts.Rejected = n
		}
	}
	return counts, rows.Err()
}

// CountCreatedBetween counts records with from <= created_at < to
func (r *recordRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("records").
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
