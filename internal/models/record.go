package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DefaultCategory is assigned to records created without a category
const DefaultCategory = "General"

// Status is the lifecycle state of a record. The zero value is not a valid
// status; values are obtained from the constants or ParseStatus.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusProcessing
	StatusCompleted
	StatusRejected
)

var statusNames = map[Status]string{
	StatusPending:    "Pending",
	StatusProcessing: "Processing",
	StatusCompleted:  "Completed",
	StatusRejected:   "Rejected",
}

// Statuses lists every valid status in display order
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusRejected}

// ErrInvalidStatus is returned when a value is not one of the known statuses
type ErrInvalidStatus struct {
	Value string
}

func (e *ErrInvalidStatus) Error() string {
	return fmt.Sprintf("invalid status %q, must be one of: Pending, Processing, Completed, Rejected", e.Value)
}

// ParseStatus converts a status name into a Status. Matching is exact.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, &ErrInvalidStatus{Value: s}
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, &ErrInvalidStatus{Value: s.String()}
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, &ErrInvalidStatus{Value: s.String()}
	}
	return statusNames[s], nil
}

// Scan implements sql.Scanner
func (s *Status) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
}

// Record represents a tracked item owned by a user
type Record struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Status      Status    `json:"status" db:"status"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// OwnerSummary is the subset of owner fields attached to admin listings
type OwnerSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// RecordWithOwner is a record enriched with its owner's details.
// Owner is nil when the owning user no longer exists.
type RecordWithOwner struct {
	Record
	Owner *OwnerSummary `json:"owner"`
}

// RecordFilter narrows record listings. Nil fields are not applied.
// DateFrom and DateTo are inclusive, DateBefore is exclusive.
type RecordFilter struct {
	UserID     *string
	Category   *string
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
	DateBefore *time.Time
}

// Matches reports whether r satisfies every set field of f
func (f RecordFilter) Matches(r *Record) bool {
	if f.UserID != nil && r.UserID != *f.UserID {
		return false
	}
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && r.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && r.Date.After(*f.DateTo) {
		return false
	}
	if f.DateBefore != nil && !r.Date.Before(*f.DateBefore) {
		return false
	}
	return true
}

// CreateRecordRequest is the body of POST /api/records
type CreateRecordRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date,omitempty"`
}

// UpdateRecordRequest is the body of PUT /api/records/:id. Absent or empty
// fields leave the stored value unchanged.
type UpdateRecordRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Date        *string `json:"date,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// UpdateStatusRequest is the body of PUT /api/admin/records/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TrimmedOrNil returns nil for nil or blank input, else the trimmed value
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
