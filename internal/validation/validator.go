package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	dateOnlyLayout = "2006-01-02"

	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 6
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of validation errors
type Errors []ValidationError

func (e *Errors) add(field, message string, value interface{}) {
	*e = append(*e, ValidationError{Field: field, Message: message, Value: value})
}

// Err converts the list into a validation failure, or nil if empty
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Message
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

// IsValidEmail reports whether email looks like an address
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidID reports whether id is a well-formed identifier
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ParseDate accepts YYYY-MM-DD (midnight of that calendar day in loc) or
// RFC3339.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, _, err := parseDate(value, loc)
	return t, err
}

func parseDate(value string, loc *time.Location) (t time.Time, calendarDay bool, err error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(dateOnlyLayout, value, loc); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
}

// ValidateCreateRecord checks the required fields of a new record
func ValidateCreateRecord(req *models.CreateRecordRequest) Errors {
	var errs Errors
	if strings.TrimSpace(req.Title) == "" {
		errs.add("title", "Please add a title", nil)
	}
	if strings.TrimSpace(req.Description) == "" {
		errs.add("description", "Please add a description", nil)
	}
	return errs
}

// ValidateRegistration checks a registration request
func ValidateRegistration(req *models.RegisterRequest) Errors {
	var errs Errors
	if strings.TrimSpace(req.FirstName) == "" {
		errs.add("firstName", "Please add a first name", nil)
	}
	if strings.TrimSpace(req.LastName) == "" {
		errs.add("lastName", "Please add a last name", nil)
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs.add("email", "Please add an email", nil)
	} else if !IsValidEmail(email) {
		errs.add("email", "Please add a valid email", email)
	}
	if len(req.Password) < MinPasswordLength {
		errs.add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), nil)
	}
	return errs
}

// ParseRecordFilter converts listing query parameters into a typed filter.
// userId is only honoured when allowUser is set (admin listings).
func ParseRecordFilter(q url.Values, loc *time.Location, allowUser bool) (models.RecordFilter, error) {
	var (
		filter models.RecordFilter
		errs   Errors
	)

	if allowUser {
		if v := strings.TrimSpace(q.Get("userId")); v != "" {
			if !IsValidID(v) {
				errs.add("userId", "invalid userId", v)
			} else {
				filter.UserID = &v
			}
		}
	}

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		filter.Category = &v
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status, err := models.ParseStatus(v)
		if err != nil {
			errs.add("status", err.Error(), v)
		} else {
			filter.Status = &status
		}
	}

	if v := q.Get("startDate"); v != "" {
		from, err := ParseDate(v, loc)
		if err != nil {
			errs.add("startDate", "invalid startDate, expected YYYY-MM-DD or RFC3339", v)
		} else {
			filter.DateFrom = &from
		}
	}

	// A calendar-day endDate covers the whole day: the window closes at the
	// next local midnight, exclusive.
	if v := q.Get("endDate"); v != "" {
		to, calendarDay, err := parseDate(v, loc)
		switch {
		case err != nil:
			errs.add("endDate", "invalid endDate, expected YYYY-MM-DD or RFC3339", v)
		case calendarDay:
			before := to.AddDate(0, 0, 1)
			filter.DateBefore = &before
		default:
			filter.DateTo = &to
		}
	}

	if from := filter.DateFrom; from != nil {
		if (filter.DateTo != nil && from.After(*filter.DateTo)) ||
			(filter.DateBefore != nil && !from.Before(*filter.DateBefore)) {
			errs.add("startDate", "startDate must not be after endDate", nil)
		}
	}

	return filter, errs.Err()
}
