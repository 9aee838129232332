package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/policy"
	"github.com/record-tracker-api/internal/repository"
	"github.com/record-tracker-api/internal/validation"
)

const msgRecordNotFound = "Record not found"

// recordService is the concrete implementation of RecordService
type recordService struct {
	records repository.RecordRepository
	loc     *time.Location
	now     Clock
	log     zerolog.Logger
}

// NewRecordService creates a RecordService. loc interprets date-only input.
func NewRecordService(repos *repository.Repositories, loc *time.Location, now Clock, log zerolog.Logger) RecordService {
	return &recordService{
		records: repos.Record,
		loc:     loc,
		now:     now,
		log:     log.With().Str("service", "record").Logger(),
	}
}

// Create stores a new Pending record owned by the caller
func (s *recordService) Create(ctx context.Context, caller models.Caller, req *models.CreateRecordRequest) (*models.Record, error) {
	if err := validation.ValidateCreateRecord(req).Err(); err != nil {
		return nil, err
	}

	now := s.now()
	date := now
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := validation.ParseDate(req.Date, s.loc)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		date = parsed
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	record := &models.Record{
		ID:          uuid.New().String(),
		UserID:      caller.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    category,
		Status:      models.StatusPending,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, unexpected(err)
	}

	s.log.Info().Str("record_id", record.ID).Str("user_id", caller.ID).Msg("Record created")
	return record, nil
}

// List returns the caller's own records matching filter. Any owner in the
// filter is replaced by the caller.
func (s *recordService) List(ctx context.Context, caller models.Caller, filter models.RecordFilter) ([]*models.Record, error) {
	owner := caller.ID
	filter.UserID = &owner

	records, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, unexpected(err)
	}
	return records, nil
}

// GetByID returns a record the caller may read
func (s *recordService) GetByID(ctx context.Context, caller models.Caller, id string) (*models.Record, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeRecordRead(caller, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Update merge-patches a record. Status is only honoured for admins and is
// silently dropped for everyone else.
func (s *recordService) Update(ctx context.Context, caller models.Caller, id string, req *models.UpdateRecordRequest) (*models.Record, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeRecordMutation(caller, record); err != nil {
		return nil, err
	}

	if v := models.TrimmedOrNil(req.Title); v != nil {
		record.Title = *v
	}
	if v := models.TrimmedOrNil(req.Description); v != nil {
		record.Description = *v
	}
	if v := models.TrimmedOrNil(req.Category); v != nil {
		record.Category = *v
	}
	if v := models.TrimmedOrNil(req.Date); v != nil {
		date, err := validation.ParseDate(*v, s.loc)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		record.Date = date
	}
	withStatus := false
	if policy.CanSetStatus(caller) {
		if v := models.TrimmedOrNil(req.Status); v != nil {
			status, err := models.ParseStatus(*v)
			if err != nil {
				return nil, apperr.Validation("%s", err.Error())
			}
			record.Status = status
			withStatus = true
		}
	}

	if err := s.records.Update(ctx, record, withStatus); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgRecordNotFound)
		}
		return nil, unexpected(err)
	}

	s.log.Info().Str("record_id", record.ID).Str("user_id", caller.ID).Msg("Record updated")
	return record, nil
}

// Delete removes a record the caller may mutate
func (s *recordService) Delete(ctx context.Context, caller models.Caller, id string) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeRecordMutation(caller, record); err != nil {
		return err
	}

	deleted, err := s.records.Delete(ctx, record.ID)
	if err != nil {
		return unexpected(err)
	}
	if !deleted {
		return apperr.NotFound(msgRecordNotFound)
	}

	s.log.Info().Str("record_id", record.ID).Str("user_id", caller.ID).Msg("Record deleted")
	return nil
}

func (s *recordService) load(ctx context.Context, id string) (*models.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, unexpected(err)
	}
	if record == nil {
		return nil, apperr.NotFound(msgRecordNotFound)
	}
	return record, nil
}
