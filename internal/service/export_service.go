package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/policy"
	"github.com/record-tracker-api/internal/repository"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"

	flushEvery = 100
)

var recordCSVHeader = []string{
	"id", "user_id", "title", "description", "category", "status", "date", "created_at", "updated_at",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// NewExportService creates a new ExportService
func NewExportService(repos *repository.Repositories, log zerolog.Logger) ExportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamRecords streams every record matching filter in the given format.
// An empty format means ndjson. The format is checked before anything is
// written so a bad request still gets a clean error response.
func (s *exportService) StreamRecords(ctx context.Context, caller models.Caller, w http.ResponseWriter, format string, filter models.RecordFilter) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatNDJSON
	}

	var stream func(context.Context, http.ResponseWriter, models.RecordFilter) (int, error)
	switch format {
	case FormatNDJSON:
		stream = s.streamNDJSON
	case FormatJSON:
		stream = s.streamJSON
	case FormatCSV:
		stream = s.streamCSV
	default:
		return apperr.Validation("unsupported format: %s", format)
	}

	s.log.Info().Str("format", format).Str("admin_id", caller.ID).Msg("Starting records export")

	count, err := stream(ctx, w, filter)
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Records export aborted")
		return unexpected(err)
	}

	s.log.Info().Int("count", count).Msg("Records export completed")
	return nil
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter, filter models.RecordFilter) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=records.ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.repos.Record.StreamAll(ctx, filter, func(record *models.Record) error {
		// Encode terminates each value with a newline
		if err := enc.Encode(record); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter, filter models.RecordFilter) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=records.json")

	flusher, _ := w.(http.Flusher)
	count := 0

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}

	err := s.repos.Record.StreamAll(ctx, filter, func(record *models.Record) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}

		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	_, err = w.Write([]byte("]"))
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter, filter models.RecordFilter) (int, error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=records.csv")

	flusher, _ := w.(http.Flusher)
	writer := csv.NewWriter(w)
	count := 0

	if err := writer.Write(recordCSVHeader); err != nil {
		return 0, err
	}

	err := s.repos.Record.StreamAll(ctx, filter, func(record *models.Record) error {
		if err := writer.Write(recordCSVRow(record)); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 {
			writer.Flush()
			if flusher != nil {
				flusher.Flush()
			}
		}
		return writer.Error()
	})
	if err != nil {
		return count, err
	}

	writer.Flush()
	return count, writer.Error()
}

func recordCSVRow(record *models.Record) []string {
	return []string{
		record.ID,
		record.UserID,
		record.Title,
		record.Description,
		record.Category,
		record.Status.String(),
		record.Date.UTC().Format(time.RFC3339),
		record.CreatedAt.UTC().Format(time.RFC3339),
		record.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
