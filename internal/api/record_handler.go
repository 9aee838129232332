package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/service"
	"github.com/record-tracker-api/internal/validation"
)

// RecordHandler handles the caller's own record endpoints
type RecordHandler struct {
	services *service.Services
	loc      *time.Location
	log      zerolog.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(services *service.Services, loc *time.Location, log zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		services: services,
		loc:      loc,
		log:      log.With().Str("handler", "record").Logger(),
	}
}

// List handles GET /api/records
func (h *RecordHandler) List(c *gin.Context) {
	caller, _ := callerFrom(c)

	filter, err := validation.ParseRecordFilter(c.Request.URL.Query(), h.loc, false)
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := h.services.Record.List(c.Request.Context(), caller, filter)
	if err != nil {
		logUnexpected(h.log, err, "Failed to list records")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// Create handles POST /api/records
func (h *RecordHandler) Create(c *gin.Context) {
	caller, _ := callerFrom(c)

	var req models.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	record, err := h.services.Record.Create(c.Request.Context(), caller, &req)
	if err != nil {
		logUnexpected(h.log, err, "Failed to create record")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// Get handles GET /api/records/:id
func (h *RecordHandler) Get(c *gin.Context) {
	caller, _ := callerFrom(c)

	record, err := h.services.Record.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		logUnexpected(h.log, err, "Failed to get record")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Update handles PUT /api/records/:id
func (h *RecordHandler) Update(c *gin.Context) {
	caller, _ := callerFrom(c)

	var req models.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	record, err := h.services.Record.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		logUnexpected(h.log, err, "Failed to update record")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /api/records/:id
func (h *RecordHandler) Delete(c *gin.Context) {
	caller, _ := callerFrom(c)

	if err := h.services.Record.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		logUnexpected(h.log, err, "Failed to delete record")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Record removed"})
}
