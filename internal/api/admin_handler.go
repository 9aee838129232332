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

// AdminHandler handles the /api/admin endpoints
type AdminHandler struct {
	services *service.Services
	loc      *time.Location
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, loc *time.Location, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		loc:      loc,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	caller, _ := callerFrom(c)

	users, err := h.services.Admin.ListUsers(c.Request.Context(), caller)
	if err != nil {
		logUnexpected(h.log, err, "Failed to list users")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	caller, _ := callerFrom(c)

	user, err := h.services.Admin.GetUser(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		logUnexpected(h.log, err, "Failed to get user")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	caller, _ := callerFrom(c)

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.services.Admin.UpdateUser(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		logUnexpected(h.log, err, "Failed to update user")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	caller, _ := callerFrom(c)

	if err := h.services.Admin.DeleteUser(c.Request.Context(), caller, c.Param("id")); err != nil {
		logUnexpected(h.log, err, "Failed to delete user")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "User removed"})
}

// ListRecords handles GET /api/admin/records
func (h *AdminHandler) ListRecords(c *gin.Context) {
	caller, _ := callerFrom(c)

	filter, err := validation.ParseRecordFilter(c.Request.URL.Query(), h.loc, true)
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := h.services.Admin.ListAllRecords(c.Request.Context(), caller, filter)
	if err != nil {
		logUnexpected(h.log, err, "Failed to list all records")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// UpdateRecordStatus handles PUT /api/admin/records/:id/status
func (h *AdminHandler) UpdateRecordStatus(c *gin.Context) {
	caller, _ := callerFrom(c)

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	record, err := h.services.Admin.UpdateRecordStatus(c.Request.Context(), caller, c.Param("id"), req.Status)
	if err != nil {
		logUnexpected(h.log, err, "Failed to update record status")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	caller, _ := callerFrom(c)

	stats, err := h.services.Admin.DashboardStats(c.Request.Context(), caller)
	if err != nil {
		logUnexpected(h.log, err, "Failed to compute dashboard stats")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportRecords handles GET /api/admin/export/records?format=...
// Streams the export directly to the response
func (h *AdminHandler) ExportRecords(c *gin.Context) {
	caller, _ := callerFrom(c)

	filter, err := validation.ParseRecordFilter(c.Request.URL.Query(), h.loc, true)
	if err != nil {
		respondError(c, err)
		return
	}

	err = h.services.Export.StreamRecords(c.Request.Context(), caller, c.Writer, c.Query("format"), filter)
	if err != nil {
		if c.Writer.Written() {
			// Can't return error JSON after streaming has started
			h.log.Error().Err(err).Msg("Export failed mid-stream")
			return
		}
		logUnexpected(h.log, err, "Export failed")
		respondError(c, err)
	}
}
