package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/record-tracker-api/internal/apperr"
)

const msgInternal = "Internal server error"

// statusFor maps an error kind to its HTTP status code
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindSelfActionForbidden:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"message": ...}. Unexpected failures are
// reported generically; their cause is attached to the context for logging.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}
	c.JSON(statusFor(kind), gin.H{"message": apperr.Message(err)})
}

// logUnexpected logs err when it is an unexpected failure
func logUnexpected(log zerolog.Logger, err error, msg string) {
	if apperr.KindOf(err) == apperr.KindUnexpected {
		log.Error().Err(err).Msg(msg)
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
