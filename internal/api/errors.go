package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/themobileprof/healthtrack-be/internal/db"
	"github.com/themobileprof/healthtrack-be/internal/journal"
)

// respondError maps domain errors to status codes. Validation problems are
// shown to the caller; anything unexpected is logged and hidden.
func respondError(c *gin.Context, err error) {
	switch {
	case journal.IsUserError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	default:
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
