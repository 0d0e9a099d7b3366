package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"campushub/internal/attendance"
)

// respondError maps service errors onto the HTTP taxonomy: validation
// failures are 400, missing resources 404, and everything else is a 500
// that gets logged. Per-entry batch failures never reach here; they come
// back folded into the summary counts.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrInvalidDate), errors.Is(err, attendance.ErrInvalidRange),
		errors.Is(err, attendance.ErrExportTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, attendance.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "service unavailable"})
	}
}
