package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campushub/internal/announce"
	"campushub/internal/attendance"
	"campushub/internal/auth"
)

type handlers struct {
	deps Deps
}

// markAttendance handles POST /api/courses/:courseID/attendance.
func (h *handlers) markAttendance(c *gin.Context) {
	var req struct {
		Date     string             `json:"date" binding:"required"`
		Students []attendance.Entry `json:"students" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	sum, err := h.deps.Attendance.Mark(c.Request.Context(), c.Param("courseID"), req.Date, req.Students)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sum})
}

// listAttendance handles GET /api/attendance.
func (h *handlers) listAttendance(c *gin.Context) {
	courseID := c.Query("course")
	if courseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "course query param required"})
		return
	}
	limit, offset := pageParams(c)
	records, err := h.deps.Attendance.List(c.Request.Context(), courseID,
		c.Query("startDate"), c.Query("endDate"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

// exportAttendance handles POST /api/attendance/export and streams a CSV.
func (h *handlers) exportAttendance(c *gin.Context) {
	var req struct {
		Course    string `json:"course" binding:"required"`
		StartDate string `json:"startDate" binding:"required"`
		EndDate   string `json:"endDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	export, err := h.deps.Attendance.Export(c.Request.Context(), req.Course, req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, "text/csv", export.Data)
}

// studentAttendance handles GET /api/attendance/student for the
// authenticated student's own records.
func (h *handlers) studentAttendance(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing bearer token"})
		return
	}
	limit, offset := pageParams(c)
	records, err := h.deps.Attendance.StudentRecords(c.Request.Context(), claims.Subject, c.Query("course"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

// attendanceSummary handles GET /api/courses/:courseID/attendance/summary.
func (h *handlers) attendanceSummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "date query param required"})
		return
	}
	sum, err := h.deps.Attendance.Summary(c.Request.Context(), c.Param("courseID"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sum})
}

// listAnnouncements handles GET /api/courses/:courseID/announcements.
func (h *handlers) listAnnouncements(c *gin.Context) {
	limit, offset := pageParams(c)
	items, err := h.deps.Announcements.ListByCourse(c.Request.Context(), c.Param("courseID"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// createAnnouncement handles POST /api/courses/:courseID/announcements.
func (h *handlers) createAnnouncement(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing bearer token"})
		return
	}
	var req struct {
		Title string `json:"title" binding:"required"`
		Body  string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	item, err := h.deps.Announcements.Create(c.Request.Context(), announce.Announcement{
		CourseID: c.Param("courseID"),
		AuthorID: claims.Subject,
		Title:    req.Title,
		Body:     req.Body,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": item})
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit, offset = 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}
