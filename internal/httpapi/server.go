// Package httpapi builds the gin router so handlers are testable apart
// from process wiring.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campushub/internal/announce"
	"campushub/internal/attendance"
	"campushub/internal/auth"
	"campushub/internal/authz"
	"campushub/internal/config"
	"campushub/internal/httpmiddleware"
	"campushub/internal/store"
)

// Deps carries everything the router needs.
type Deps struct {
	Cfg           config.App
	Attendance    *attendance.Service
	Announcements announce.Repository
	DB            *store.DB
	Redis         *store.Redis
}

// NewRouter assembles middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(d.Cfg.RateLimitPerMin, d.Cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := d.Redis.Healthy(c.Request.Context())
		dbHealthy := d.DB != nil && d.DB.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	h := &handlers{deps: d}

	api := r.Group("/api", auth.UserAuth(d.Cfg.JWTSigningKey, d.Cfg.JWTIssuer))

	api.POST("/courses/:courseID/attendance",
		authz.Require(authz.ResourceAttendance, authz.ActionWrite), h.markAttendance)
	api.GET("/courses/:courseID/attendance/summary",
		authz.Require(authz.ResourceAttendance, authz.ActionRead), h.attendanceSummary)
	api.GET("/attendance",
		authz.Require(authz.ResourceAttendance, authz.ActionRead), h.listAttendance)
	api.POST("/attendance/export",
		authz.Require(authz.ResourceAttendance, authz.ActionExport), h.exportAttendance)
	api.GET("/attendance/student",
		authz.Require(authz.ResourceOwnAttendance, authz.ActionRead), h.studentAttendance)

	api.GET("/courses/:courseID/announcements",
		authz.Require(authz.ResourceAnnouncements, authz.ActionRead), h.listAnnouncements)
	api.POST("/courses/:courseID/announcements",
		authz.Require(authz.ResourceAnnouncements, authz.ActionWrite), h.createAnnouncement)

	return r
}

// corsMiddleware allows browser requests from the SPA frontend.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// securityHeaders sets standard hardening headers.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
