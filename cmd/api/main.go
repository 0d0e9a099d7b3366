package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"campushub/internal/announce"
	"campushub/internal/attendance"
	"campushub/internal/config"
	"campushub/internal/httpapi"
	"campushub/internal/queue"
	"campushub/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campushub:attendance:marked")
	}

	repo := attendance.NewPostgres(db.Client)
	att := attendance.NewService(repo, &queueNotifier{q: q}, cfg.ExportRowLimit)
	annRepo := announce.NewPostgres(db.Client)

	r := httpapi.NewRouter(httpapi.Deps{
		Cfg:           cfg,
		Attendance:    att,
		Announcements: annRepo,
		DB:            db,
		Redis:         redisClient,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// queueNotifier bridges the attendance service to the event queue. A
// failed publish only delays the summary refresh, so it is logged and
// dropped rather than failing the marking request.
type queueNotifier struct {
	q queue.Queue
}

func (n *queueNotifier) AttendanceMarked(ctx context.Context, courseID string, date time.Time) {
	if err := n.q.Publish(ctx, queue.NewMarkedMessage(courseID, date)); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}
