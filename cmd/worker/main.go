package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campushub/internal/attendance"
	"campushub/internal/config"
	"campushub/internal/queue"
	"campushub/internal/store"
)

// Worker consumes attendance.marked events and recomputes the affected
// course day's summary counts.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campushub:attendance:marked")
	}

	repo := attendance.NewPostgres(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeAttendanceMarked {
			continue
		}

		evt, err := queue.DecodeMarked(msg.Body)
		if err != nil {
			log.Printf("bad message body: %v", err)
			continue
		}
		date, err := attendance.ParseDate(evt.Date)
		if err != nil {
			log.Printf("bad date in message %q: %v", evt.Date, err)
			continue
		}

		if err := repo.RefreshDailySummary(ctx, evt.CourseID, date); err != nil {
			log.Printf("summary refresh failed for %s %s: %v", evt.CourseID, evt.Date, err)
			continue
		}
		log.Printf("summary refreshed for course %s on %s", evt.CourseID, evt.Date)
	}

	log.Println("worker stopped")
}
