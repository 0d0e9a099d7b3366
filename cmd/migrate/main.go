package main

import (
	"context"
	"log"

	"campushub/internal/config"
	"campushub/internal/migrate"
	"campushub/internal/store"
)

// Applies the numbered migration list, including the attendance data
// repair steps. Safe to run repeatedly.
func main() {
	cfg := config.Load()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	applied, err := migrate.Apply(context.Background(), db.Client)
	if err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
	if applied == 0 {
		log.Println("database up to date")
		return
	}
	log.Printf("applied %d migration(s)", applied)
}
