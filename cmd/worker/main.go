package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classattend/internal/attendance"
	"classattend/internal/config"
	"classattend/internal/faceclient"
	"classattend/internal/metrics"
	"classattend/internal/queue"
	"classattend/internal/store"
)

// Worker consumes post-commit audit jobs, asks the face service for a
// detection score on the check-in photo, and writes the score back to
// the verification log. The mark itself is never touched; a bad audit
// is an investigation signal for staff, not an automatic reversal.
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
		q = queue.NewRedisQueue(redisClient.Client, "classattend:audits")
	}

	repo := attendance.NewRepository(db.Client)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: face service not available: %v", err)
			log.Println("worker will retry audits as jobs arrive")
		} else {
			log.Println("face service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("audit worker started, waiting for jobs...")
	for msg := range messages {
		if msg.Type != queue.TypeMarkRecorded {
			continue
		}

		entry, err := repo.GetLogEntry(ctx, msg.LogID)
		if err != nil {
			log.Printf("fetch log entry %s failed: %v", msg.LogID, err)
			continue
		}

		imageURL := msg.ImageURL
		if imageURL == "" {
			imageURL = entry.ImageURL
		}
		score, err := face.AuditScore(ctx, imageURL)
		if err != nil {
			log.Printf("face audit failed for %s: %v", entry.ID, err)
			_ = repo.SetAuditScore(ctx, entry.ID, "audit_failed", nil)
			metrics.AuditsTotal.WithLabelValues("failed").Inc()
			continue
		}

		if err := repo.SetAuditScore(ctx, entry.ID, "audited", &score); err != nil {
			log.Printf("store audit score for %s failed: %v", entry.ID, err)
			continue
		}
		metrics.AuditsTotal.WithLabelValues("scored").Inc()
		log.Printf("log entry %s audited, score %.2f", entry.ID, score)
	}

	log.Println("worker stopped")
}
