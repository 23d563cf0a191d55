package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/database"
	queueadapter "github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/queue/adapter"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/application/task"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	srv, err := queueadapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to start task server: %v", err)
	}

	task.RegisterSystemNoticeTask(srv, pool)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("worker: processing tasks")
	if err := srv.Run(runCtx); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}
}
