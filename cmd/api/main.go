package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	cacheadapter "github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/cache/adapter"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/database"
	queueadapter "github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/queue/adapter"
	qport "github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/queue/port"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/realtime"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/token"
	chatadapter "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/adapter"
	chatport "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/presentation/controller"
	useruc "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/application/usecase"
	useradapter "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/persistence/repository/adapter"

	v1 "github.com/PivnoyFei/task-for-mango-fzco/cmd/api/router/v1"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	nats "github.com/nats-io/nats.go"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	var rooms chatport.RoomRepository = chatadapter.NewPgRoomRepository(pool)

	// Optional read-through cache for room lookups when Redis is configured.
	if os.Getenv("REDIS_URL") != "" {
		cache, err := cacheadapter.NewRedisAdapter()
		if err != nil {
			log.Printf("Warning: redis cache disabled: %v", err)
		} else {
			defer cache.Close()
			rooms = chatadapter.NewCachedRoomRepository(rooms, cache, 0)
		}
	}

	// A fresh process has no live sessions, so no room can be active yet.
	if err := rooms.DeactivateAll(ctx); err != nil {
		log.Fatalf("failed to reset room activity: %v", err)
	}

	registry := realtime.NewRegistry(rooms)
	defer registry.Close(context.Background())

	// Cross-node fan-out over NATS is optional; a single node broadcasts locally.
	var fanout realtime.Broadcaster = registry
	if url := os.Getenv("NATS_URL"); url != "" {
		nc, err := nats.Connect(url)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer nc.Close()
		f, err := realtime.NewFanout(registry, nc)
		if err != nil {
			log.Fatalf("failed to start fanout: %v", err)
		}
		defer f.Close()
		fanout = f
	}

	// Background queue for persisting system notices off the session path.
	var queue qport.Client
	if os.Getenv("REDIS_URL") != "" {
		qc, err := queueadapter.NewAsynqClientFromEnv()
		if err != nil {
			log.Printf("Warning: task queue disabled: %v", err)
		} else {
			defer qc.Close()
			queue = qc
		}
	}

	verifier, err := token.NewJWTVerifierFromEnv()
	if err != nil {
		log.Fatalf("failed to configure token verifier: %v", err)
	}
	identity := useruc.NewResolveIdentityUseCase(verifier, useradapter.NewPgUserRepository(pool))

	pageLimit := 0
	if v := os.Getenv("CHAT_PAGE_LIMIT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			pageLimit = i
		}
	}

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	v1.RegisterRoutes(r, controller.RoomSocketDeps{
		Registry:  registry,
		Fanout:    fanout,
		Identity:  identity,
		Rooms:     rooms,
		Members:   chatadapter.NewPgMemberRepository(pool),
		Messages:  chatadapter.NewPgMessageRepository(pool),
		Queue:     queue,
		PageLimit: pageLimit,
	})

	// Start HTTP server (blocks until shutdown)
	_ = r.Run()
}
