package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AdamBeresnev/beer-pong/internal/config"
	"github.com/AdamBeresnev/beer-pong/internal/db"
	"github.com/AdamBeresnev/beer-pong/internal/events"
	"github.com/AdamBeresnev/beer-pong/internal/service"
	"github.com/AdamBeresnev/beer-pong/internal/store"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	var publisher events.Publisher = events.NewLogPublisher(slog.Default())
	if cfg.RedisAddr != "" {
		redisClient, err := events.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
		publisher = events.NewRedisPublisher(redisClient, cfg.EventsChannelPrefix)
	} else {
		log.Println("REDIS_ADDR not set, events are only logged")
	}

	ledger := store.NewBeerLedgerStore(database)
	engine := service.NewEngine(database, store.NewTournamentStore(database), ledger, publisher, clockwork.NewRealClock())

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newRouter(engine, ledger, cfg),
	}

	go func() {
		log.Printf("Server starting on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
		return
	}
	log.Println("Server stopped")
}
