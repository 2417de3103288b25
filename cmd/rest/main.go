package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sql-agent-be/internal/bootstrap"
	"sql-agent-be/internal/config"
	"sql-agent-be/internal/server"
	"sql-agent-be/internal/tracer"
	"sql-agent-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Otel)
	defer shutdownTracer(context.Background())

	// 3. Initialize Databases
	pool, err := database.NewPgxPool(context.Background(), cfg.Database.Connection, database.PoolConfig{
		MaxConns: int32(cfg.Database.MaxConns),
	})
	if err != nil {
		log.Panicf("Unable to connect to PostgreSQL %s: %v", database.MaskDSN(cfg.Database.Connection), err)
	}
	defer pool.Close()
	log.Printf("[INFO] Connected to PostgreSQL %s", database.MaskDSN(cfg.Database.Connection))

	memoryDB, err := database.NewSQLiteDB(cfg.Memory.Path)
	if err != nil {
		log.Panicf("Unable to open memory store %s: %v", cfg.Memory.Path, err)
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(memoryDB, pool, cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap application: %v", err)
	}
	defer container.Close()

	// 5. Start Background Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Background: Starting Consumer Service...")
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
