package main

import (
	"context"
	"log"

	"agentic-rag-be/internal/bootstrap"
	"agentic-rag-be/internal/config"
	"agentic-rag-be/internal/server"
	"agentic-rag-be/internal/tracer"
	"agentic-rag-be/pkg/database"
)

func main() {
	// 0. Initialize tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load configuration
	cfg := config.Load()

	// 2. Initialize database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap dependencies (container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start background services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize server
	srv := server.New(cfg, container)

	// 6. Run server
	log.Fatal(srv.Run())
}
