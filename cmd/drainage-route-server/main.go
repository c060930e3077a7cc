package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"drainage-route-server/config"
	"drainage-route-server/handlers"
	"drainage-route-server/network"
	"drainage-route-server/services"
)

func main() {
	cfg := config.Load()

	if cfg.SnapshotDir != "" {
		if err := os.MkdirAll(cfg.SnapshotDir, 0o755); err != nil {
			log.Fatalf("Failed to ensure snapshot dir: %v", err)
		}
	}

	log.Printf("Loading drainage networks from %s...", cfg.DataDir)
	networks, err := network.LoadDirectory(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to load network data: %v", err)
	}
	log.Printf("Loaded %d networks", len(networks))

	svc := services.NewDrainageService(networks, services.Options{
		SnapshotDir:   cfg.SnapshotDir,
		SnapPrecision: cfg.SnapPrecision,
		SpatialIndex:  cfg.SpatialIndex,
		BatchWorkers:  cfg.BatchWorkers,
	})

	// Build graphs once so requests never pay for construction.
	log.Println("Building network graphs (one-time)...")
	if err := svc.Warm(); err != nil {
		log.Fatalf("Failed to build network graphs: %v", err)
	}

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.AllowAllOrigins() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	handlers.NewDrainageHandler(svc).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Drainage Route Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}
