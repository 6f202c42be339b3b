package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bhss/adapters/postgres"
	"bhss/internal/config"
	"bhss/internal/container"
	"bhss/internal/errors"
	"bhss/internal/migration"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// initDatabase connects to the configured database and applies the schema
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := postgres.Connect(appConfig.Database.Driver, appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

// opsRouter serves health and pprof endpoints on a separate port
func opsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/debug", middleware.Profiler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("[Main] No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("[Main] Failed to initialize database: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("[Main] Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitWithDatabase(db); err != nil {
		log.Fatalf("[Main] Failed to initialize container: %v", err)
	}

	if err := appContainer.EnsureAdmin(context.Background()); err != nil {
		log.Fatalf("[Main] %v", err)
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("[Main] Profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, opsRouter()); err != nil {
				log.Printf("[Main] pprof server failed: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           appContainer.Server().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[Main] Starting BHSS server on port %s", appConfig.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Main] Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("[Main] Shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Main] Graceful shutdown failed: %v", err)
	}
}
