package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"bhss/adapters/postgres"
	"bhss/app"
	"bhss/internal/importer"
	"bhss/internal/migration"
	"bhss/internal/validation"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const usage = `Usage:
  migrate up                                   apply the schema
  migrate reset                                drop every table and apply the schema again
  migrate import <kind> <file> [school-year]   load a directory sheet straight into the database

DATABASE_DRIVER (postgres or sqlite3) and DATABASE_URL select the database.`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("[Migrate] DATABASE_URL is required\n\n" + usage)
	}

	db, err := postgres.Connect(driver, databaseURL)
	if err != nil {
		log.Fatalf("[Migrate] Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := migration.NewRunner()

	switch os.Args[1] {
	case "up":
		if err := runner.Run(ctx, db); err != nil {
			log.Fatalf("[Migrate] %v", err)
		}
	case "reset":
		if err := runner.Reset(ctx, db); err != nil {
			log.Fatalf("[Migrate] %v", err)
		}
		if err := runner.Run(ctx, db); err != nil {
			log.Fatalf("[Migrate] %v", err)
		}
	case "import":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		schoolYear := ""
		if len(os.Args) > 4 {
			schoolYear = os.Args[4]
		}
		if err := runner.Run(ctx, db); err != nil {
			log.Fatalf("[Migrate] %v", err)
		}
		if err := importFile(ctx, db, os.Args[2], os.Args[3], schoolYear); err != nil {
			log.Fatalf("[Migrate] Import failed: %v", err)
		}
	default:
		log.Fatal(usage)
	}
}

// importFile goes through the directory service so duplicate detection and
// the single-transaction batch apply exactly as they do for uploads
func importFile(ctx context.Context, db *sqlx.DB, kindArg, path, schoolYear string) error {
	kind, err := importer.ParseKind(kindArg)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	directory := app.NewDirectoryService(
		postgres.NewSchoolRepository(db),
		postgres.NewBeneficiaryRepository(db),
		postgres.NewSchoolDetailsRepository(db),
		validation.New(),
	)
	result, err := directory.Import(ctx, kind, filepath.Base(path), f, schoolYear)
	if err != nil {
		return err
	}
	log.Printf("[Migrate] %s", result.Summary())
	return nil
}
