// dbtool manages the Postgres wizard-state store: schema migrations,
// dirty-state recovery and record inspection.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/clem-pxp/elevate-auth/internal/storage"
	"github.com/clem-pxp/elevate-auth/internal/storage/migrations"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(
		"../.env",
		".env",
	)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatalf("DATABASE_URL is required for dbtool")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "fix":
			log.Printf("Attempting to fix dirty database...")
			if err := migrations.FixDirtyDatabase(db); err != nil {
				log.Fatalf("failed to fix dirty database: %v", err)
			}
			log.Printf("Database fixed successfully")

		case "force":
			if len(os.Args) < 3 {
				log.Fatalf("usage: %s force <version>", os.Args[0])
			}
			version := os.Args[2]
			var v uint
			if _, err := fmt.Sscanf(version, "%d", &v); err != nil {
				log.Fatalf("invalid version number: %s", version)
			}

			log.Printf("Forcing database version to %d...", v)
			if err := migrations.ForceVersion(db, v); err != nil {
				log.Fatalf("failed to force version: %v", err)
			}
			log.Printf("Database version forced to %d", v)

		case "status":
			v, dirty, err := migrations.Version(db)
			if err != nil {
				log.Fatalf("failed to read migration status: %v", err)
			}
			log.Printf("Schema version: %d (dirty: %v)", v, dirty)

		case "get":
			if len(os.Args) < 3 {
				log.Fatalf("usage: %s get <key>", os.Args[0])
			}
			store, err := storage.NewPostgresStore(db)
			if err != nil {
				log.Fatalf("failed to open wizard-state store: %v", err)
			}
			value, err := store.Get(ctx, os.Args[2])
			if err == storage.ErrNotFound {
				log.Fatalf("no record for key %q", os.Args[2])
			}
			if err != nil {
				log.Fatalf("failed to read key %q: %v", os.Args[2], err)
			}
			fmt.Println(string(value))

		case "clear":
			if len(os.Args) < 3 {
				log.Fatalf("usage: %s clear <key>", os.Args[0])
			}
			store, err := storage.NewPostgresStore(db)
			if err != nil {
				log.Fatalf("failed to open wizard-state store: %v", err)
			}
			if err := store.Clear(ctx, os.Args[2]); err != nil {
				log.Fatalf("failed to clear key %q: %v", os.Args[2], err)
			}
			log.Printf("Key %q cleared", os.Args[2])

		default:
			log.Printf("Usage: %s [fix|force <version>|status|get <key>|clear <key>]", os.Args[0])
			os.Exit(1)
		}
	} else {
		log.Printf("Applying migrations...")
		if err := migrations.Up(db); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
		log.Printf("Migrations applied successfully")
	}
}
