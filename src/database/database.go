package database

import (
	"database/sql"
	"embed"
	stdlog "log"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/username/recurro/backend/src/logger"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var DB *sql.DB

// InitDB opens the sqlite database and applies any pending migrations.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	// modernc sqlite allows one writer; serialize access and wait instead of
	// failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{`PRAGMA busy_timeout = 5000`, `PRAGMA foreign_keys = ON`} {
		if _, err := db.Exec(pragma); err != nil {
			stdlog.Fatalf("failed to set pragma %q: %v", pragma, err)
		}
	}

	DB = db

	if err := runMigrations(db); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to run migrations", "error", err)
		}
		stdlog.Fatalf("failed to run migrations: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database ready", "databasePath", databasePath)
	}
}

// runMigrations applies all up migrations embedded in the binary.
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	if err == migrate.ErrNoChange {
		return nil
	}
	return err
}
