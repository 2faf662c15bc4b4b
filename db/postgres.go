package db

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"

	"todo-service/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq" // Postgres driver
)

var (
	DB         *sql.DB
	openDB     = sql.Open
	newMigrate = migrate.New
)

func Connect(cfg config.DatabaseConfig) error {
	if cfg.Engine != "postgres" {
		return fmt.Errorf("unsupported database engine: %s", cfg.Engine)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode)

	var err error
	DB, err = openDB("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Println("Successfully connected to the Postgres database")
	return nil
}

// Migrate applies all pending schema migrations. A database that is already
// up to date is not an error.
func Migrate(cfg config.DatabaseConfig) error {
	databaseURL := (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     cfg.Name,
		RawQuery: "sslmode=" + cfg.SSLMode,
	}).String()

	m, err := newMigrate(cfg.MigrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("error creating migrator: %w", err)
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("error applying migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("Database schema is up to date")
	} else {
		log.Println("Database migrations applied")
	}
	return nil
}
