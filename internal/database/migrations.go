package database

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// gooseLogger routes goose output through the database logger
type gooseLogger struct {
	db *DB
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.db.log.Debugf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.db.log.Fatalf(format, v...)
}

// Migrate applies all pending embedded migrations
func (db *DB) Migrate() error {
	db.log.Info("running migrations")

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{db: db})

	if err := goose.SetDialect(Dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db.DB.DB, migrationsDir); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	db.log.Info("migrations completed successfully")
	return nil
}
