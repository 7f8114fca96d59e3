package database

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jmoiron/sqlx"
	sqldblogger "github.com/simukti/sqldb-logger"
	"modernc.org/sqlite"
)

const (
	DriverName = "sqlite"
	Dialect    = "sqlite3"
)

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
}

// Config describes where the store lives and whether queries are logged
type Config struct {
	Path       string
	LogQueries bool
}

// DB wraps the sqlx handle used by the repositories
type DB struct {
	*sqlx.DB
	log *log.Helper
}

// Open connects to the SQLite file at cfg.Path.
//
// SQLite allows a single writer, so the pool is pinned to one connection.
// That also keeps ":memory:" databases alive across queries.
func Open(cfg Config, logger log.Logger) (*DB, error) {
	helper := log.NewHelper(log.With(logger, "module", "database"))

	var db *sqlx.DB
	if cfg.LogQueries {
		raw := sqldblogger.OpenDriver(cfg.Path, &sqlite.Driver{}, &queryLogger{log: helper})
		db = sqlx.NewDb(raw, DriverName)
	} else {
		var err error
		db, err = sqlx.Open(DriverName, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	helper.Infof("opened %s", cfg.Path)
	return &DB{DB: db, log: helper}, nil
}

// WrapTx starts a transaction against db and commits it when f succeeds
func WrapTx(ctx context.Context, db *sqlx.DB, f func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := f(tx); err != nil {
		return err
	}

	return tx.Commit()
}

type queryLogger struct {
	log *log.Helper
}

func (l *queryLogger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	switch level {
	case sqldblogger.LevelError:
		l.log.Errorw("msg", msg, "query", data["query"], "error", data["error"])
	case sqldblogger.LevelInfo, sqldblogger.LevelDebug:
		l.log.Debugw("msg", msg, "query", data["query"], "duration_ms", data["duration"])
	}
}
