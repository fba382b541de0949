package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ctag/internal/logging"
)

// PostgresStore is the shared catalog backend
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore connects to the catalog database and makes sure the tables exist
// Security: the DSN carries credentials and is never logged
func NewPostgresStore(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn missing")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	store := &PostgresStore{sqlStore{db: db, logger: logger}}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Debug("postgres catalog connected")
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS keywords (
		id SERIAL PRIMARY KEY,
		keyword TEXT NOT NULL,
		parent TEXT NOT NULL DEFAULT '',
		type SMALLINT NOT NULL DEFAULT 1 CHECK (type IN (1, 2, 3))
	);

	CREATE TABLE IF NOT EXISTS repos (
		id SERIAL PRIMARY KEY,
		tagname TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_keywords_keyword ON keywords(keyword);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
