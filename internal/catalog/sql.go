package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ctag/internal/models"
)

// sqlStore holds the queries shared by the SQLite and Postgres catalogs.
// Queries use ? placeholders and are rebound for the driver.
type sqlStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// ListKeywords returns the catalog rows in insertion order, which decides
// which definition of a repeated keyword wins.
func (s *sqlStore) ListKeywords(ctx context.Context) ([]models.KeywordRow, error) {
	var rows []models.KeywordRow
	query := `SELECT keyword, parent, type FROM keywords ORDER BY id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select keywords: %w", err)
	}
	return rows, nil
}

// ListProjects returns the project tag names
func (s *sqlStore) ListProjects(ctx context.Context) ([]string, error) {
	var names []string
	query := `SELECT tagname FROM repos ORDER BY id`
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	return names, nil
}

// Import appends rows and projects in one transaction
func (s *sqlStore) Import(ctx context.Context, rows []models.KeywordRow, projects []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	insertKeyword := s.db.Rebind(`INSERT INTO keywords (keyword, parent, type) VALUES (?, ?, ?)`)
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, insertKeyword, r.Keyword, r.Parent, int(r.Type)); err != nil {
			return fmt.Errorf("insert keyword %q: %w", r.Keyword, err)
		}
	}

	insertProject := s.db.Rebind(`INSERT INTO repos (tagname) VALUES (?)`)
	for _, p := range projects {
		if _, err := tx.ExecContext(ctx, insertProject, p); err != nil {
			return fmt.Errorf("insert project %q: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"keywords": len(rows),
		"projects": len(projects),
	}).Info("catalog imported")
	return nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}
