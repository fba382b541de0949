package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/ctag/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextTag - ctag tag needs a catalog and a repository
	ValidationContextTag ValidationContext = "tag"
	// ValidationContextGraph - ctag graph needs a catalog
	ValidationContextGraph ValidationContext = "graph"
	// ValidationContextExport - graph export additionally needs Neo4j
	ValidationContextExport ValidationContext = "export"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}
	return sb.String()
}

// Err converts a failed result into a config error, nil otherwise
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(strings.TrimSpace(vr.Error()))
}

// Validate validates configuration for the given command context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextTag:
		c.validateCatalog(result)
		c.validateRepo(result)
		c.validateTagging(result)
	case ValidationContextGraph:
		c.validateCatalog(result)
	case ValidationContextExport:
		c.validateCatalog(result)
		c.validateNeo4j(result)
	}

	return result
}

func (c *Config) validateCatalog(result *ValidationResult) {
	switch c.Catalog.Driver {
	case "sqlite":
		if c.Catalog.SQLitePath == "" {
			result.AddError("catalog.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Catalog.PostgresDSN == "" {
			result.AddError("catalog.postgres_dsn (or POSTGRES_DSN) is required for the postgres driver")
		}
	case "file":
		if c.Catalog.FilePath == "" {
			result.AddError("catalog.file_path is required for the file driver")
		}
	default:
		result.AddError("catalog.driver must be one of sqlite, postgres, file (got %q)", c.Catalog.Driver)
	}
}

func (c *Config) validateRepo(result *ValidationResult) {
	if c.Repo.Path == "" {
		result.AddError("repo.path is required")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		result.AddWarning("cache.enabled is set but cache.path is empty; caching disabled")
	}
}

func (c *Config) validateTagging(result *ValidationResult) {
	if c.Tagging.Workers < 1 {
		result.AddError("tagging.workers must be at least 1 (got %d)", c.Tagging.Workers)
	}
}

func (c *Config) validateNeo4j(result *ValidationResult) {
	if c.Neo4j.URI == "" {
		result.AddError("NEO4J_URI is required but not set")
	} else if _, err := url.Parse(c.Neo4j.URI); err != nil {
		result.AddError("NEO4J_URI is invalid: %v", err)
	}
	if c.Neo4j.User == "" {
		result.AddError("NEO4J_USER is required but not set")
	}
	if c.Neo4j.Password == "" {
		result.AddError("NEO4J_PASSWORD is required but not set. Set it via environment variable or .env file.")
	}
}
