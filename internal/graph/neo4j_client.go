package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ctag/internal/config"
)

// Client wraps the Neo4j driver used to publish the tag graph
type Client struct {
	driver   neo4j.DriverWithContext
	logger   logrus.FieldLogger
	database string
}

// NewClient connects to Neo4j
// Security: NEVER log the password
func NewClient(ctx context.Context, cfg config.Neo4jConfig, logger logrus.FieldLogger) (*Client, error) {
	if cfg.URI == "" || cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("neo4j credentials missing: uri=%s, user=%s", cfg.URI, cfg.User)
	}
	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = 10
			c.ConnectionAcquisitionTimeout = 30 * time.Second
			c.SocketConnectTimeout = 5 * time.Second
			c.SocketKeepalive = true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	// Verify connectivity (fail fast on startup)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", cfg.URI, err)
	}

	logger = logger.WithField("component", "neo4j")
	logger.WithFields(logrus.Fields{"uri": cfg.URI, "database": database}).Info("neo4j client connected")

	return &Client{driver: driver, logger: logger, database: database}, nil
}

// Close closes the Neo4j driver connection
func (c *Client) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close neo4j driver: %w", err)
	}
	return nil
}

// writeSummary counts what a write query deleted
type writeSummary struct {
	NodesDeleted         int
	RelationshipsDeleted int
}

// write runs one write query against the configured database
func (c *Client) write(ctx context.Context, query string, params map[string]any) (writeSummary, error) {
	result, err := neo4j.ExecuteQuery(ctx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithWritersRouting())
	if err != nil {
		return writeSummary{}, err
	}
	counters := result.Summary.Counters()
	return writeSummary{
		NodesDeleted:         counters.NodesDeleted(),
		RelationshipsDeleted: counters.RelationshipsDeleted(),
	}, nil
}
