package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Keyword catalog source
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`

	// Git repository the commits are read from
	Repo RepoConfig `yaml:"repo" mapstructure:"repo"`

	// Tag result cache
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Optional graph export target
	Neo4j Neo4jConfig `yaml:"neo4j" mapstructure:"neo4j"`

	// Logging
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Tagging engine settings
	Tagging TaggingConfig `yaml:"tagging" mapstructure:"tagging"`
}

type CatalogConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite", "postgres", "file"
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	FilePath    string `yaml:"file_path" mapstructure:"file_path"`
	Strict      bool   `yaml:"strict" mapstructure:"strict"` // Fail on conflicting keyword types
}

type RepoConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri" mapstructure:"uri"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

type TaggingConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // Concurrent commits in batch mode
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Catalog: CatalogConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(homeDir, ".ctag", "catalog.db"),
		},
		Repo: RepoConfig{
			Path: ".",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir, ".ctag", "tags.bolt"),
		},
		Neo4j: Neo4jConfig{
			Database: "neo4j",
		},
		Log: LogConfig{
			Level: "info",
		},
		Tagging: TaggingConfig{
			Workers: 4,
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("catalog.driver", cfg.Catalog.Driver)
	v.SetDefault("catalog.sqlite_path", cfg.Catalog.SQLitePath)
	v.SetDefault("catalog.postgres_dsn", cfg.Catalog.PostgresDSN)
	v.SetDefault("catalog.file_path", cfg.Catalog.FilePath)
	v.SetDefault("catalog.strict", cfg.Catalog.Strict)
	v.SetDefault("repo.path", cfg.Repo.Path)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("neo4j.uri", cfg.Neo4j.URI)
	v.SetDefault("neo4j.user", cfg.Neo4j.User)
	v.SetDefault("neo4j.password", cfg.Neo4j.Password)
	v.SetDefault("neo4j.database", cfg.Neo4j.Database)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.json", cfg.Log.JSON)
	v.SetDefault("tagging.workers", cfg.Tagging.Workers)

	// CTAG_CATALOG_DRIVER overrides catalog.driver, and so on
	v.SetEnvPrefix("CTAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".ctag")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".ctag"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.Catalog.SQLitePath = expandPath(cfg.Catalog.SQLitePath)
	cfg.Catalog.FilePath = expandPath(cfg.Catalog.FilePath)
	cfg.Cache.Path = expandPath(cfg.Cache.Path)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".ctag", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies the unprefixed variables shared with other tools
func applyEnvOverrides(cfg *Config) {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" && cfg.Catalog.PostgresDSN == "" {
		cfg.Catalog.PostgresDSN = dsn
	}
	if uri := os.Getenv("NEO4J_URI"); uri != "" && cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" && cfg.Neo4j.User == "" {
		cfg.Neo4j.User = user
	}
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" && cfg.Neo4j.Password == "" {
		cfg.Neo4j.Password = password
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
