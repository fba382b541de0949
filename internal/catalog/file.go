package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/ctag/internal/logging"
	"github.com/rohankatakam/ctag/internal/models"
)

// Document is the YAML catalog layout:
//
//	projects: [myproj]
//	keywords:
//	  - keyword: requests.get
//	    parent: requests
//	    type: apicall
type Document struct {
	Projects []string            `yaml:"projects,omitempty"`
	Keywords []models.KeywordRow `yaml:"keywords"`
}

// ReadDocument parses a YAML catalog file
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	for i := range doc.Keywords {
		if doc.Keywords[i].Type == 0 {
			doc.Keywords[i].Type = models.KeywordStandard
		}
	}
	return &doc, nil
}

// FileStore keeps the catalog in a YAML file. The file is re-read on every list.
type FileStore struct {
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store over the YAML file at path
func NewFileStore(path string, logger *logrus.Logger) *FileStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) ListKeywords(ctx context.Context) ([]models.KeywordRow, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.Keywords, nil
}

func (f *FileStore) ListProjects(ctx context.Context) ([]string, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.Projects, nil
}

// Import appends to the YAML file, creating it if needed
func (f *FileStore) Import(ctx context.Context, rows []models.KeywordRow, projects []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := &Document{}
	if _, err := os.Stat(f.path); err == nil {
		existing, err := ReadDocument(f.path)
		if err != nil {
			return err
		}
		doc = existing
	}
	doc.Keywords = append(doc.Keywords, rows...)
	doc.Projects = append(doc.Projects, projects...)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("write catalog file: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"path":     f.path,
		"keywords": len(rows),
		"projects": len(projects),
	}).Info("catalog imported")
	return nil
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) read() (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ReadDocument(f.path)
}
