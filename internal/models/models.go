package models

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// KeywordType classifies where a keyword may be matched and whether its
// base tag is emitted on a direct match.
type KeywordType int

const (
	// KeywordStandard can appear in a commit message, a file path or diffed code.
	KeywordStandard KeywordType = 1
	// KeywordAPICall represents a library API call. It is matched in the log
	// and the diff only, and only its parent tags apply.
	KeywordAPICall KeywordType = 2
	// KeywordMapping is never scanned for. It is applied by graph travel
	// from another keyword.
	KeywordMapping KeywordType = 3
)

// String returns the catalog spelling of the type
func (t KeywordType) String() string {
	switch t {
	case KeywordStandard:
		return "standard"
	case KeywordAPICall:
		return "apicall"
	case KeywordMapping:
		return "mapping"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Valid reports whether t is one of the known keyword types
func (t KeywordType) Valid() bool {
	return t == KeywordStandard || t == KeywordAPICall || t == KeywordMapping
}

// ParseKeywordType accepts either the name ("standard", "apicall", "mapping")
// or the numeric catalog value ("1", "2", "3").
func ParseKeywordType(s string) (KeywordType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "1", "":
		return KeywordStandard, nil
	case "apicall", "api", "2":
		return KeywordAPICall, nil
	case "mapping", "3":
		return KeywordMapping, nil
	default:
		return 0, fmt.Errorf("unknown keyword type %q", s)
	}
}

// UnmarshalYAML lets catalog files spell the type by name
func (t *KeywordType) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseKeywordType(node.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML writes the type by name
func (t KeywordType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// KeywordRow is one row of the keyword catalog
type KeywordRow struct {
	Keyword string      `json:"keyword" yaml:"keyword" db:"keyword"`
	Parent  string      `json:"parent,omitempty" yaml:"parent,omitempty" db:"parent"`
	Type    KeywordType `json:"type" yaml:"type" db:"type"`
}

// Commit is the part of a git commit the tagger looks at
type Commit struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Files     []string  `json:"files"`
}

// TagResult is the outcome of tagging one commit
type TagResult struct {
	SHA     string   `json:"sha"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Cached  bool     `json:"cached,omitempty"`
}
