package intake

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"contentsbuilder/internal/items"
)

// Candidate is a piece of content offered to the intake queue.
type Candidate struct {
	SourceID    string `yaml:"source_id" json:"source_id"`
	Title       string `yaml:"title" json:"title"`
	URL         string `yaml:"url" json:"url"`
	PublishedAt string `yaml:"published_at,omitempty" json:"published_at,omitempty"`
	Snippet     string `yaml:"snippet,omitempty" json:"snippet,omitempty"`
}

// File is the document accepted by `intake import`. JSON documents parse
// through the same decoder since YAML is a superset of JSON.
type File struct {
	Sources []items.Source `yaml:"sources" json:"sources"`
	Items   []Candidate    `yaml:"items" json:"items"`
}

var publishedLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Published parses PublishedAt. An empty value yields the zero time.
func (c Candidate) Published() (time.Time, error) {
	raw := strings.TrimSpace(c.PublishedAt)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("published_at %q: unrecognized time format", raw)
}

// LoadFile reads and parses an import document.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read import file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile parses an import document. Unknown keys are rejected so typos
// surface instead of silently dropping fields.
func ParseFile(data []byte) (File, error) {
	var file File
	if len(bytes.TrimSpace(data)) == 0 {
		return file, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return File{}, fmt.Errorf("parse import file: %w", err)
	}
	for i, src := range file.Sources {
		if strings.TrimSpace(src.SourceID) == "" {
			return File{}, fmt.Errorf("parse import file: sources[%d]: source_id is required", i)
		}
	}
	return file, nil
}
