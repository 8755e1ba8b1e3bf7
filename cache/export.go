package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportVersion is written into every export.
const ExportVersion = "2.0"

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ExportFormat is the document written by Export and read by Import.
type ExportFormat struct {
	Version    string            `json:"version" yaml:"version"`
	ExportedAt string            `json:"exported_at" yaml:"exported_at"`
	Entries    []Entry           `json:"entries" yaml:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Exporter writes a store's fresh entries to a file or stream.
type Exporter struct {
	store *Store
}

// NewExporter creates a new cache exporter.
func NewExporter(store *Store) *Exporter {
	return &Exporter{store: store}
}

// Export writes the cache contents to w. Metadata typically records the
// target language, since keys do not carry it.
func (e *Exporter) Export(w io.Writer, format Format, metadata map[string]string) error {
	entries, err := e.store.Entries()
	if err != nil {
		return fmt.Errorf("getting cache entries: %w", err)
	}

	export := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(export); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	}
}

// ExportToFile exports the cache to a file, choosing the format from the
// extension.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(f, FormatFromPath(path), metadata)
}

// Importer loads exported entries into a store.
type Importer struct {
	store *Store
}

// NewImporter creates a new cache importer.
func NewImporter(store *Store) *Importer {
	return &Importer{store: store}
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Expired  int
	Failed   int
}

// Import reads entries from r and stores them with their original
// timestamps. Entries already past the store's TTL are counted and skipped.
func (i *Importer) Import(r io.Reader, format Format) (*ImportResult, error) {
	var export ExportFormat
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&export); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&export); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	for _, entry := range export.Entries {
		if i.store.expired(entry) {
			result.Expired++
			continue
		}
		if err := i.store.SetEntry(entry); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports cache entries from a file, choosing the format
// from the extension.
func (i *Importer) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(f, FormatFromPath(path))
}
