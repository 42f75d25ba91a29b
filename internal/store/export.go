// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Publications []types.Publication `json:"publications" yaml:"publications"`
	Insights     []StoredInsight     `json:"insights" yaml:"insights"`
}

// ExportLimit caps the rows read by a full export.
const ExportLimit = 100000

// WriteExport writes publications matching opts and all insights to w. A
// non-positive opts.MaxResults exports every matching publication.
func (s *Store) WriteExport(ctx context.Context, opts QueryOptions, format string, w io.Writer) error {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return err
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}

// ExportYAML writes the store to dataDir/export.yaml and returns the path.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	return s.exportFile(ctx, opts, FormatYAML)
}

// ExportJSON writes the store to dataDir/export.json and returns the path.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	return s.exportFile(ctx, opts, FormatJSON)
}

func (s *Store) exportFile(ctx context.Context, opts QueryOptions, format string) (string, error) {
	path := filepath.Join(s.dataDir, "export."+format)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := s.WriteExport(ctx, opts, format, f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func (s *Store) export(ctx context.Context, opts QueryOptions) (Export, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = ExportLimit
	}
	pubs, err := s.QueryPublications(ctx, opts)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	insights, err := s.ListInsights(ctx, "", ExportLimit)
	if err != nil {
		return Export{}, fmt.Errorf("listing insights for export: %w", err)
	}
	if pubs == nil {
		pubs = []types.Publication{}
	}
	if insights == nil {
		insights = []StoredInsight{}
	}
	return Export{Publications: pubs, Insights: insights}, nil
}
