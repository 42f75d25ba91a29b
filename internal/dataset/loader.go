// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/bioscience-explorer/internal/httputil"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// ErrNoSource is returned when no feed location is configured.
var ErrNoSource = errors.New("no dataset source configured")

// Loader fetches the raw publication feed.
type Loader interface {
	Load(ctx context.Context) ([]types.RawRecord, error)
}

// NewLoader picks an HTTPLoader for http(s) sources and a FileLoader for
// anything else.
func NewLoader(cfg types.DatasetConfig) (Loader, error) {
	src := strings.TrimSpace(cfg.Source)
	if src == "" {
		return nil, ErrNoSource
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return &HTTPLoader{
			URL:        src,
			Client:     &http.Client{Timeout: timeout},
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		}, nil
	}
	return &FileLoader{Path: src}, nil
}

// HTTPLoader reads the feed from a URL, retrying on rate limits.
type HTTPLoader struct {
	URL        string
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

func (l *HTTPLoader) Load(ctx context.Context) ([]types.RawRecord, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	body, err := httputil.GetBody(ctx, client, l.URL, l.UserAgent, l.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	return ParseFeed(body)
}

// FileLoader reads the feed from a local JSON file.
type FileLoader struct {
	Path string
}

func (l *FileLoader) Load(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("reading feed %s: %w", l.Path, err)
	}
	return ParseFeed(data)
}

// ParseFeed decodes a JSON array of {Title, Link} objects. The array itself
// must be well formed; an element that is not a valid record becomes an empty
// RawRecord so that positions, and therefore IDs, are preserved.
func ParseFeed(data []byte) ([]types.RawRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	records := make([]types.RawRecord, len(raw))
	for i, msg := range raw {
		var rec types.RawRecord
		if err := json.Unmarshal(msg, &rec); err == nil {
			records[i] = rec
		}
	}
	return records, nil
}
