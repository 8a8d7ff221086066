package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const fileFeedName = "file"

// FileFeed reads a JSON array of records from disk.
type FileFeed struct {
	path string
}

// NewFile creates a file feed.
func NewFile(path string) (*FileFeed, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file feed: path is required")
	}
	return &FileFeed{path: path}, nil
}

func (f *FileFeed) Name() string {
	return fileFeedName
}

func (f *FileFeed) Fetch(_ context.Context, since time.Time) ([]Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("file feed: read: %w", err)
	}

	var raw []Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("file feed: decode: %w", err)
	}

	out := make([]Record, 0, len(raw))
	for _, r := range raw {
		if r.Source == "" {
			r.Source = fileFeedName
		}
		if keep(r, since) {
			out = append(out, r)
		}
	}
	return out, nil
}
