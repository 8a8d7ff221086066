package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	httpFeedName     = "http"
	httpFetchTimeout = 30 * time.Second
	httpMaxWorkers   = 4
)

// HTTPFeed fetches records per platform from a JSON endpoint:
// GET {base}/{platform}?since=RFC3339 returning a JSON array of records.
type HTTPFeed struct {
	base      string
	platforms []string
	client    *http.Client
	log       logrus.FieldLogger
}

// NewHTTP creates an HTTP feed for the given platforms.
func NewHTTP(base string, platforms []string, log logrus.FieldLogger) (*HTTPFeed, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("http feed: base url is required")
	}
	if len(platforms) == 0 {
		return nil, errors.New("http feed: at least one platform is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTTPFeed{
		base:      strings.TrimRight(base, "/"),
		platforms: platforms,
		client:    &http.Client{Timeout: httpFetchTimeout},
		log:       log,
	}, nil
}

func (h *HTTPFeed) Name() string {
	return httpFeedName
}

// Fetch queries every platform with a small worker pool. A failing platform
// is logged and skipped.
func (h *HTTPFeed) Fetch(ctx context.Context, since time.Time) ([]Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, httpFetchTimeout)
	defer cancel()

	type result struct {
		platform string
		records  []Record
		err      error
	}

	jobs := make(chan string, len(h.platforms))
	results := make(chan result, len(h.platforms))

	workers := httpMaxWorkers
	if len(h.platforms) < workers {
		workers = len(h.platforms)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for platform := range jobs {
				recs, err := h.fetchPlatform(ctx, platform, since)
				results <- result{platform: platform, records: recs, err: err}
			}
		}()
	}

	for _, p := range h.platforms {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		out    []Record
		failed int
	)
	for r := range results {
		if r.err != nil {
			failed++
			h.log.WithField("platform", r.platform).WithError(r.err).Warn("telemetry fetch failed")
			continue
		}
		out = append(out, r.records...)
	}
	if failed == len(h.platforms) {
		return nil, fmt.Errorf("http feed: all %d platforms failed", failed)
	}
	return out, nil
}

func (h *HTTPFeed) fetchPlatform(ctx context.Context, platform string, since time.Time) ([]Record, error) {
	u := fmt.Sprintf("%s/%s?since=%s", h.base, url.PathEscape(platform), url.QueryEscape(since.UTC().Format(time.RFC3339)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %d", platform, resp.StatusCode)
	}

	var raw []Record
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", platform, err)
	}

	out := make([]Record, 0, len(raw))
	for _, r := range raw {
		if r.Source == "" {
			r.Source = httpFeedName
		}
		if r.Platform == "" {
			r.Platform = platform
		}
		if keep(r, since) {
			out = append(out, r)
		}
	}
	return out, nil
}
