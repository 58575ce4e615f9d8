package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/creepycrawler/internal/model"
)

// DefaultBaseURL is the Wayback Machine availability endpoint.
const DefaultBaseURL = "https://archive.org/wayback/available"

// DefaultConcurrency is the number of lookups in flight.
const DefaultConcurrency = 4

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 30 * time.Second

// ErrUnexpectedStatus is returned when the API answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status from archive API")

// Client queries the availability API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	concurrency int
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithBaseURL replaces the availability endpoint.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithConcurrency sets how many lookups LookupAll runs at once.
func WithConcurrency(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient returns a Client for the public Wayback Machine.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		baseURL:     DefaultBaseURL,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type availability struct {
	URL               string `json:"url"`
	ArchivedSnapshots struct {
		Closest *struct {
			Status    string `json:"status"`
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Lookup returns the closest archived copy of target, or nil when the
// archive has none.
func (c *Client) Lookup(ctx context.Context, target string) (*model.ArchiveSnapshot, error) {
	q := url.Values{}
	q.Set("url", target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive lookup for %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var body availability
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode archive response: %w", err)
	}
	closest := body.ArchivedSnapshots.Closest
	if closest == nil || !closest.Available || closest.URL == "" {
		return nil, nil //nolint:nilnil // no snapshot is not an error
	}
	return &model.ArchiveSnapshot{
		URL:       closest.URL,
		Timestamp: closest.Timestamp,
		Status:    closest.Status,
	}, nil
}

// LookupAll fills in the Archive field of every dead link, running up to the
// configured number of lookups at once, and returns how many snapshots were
// found. Failed lookups are logged and skipped; only cancellation of ctx is
// returned as an error.
func (c *Client) LookupAll(ctx context.Context, links []model.DeadLink) (int, error) {
	c.logger.Info("looking up archived copies", "links", len(links), "concurrency", c.concurrency)

	var found atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := range links {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap, err := c.Lookup(gctx, links[i].URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("archive lookup failed", "url", links[i].URL, "error", err)
				return nil
			}
			if snap == nil {
				c.logger.Debug("no archived copy", "url", links[i].URL)
				return nil
			}
			links[i].Archive = snap
			found.Add(1)
			c.logger.Debug("archived copy found", "url", links[i].URL, "snapshot", snap.URL)
			return nil
		})
	}

	err := g.Wait()
	return int(found.Load()), err
}
