package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wudi/annokit/observability"
	"github.com/wudi/annokit/store"
)

// Client talks to the annotation backend. Saves de-duplicate against ids the
// server already knows and against content fingerprints for id-less shapes,
// so repeated saves never double-submit. Local state is never mutated by a
// failed remote call.
type Client struct {
	baseURL string
	pdfID   string
	http    *http.Client
	logger  observability.Logger

	knownIDs     map[string]bool
	fingerprints map[string]bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger injects a logger.
func WithLogger(l observability.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client for one document.
func NewClient(baseURL, pdfID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		pdfID:        pdfID,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       observability.NopLogger{},
		knownIDs:     make(map[string]bool),
		fingerprints: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(action string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)
	return c.baseURL + "?" + params.Encode()
}

func (c *Client) postJSON(ctx context.Context, action string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("persist: encode %s: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(action, nil), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("persist: build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("persist: %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("persist: %s: unexpected status %d", action, resp.StatusCode)
	}
	return nil
}

// Fetch loads every stored annotation. Unknown shape types are logged and
// skipped; they never fail the load.
func (c *Client) Fetch(ctx context.Context) ([]store.Annotation, error) {
	params := url.Values{}
	params.Set("pdf_id", c.pdfID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("get-annotations", params), nil)
	if err != nil {
		return nil, fmt.Errorf("persist: build fetch request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("persist: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("persist: fetch: unexpected status %d", resp.StatusCode)
	}

	var payload fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("persist: decode fetch response: %w", err)
	}

	var out []store.Annotation
	for _, page := range payload.Pages {
		for _, shape := range page.Shapes {
			a, ok := FromShape(page.PageNumber, shape)
			if !ok {
				c.logger.Warn("skipping unsupported shape",
					observability.String("type", shape.Type),
					observability.Int("page", page.PageNumber))
				continue
			}
			if shape.ID != "" {
				c.knownIDs[shape.ID] = true
			}
			c.fingerprints[Fingerprint(shape)] = true
			out = append(out, a)
		}
	}
	return out, nil
}

// SaveSummary reports the outcome of a save sweep across pages.
type SaveSummary struct {
	Saved   int
	Skipped int
	// PageErrors maps failed page numbers to their error text. Failures do
	// not roll back local edits.
	PageErrors map[int]string
}

// Err condenses the per-page failures into a single error, nil when all
// pages saved.
func (s SaveSummary) Err() error {
	if len(s.PageErrors) == 0 {
		return nil
	}
	pages := make([]int, 0, len(s.PageErrors))
	for p := range s.PageErrors {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return fmt.Errorf("persist: save failed for %d page(s): %v", len(pages), pages)
}

// SaveAll pushes the given annotations page by page, skipping anything the
// server already has by id or content fingerprint. One page failing does not
// stop the others.
func (c *Client) SaveAll(ctx context.Context, annotations []store.Annotation) SaveSummary {
	start := time.Now()
	byPage := map[int][]Shape{}
	summary := SaveSummary{PageErrors: map[int]string{}}

	for _, a := range annotations {
		shape, ok := ToShape(a)
		if !ok {
			continue
		}
		if shape.ID != "" && c.knownIDs[shape.ID] {
			summary.Skipped++
			continue
		}
		if fp := Fingerprint(shape); fp != "" && c.fingerprints[fp] {
			summary.Skipped++
			continue
		}
		byPage[a.PageNumber] = append(byPage[a.PageNumber], shape)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	for _, page := range pages {
		shapes := byPage[page]
		err := c.postJSON(ctx, "store-anotation", storeRequest{
			PDFID:      c.pdfID,
			PageNumber: page,
			Shapes:     shapes,
		})
		if err != nil {
			summary.PageErrors[page] = err.Error()
			continue
		}
		summary.Saved += len(shapes)
		for _, s := range shapes {
			if s.ID != "" {
				c.knownIDs[s.ID] = true
			}
			if fp := Fingerprint(s); fp != "" {
				c.fingerprints[fp] = true
			}
		}
	}

	c.logger.Info("save sweep finished",
		observability.Int("saved", summary.Saved),
		observability.Int(observability.MetricSaveSkipped, summary.Skipped),
		observability.Int("failed_pages", len(summary.PageErrors)),
		observability.Int64(observability.MetricSaveTime, time.Since(start).Milliseconds()))
	return summary
}

// Delete removes one annotation server-side.
func (c *Client) Delete(ctx context.Context, annotationID string) error {
	if err := c.postJSON(ctx, "delete-annotation", deleteRequest{HighlightID: annotationID}); err != nil {
		return err
	}
	delete(c.knownIDs, annotationID)
	return nil
}

// UpdateComment edits a stored comment's text.
func (c *Client) UpdateComment(ctx context.Context, annotationID, highlightID, text string) error {
	return c.postJSON(ctx, "update-store-coment", updateCommentRequest{
		AnnotationID: annotationID,
		HighlightID:  highlightID,
		Text:         text,
	})
}
