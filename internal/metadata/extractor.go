// Package metadata scrapes a web page for a human-usable title, description
// and favicon.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/keepmark/internal/logger"
)

const (
	// Untitled is the title returned when no source yields one.
	Untitled = "Untitled"

	DefaultTimeout      = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultMaxBodyBytes = 2 << 20
)

// Result is the outcome of an extraction. Title is never empty.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Favicon     string `json:"favicon"`
	URL         string `json:"url"`
}

// defaultResult is what every failure collapses to.
func defaultResult(normalizedURL string) Result {
	return Result{Title: Untitled, URL: normalizedURL}
}

// EnrichmentFailure describes why a page could not be scraped.
type EnrichmentFailure struct {
	URL   string
	Stage string // request | fetch | status | content-type | parse
	Err   error
}

func (e *EnrichmentFailure) Error() string {
	return fmt.Sprintf("metadata %s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *EnrichmentFailure) Unwrap() error { return e.Err }

// Options configures an Extractor. Zero values fall back to the defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Client       *http.Client // optional, mainly for tests
}

// Extractor fetches pages and extracts metadata. It holds no per-call state
// and is safe for concurrent use.
type Extractor struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
	logger       logger.Logger
}

// NewExtractor builds an Extractor from opts.
func NewExtractor(opts Options, log logger.Logger) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Extractor{
		client:       client,
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       log,
	}
}

// NormalizeURL prepends https:// when raw has no explicit http(s) scheme.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// Extract fetches rawURL once and returns its metadata. It never fails:
// any error is logged and the default result is returned instead.
func (e *Extractor) Extract(ctx context.Context, rawURL string) Result {
	target := NormalizeURL(rawURL)

	res, err := e.extract(ctx, target)
	if err != nil {
		e.logger.Warn("metadata extraction failed, using defaults",
			logger.String("url", target),
			logger.Error(err))
		return defaultResult(target)
	}

	e.logger.Debug("metadata extracted",
		logger.String("url", target),
		logger.String("title", res.Title),
		logger.Bool("has_favicon", res.Favicon != ""))
	return res
}

func (e *Extractor) extract(ctx context.Context, target string) (Result, error) {
	fail := func(stage string, err error) (Result, error) {
		return Result{}, &EnrichmentFailure{URL: target, Stage: stage, Err: err}
	}

	// A malformed origin is one more path to the default result.
	origin, err := originOf(target)
	if err != nil {
		return fail("request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail("request", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return fail("fetch", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail("status", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTML(ct) {
		return fail("content-type", fmt.Errorf("not an html document: %s", ct))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, e.maxBodyBytes))
	if err != nil {
		return fail("parse", err)
	}

	page := scan(doc)
	res := Result{
		Title:       page.title(),
		Description: page.description(),
		Favicon:     resolveFavicon(origin, page.favicon()),
		URL:         target,
	}
	return res, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// originOf returns scheme://host for u.
func originOf(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url has no host: %q", u)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

// resolveFavicon makes a relative favicon path absolute against origin.
// Values already starting with "http" are returned unchanged.
func resolveFavicon(origin, favicon string) string {
	if favicon == "" || strings.HasPrefix(favicon, "http") {
		return favicon
	}
	if strings.HasPrefix(favicon, "/") {
		return origin + favicon
	}
	return origin + "/" + favicon
}
