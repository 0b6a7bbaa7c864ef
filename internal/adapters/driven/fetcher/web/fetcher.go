// Package web fetches source pages over HTTP with per-source rate limiting
// and bounded retries.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

const (
	// DefaultUserAgent identifies the crawler to source sites.
	DefaultUserAgent = "sercha-kb/1.0 (+https://github.com/custodia-labs/sercha-kb)"

	// DefaultBackoffBase is the delay before the first retry.
	DefaultBackoffBase = 200 * time.Millisecond

	// DefaultMaxBackoff caps the delay between retries.
	DefaultMaxBackoff = 5 * time.Second

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// MaxBodySize is the largest page accepted.
	MaxBodySize = 10 << 20

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// Fetcher retrieves pages for the ingestion pipeline.
// It implements the driven.Fetcher interface and is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	backoffBase time.Duration
	maxBackoff  time.Duration
	maxBody     int64
	limiters    *limiters
	metrics     driven.Metrics
}

var _ driven.Fetcher = (*Fetcher)(nil)

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithBackoff sets the retry delay base and ceiling.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(f *Fetcher) {
		if base > 0 {
			f.backoffBase = base
		}
		if ceiling > 0 {
			f.maxBackoff = ceiling
		}
	}
}

// WithMaxBodySize sets the largest accepted response body.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m driven.Metrics) Option {
	return func(f *Fetcher) {
		if m != nil {
			f.metrics = m
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		userAgent:   DefaultUserAgent,
		backoffBase: DefaultBackoffBase,
		maxBackoff:  DefaultMaxBackoff,
		maxBody:     MaxBodySize,
		limiters:    newLimiters(),
		metrics:     driven.NopMetrics{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// statusError is a non-2xx response.
type statusError struct {
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

// Fetch GETs pageURL, waiting on the source's rate limiter before every attempt.
// Network errors, 429 and 5xx are retried until the source's attempt budget is
// spent. Other failures return immediately.
func (f *Fetcher) Fetch(ctx context.Context, source domain.Source, pageURL string) ([]byte, error) {
	limiter := f.limiters.get(source)
	attempts := source.EffectiveRetryAttempts()

	var (
		lastErr error
		delay   time.Duration
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			logger.Debug("fetch %s: retry %d/%d in %s", pageURL, attempt+1, attempts, delay)
			if err := sleep(ctx, delay); err != nil {
				return nil, f.fail(source, pageURL, attempt, err)
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, f.fail(source, pageURL, attempt, err)
		}

		body, err := f.get(ctx, pageURL)
		if err == nil {
			f.metrics.FetchAttempt(source.ID, "ok")
			return body, nil
		}
		lastErr = err

		if !transient(ctx, err) {
			return nil, f.fail(source, pageURL, attempt+1, err)
		}
		f.metrics.FetchAttempt(source.ID, "retry")
		logger.Warn("fetch %s: attempt %d/%d failed: %v", pageURL, attempt+1, attempts, err)

		delay = f.backoff(attempt)
		var se *statusError
		if errors.As(err, &se) && se.retryAfter > 0 {
			delay = se.retryAfter
		}
	}

	return nil, f.fail(source, pageURL, attempts, lastErr)
}

func (f *Fetcher) fail(source domain.Source, pageURL string, attempts int, err error) error {
	f.metrics.FetchAttempt(source.ID, "error")
	fe := &domain.FetchError{
		SourceID: source.ID,
		URL:      pageURL,
		Attempts: attempts,
		Err:      err,
	}
	var se *statusError
	if errors.As(err, &se) {
		fe.StatusCode = se.code
	}
	return fe
}

func (f *Fetcher) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &statusError{
			code:       resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get(HeaderRetryAfter)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, errBodyTooLarge
	}
	return body, nil
}

var errBodyTooLarge = errors.New("response body too large")

// backoff returns base << attempt, capped.
func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.backoffBase
	for i := 0; i < attempt && d < f.maxBackoff; i++ {
		d *= 2
	}
	if d > f.maxBackoff {
		d = f.maxBackoff
	}
	return d
}

// transient reports whether a failed attempt is worth retrying.
func transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, errBodyTooLarge) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Transport failures: connection refused, reset, timeouts.
	return true
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
