package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const acceptDocument = "application/yaml, application/x-yaml, application/json;q=0.9, */*;q=0.5"

// errBodyTooLarge is returned when a response exceeds Settings.MaxBodyBytes.
var errBodyTooLarge = errors.New("document exceeds size limit")

type fetcher struct {
	client   *http.Client
	settings Settings
}

func newFetcher(settings Settings) *fetcher {
	return &fetcher{client: &http.Client{Timeout: settings.HTTPTimeout}, settings: settings}
}

// get downloads rawURL, retrying transient failures with exponential
// backoff. A Retry-After header in seconds replaces the computed delay.
func (f *fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	attempts := max(f.settings.MaxRetries, 1)
	delay := f.settings.BackoffBase
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		body, wait, err := f.once(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if wait < 0 {
			return nil, err
		}
		lastErr = err
		if attempt >= attempts {
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
		}
		if wait == 0 {
			wait = delay
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// once performs one GET. wait is negative for permanent failures, the
// server's Retry-After when it sent one, and zero otherwise.
func (f *fetcher) once(ctx context.Context, rawURL string) (body []byte, wait time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("Accept", acceptDocument)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, err
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		body, err := f.readBody(resp.Body)
		if err != nil {
			return nil, -1, err
		}
		return body, 0, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, retryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, -1, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func (f *fetcher) readBody(r io.Reader) ([]byte, error) {
	limit := f.settings.MaxBodyBytes
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", errBodyTooLarge, limit)
	}
	return body, nil
}

// retryAfter parses a delay-seconds Retry-After value. HTTP dates and
// garbage yield zero.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
