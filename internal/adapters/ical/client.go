package ical

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"golang.org/x/time/rate"

	"github.com/b-coman/prop-management-sub006/internal/adapters/observability"
	"github.com/b-coman/prop-management-sub006/internal/domain"
)

// maxBodyBytes caps a feed download; hosted calendars are a few hundred KB
// at most.
const maxBodyBytes = 5 << 20

// Client fetches and parses external iCal feeds into occupying intervals.
// Fetching is rate-limited client-side and retried on transient upstream
// failures; parse problems never trigger a retry.
type Client struct {
	hc *http.Client
	rl *rate.Limiter
}

func New(rps int) *Client {
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		hc: &http.Client{Timeout: 20 * time.Second},
		rl: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// FetchEvents downloads the feed and returns its events as {start, end}
// intervals, end exclusive. Network and HTTP failures wrap
// domain.ErrFeedFetch; an unparsable body wraps domain.ErrFeedParse.
func (c *Client) FetchEvents(ctx context.Context, url string) ([]domain.EventInterval, error) {
	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	events, err := parseEvents(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedParse, err)
	}
	return events, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFeedFetch, err)
		}
		req.Header.Set("Accept", "text/calendar, */*")
		req.Header.Set("User-Agent", "prop-management/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.ObserveExternal("ical", "fetch", 0, time.Since(start))
			lastErr = fmt.Errorf("%w: %v", domain.ErrFeedFetch, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return nil, lastErr
		}
		observability.ObserveExternal("ical", "fetch", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: read body: %v", domain.ErrFeedFetch, err)
			}
			return b, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrFeedFetch, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrFeedFetch, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// parseEvents extracts VEVENT intervals from an ICS payload. Booking
// platforms publish plain busy blocks: DATE-valued all-day events whose
// DTEND is already exclusive per RFC 5545. Timed events are reduced to
// their date span; a missing DTEND makes a one-day event.
func parseEvents(body []byte) ([]domain.EventInterval, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var events []domain.EventInterval
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			// Skip the malformed VEVENT, keep the rest of the feed.
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil || !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		events = append(events, domain.EventInterval{Start: start, End: end})
	}
	return events, nil
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date); 0 when absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles per attempt (200ms, 400ms, 800ms...) with up to +50%
// jitter from crypto/rand to avoid thundering herds across feeds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
