// Package source holds the thin, per-portal collectors. Their only contract
// with the core is "produce candidate records"; classification and final ids
// happen downstream. Each collector owns its politeness policy: request
// timeouts, randomized inter-request delays, and bounded link following.
package source

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "RfpFinder/1.0"

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 02, 2006",
	time.RFC3339,
}

// fetcher wraps the shared HTTP plumbing: UA header, status checks, goquery
// parsing, and a jittered pause between requests to the same host.
type fetcher struct {
	client *http.Client
	delay  time.Duration
}

func newFetcher(client *http.Client, delay time.Duration) fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return fetcher{client: client, delay: delay}
}

func (f fetcher) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// pause sleeps for a randomized interval around the configured delay, bailing
// out early on cancellation. A zero delay skips the pause entirely.
func (f fetcher) pause(ctx context.Context) {
	if f.delay <= 0 {
		return
	}

	jittered := f.delay/2 + time.Duration(rand.Int63n(int64(f.delay)))
	select {
	case <-time.After(jittered):
	case <-ctx.Done():
	}
}

// parseDate tries the formats government portals actually publish.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}

	return nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
