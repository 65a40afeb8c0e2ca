package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RfpFinder/internal/collector"
	"RfpFinder/internal/domain"
)

// defaultSearchTerms seed the federal portal keyword search. Searching is
// recall-only: the classifier downstream decides what is actually relevant.
var defaultSearchTerms = []string{
	"scada", "plc", "hmi", "rtu", "dcs",
	"automation", "control system", "supervisory control",
	"remote monitoring", "building automation", "hvac control",
}

// SAMGovCollector harvests opportunity listings from the federal portal's
// keyword search pages.
type SAMGovCollector struct {
	fetch fetcher
}

var _ collector.Collector = (*SAMGovCollector)(nil)

// NewSAMGovCollector wires an HTTP client and the inter-request delay.
func NewSAMGovCollector(client *http.Client, delay time.Duration) *SAMGovCollector {
	return &SAMGovCollector{fetch: newFetcher(client, delay)}
}

// Name identifies the strategy inside the registry.
func (s *SAMGovCollector) Name() string {
	return "samgov"
}

// Collect runs every configured search term and aggregates unique candidates.
// A term whose page fails to load is skipped; the pass only errors when no
// term produced a page at all.
func (s *SAMGovCollector) Collect(ctx context.Context, req collector.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("source %s: no base url configured", req.SourceName)
	}

	terms := defaultSearchTerms
	if custom := req.Options["keywords"]; custom != "" {
		terms = splitTerms(custom)
	}

	var (
		candidates []domain.Candidate
		seen       = map[string]struct{}{}
		pagesOK    int
		lastErr    error
	)

	for i, term := range terms {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}
		if i > 0 {
			s.fetch.pause(ctx)
		}

		doc, err := s.fetch.document(ctx, searchURL(req.URL, term))
		if err != nil {
			lastErr = err
			continue
		}
		pagesOK++

		for _, cand := range s.extract(doc, req.URL, req.State) {
			if _, ok := seen[cand.NativeID]; ok {
				continue
			}
			seen[cand.NativeID] = struct{}{}
			candidates = append(candidates, cand)
		}
	}

	if pagesOK == 0 && lastErr != nil {
		return nil, fmt.Errorf("source %s: every search failed: %w", req.SourceName, lastErr)
	}

	return candidates, nil
}

func (s *SAMGovCollector) extract(doc *goquery.Document, baseURL, state string) []domain.Candidate {
	var out []domain.Candidate

	doc.Find(".search-result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("a[href*='/opp/']").First()
		href, _ := link.Attr("href")
		noticeID := noticeIDFromHref(href)
		title := collapseWhitespace(link.Text())
		if noticeID == "" || title == "" {
			return
		}

		agency := collapseWhitespace(sel.Find(".agency").First().Text())
		if agency == "" {
			agency = "Federal Government"
		}

		out = append(out, domain.Candidate{
			Title:           title,
			Description:     collapseWhitespace(sel.Find(".description").First().Text()),
			Agency:          agency,
			State:           state,
			PublicationDate: parseDate(sel.Find(".posted-date").First().Text()),
			DueDate:         parseDate(sel.Find(".response-date").First().Text()),
			URL:             strings.TrimSuffix(baseURL, "/") + "/opp/" + noticeID + "/view",
			NativeID:        noticeID,
		})
	})

	return out
}

// noticeIDFromHref pulls the opportunity id out of links shaped like
// /opp/{id}/view.
func noticeIDFromHref(href string) string {
	const marker = "/opp/"
	idx := strings.Index(href, marker)
	if idx < 0 {
		return ""
	}

	rest := href[idx+len(marker):]
	if end := strings.IndexByte(rest, '/'); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func searchURL(base, term string) string {
	return strings.TrimSuffix(base, "/") + "/search/results?keywords=" + url.QueryEscape(term)
}

func splitTerms(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
