package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"RfpFinder/internal/collector"
	"RfpFinder/internal/domain"
)

const (
	// Link-following bounds guarantee termination on arbitrary third-party
	// sites: at most maxDepth hops from the listing page, and at most
	// maxLinksPerPage followed links on any single page.
	maxDepth        = 2
	maxLinksPerPage = 10

	maxDescriptionLen = 1000
)

// procurementLinkExpr matches anchor text that looks like a procurement
// notice on a generic municipal site.
var procurementLinkExpr = regexp.MustCompile(`(?i)\b(rfp|rfq|bid|proposal|solicitation|procurement)\b`)

// MunicipalCollector is the generic collector for municipal procurement
// pages: find procurement-looking links on the listing page, follow each to
// pull a description, and emit one candidate per link. Municipal sites rarely
// expose native ids, so candidates lean on the URL-hash identity fallback.
type MunicipalCollector struct {
	fetch fetcher
}

var _ collector.Collector = (*MunicipalCollector)(nil)

// NewMunicipalCollector wires an HTTP client and the inter-request delay.
func NewMunicipalCollector(client *http.Client, delay time.Duration) *MunicipalCollector {
	return &MunicipalCollector{fetch: newFetcher(client, delay)}
}

// Name identifies the strategy inside the registry.
func (m *MunicipalCollector) Name() string {
	return "municipal"
}

// Collect walks the listing page and up to maxDepth levels of linked detail
// pages. A detail page that fails to load still yields a candidate from the
// listing-page link text alone.
func (m *MunicipalCollector) Collect(ctx context.Context, req collector.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("source %s: no url configured", req.SourceName)
	}

	doc, err := m.fetch.document(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", req.SourceName, err)
	}

	agency := req.Options["agency"]
	if agency == "" {
		agency = req.SourceName
	}

	var candidates []domain.Candidate
	seen := map[string]struct{}{}

	for _, link := range m.procurementLinks(doc, req.URL) {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}
		if _, ok := seen[link.url]; ok {
			continue
		}
		seen[link.url] = struct{}{}

		cand := domain.Candidate{
			Title:  link.title,
			Agency: agency,
			State:  req.State,
			URL:    link.url,
		}

		m.fetch.pause(ctx)
		if detail, err := m.fetch.document(ctx, link.url); err == nil {
			m.enrich(ctx, &cand, detail, 1)
		}

		candidates = append(candidates, cand)
	}

	return candidates, nil
}

type pageLink struct {
	title string
	url   string
}

func (m *MunicipalCollector) procurementLinks(doc *goquery.Document, base string) []pageLink {
	var links []pageLink

	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(links) >= maxLinksPerPage {
			return false
		}

		title := collapseWhitespace(sel.Text())
		href, ok := sel.Attr("href")
		if !ok || title == "" || !procurementLinkExpr.MatchString(title) {
			return true
		}
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			return true
		}

		links = append(links, pageLink{title: title, url: absoluteURL(base, href)})
		return true
	})

	return links
}

// enrich fills the candidate's description (and dates, when the page labels
// them) from a detail page, recursing at most once more for "details" links.
func (m *MunicipalCollector) enrich(ctx context.Context, cand *domain.Candidate, doc *goquery.Document, depth int) {
	if cand.Description == "" {
		cand.Description = pageDescription(doc)
	}
	if cand.DueDate == nil {
		cand.DueDate = labeledDate(doc, "due", "closing", "deadline")
	}
	if cand.PublicationDate == nil {
		cand.PublicationDate = labeledDate(doc, "posted", "published", "issued")
	}

	if depth >= maxDepth || cand.Description != "" {
		return
	}

	// One more hop at most: some sites put the notice body behind a
	// "view details" link on the intermediate page.
	more, ok := doc.Find("a:contains('Details'), a:contains('details')").First().Attr("href")
	if !ok {
		return
	}

	m.fetch.pause(ctx)
	if detail, err := m.fetch.document(ctx, absoluteURL(cand.URL, more)); err == nil {
		m.enrich(ctx, cand, detail, depth+1)
	}
}

func pageDescription(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := collapseWhitespace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
		return len(strings.Join(parts, " ")) < maxDescriptionLen
	})

	text := strings.Join(parts, " ")
	if len(text) > maxDescriptionLen {
		cut := maxDescriptionLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

var embeddedDateExpr = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|[A-Z][a-z]+ \d{1,2}, \d{4}`)

func labeledDate(doc *goquery.Document, labels ...string) *time.Time {
	var found *time.Time

	doc.Find("td, dd, span, div, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := collapseWhitespace(sel.Text())
		lower := strings.ToLower(text)
		for _, label := range labels {
			if !strings.Contains(lower, label) {
				continue
			}
			if t := parseDate(embeddedDateExpr.FindString(text)); t != nil {
				found = t
				return false
			}
		}
		return true
	})

	return found
}
