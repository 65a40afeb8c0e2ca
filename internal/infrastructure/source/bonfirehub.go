package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RfpFinder/internal/collector"
	"RfpFinder/internal/domain"
)

var opportunityPathExpr = regexp.MustCompile(`/opportunities/(\d+)`)

// BonfirehubCollector harvests the opportunity list of a state Bonfire portal.
// Each opportunity carries a stable numeric id in its URL, which becomes the
// candidate's native id.
type BonfirehubCollector struct {
	fetch fetcher
}

var _ collector.Collector = (*BonfirehubCollector)(nil)

// NewBonfirehubCollector wires an HTTP client and the inter-request delay.
func NewBonfirehubCollector(client *http.Client, delay time.Duration) *BonfirehubCollector {
	return &BonfirehubCollector{fetch: newFetcher(client, delay)}
}

// Name identifies the strategy inside the registry.
func (b *BonfirehubCollector) Name() string {
	return "bonfirehub"
}

// Collect parses the portal's opportunity list page.
func (b *BonfirehubCollector) Collect(ctx context.Context, req collector.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("source %s: no url configured", req.SourceName)
	}

	doc, err := b.fetch.document(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", req.SourceName, err)
	}

	agency := req.Options["agency"]
	if agency == "" {
		agency = req.SourceName
	}

	var (
		candidates []domain.Candidate
		seen       = map[string]struct{}{}
	)

	doc.Find("a[href*='/opportunities/']").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := opportunityPathExpr.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		if _, ok := seen[id]; ok {
			return
		}

		title := collapseWhitespace(link.Text())
		if title == "" {
			return
		}
		seen[id] = struct{}{}

		row := link.Closest("tr, li, .opportunity")
		candidates = append(candidates, domain.Candidate{
			Title:           title,
			Description:     collapseWhitespace(row.Find(".description").First().Text()),
			Agency:          agency,
			State:           req.State,
			PublicationDate: parseDate(row.Find(".open-date").First().Text()),
			DueDate:         parseDate(row.Find(".close-date").First().Text()),
			URL:             absoluteURL(req.URL, href),
			NativeID:        id,
		})
	})

	return candidates, nil
}

func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
