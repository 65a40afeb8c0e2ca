package email

import (
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"

	"RfpFinder/internal/domain"
)

const htmlDigest = `<html>
<head>
<style>
  body { font-family: Arial, sans-serif; }
  .rfp { margin-bottom: 20px; border-bottom: 1px solid #ccc; padding-bottom: 20px; }
  .title { font-size: 18px; font-weight: bold; color: #2c3e50; }
  .meta { font-size: 14px; color: #7f8c8d; margin: 5px 0; }
  .score { font-weight: bold; }
  .high { color: #27ae60; }
  .medium { color: #f39c12; }
  .low { color: #e74c3c; }
  .description { font-size: 14px; color: #34495e; margin-top: 10px; }
</style>
</head>
<body>
<h1>SCADA RFP Finder - {{.Total}} new RFPs found</h1>
{{range .Notices}}{{template "notice" .}}{{end}}
{{if .LowPriority}}
<h2>Lower relevance</h2>
{{range .LowPriority}}{{template "notice" .}}{{end}}
{{end}}
</body>
</html>
{{define "notice"}}<div class="rfp">
  <div class="title">{{.Title}}</div>
  <div class="meta">
    <strong>State:</strong> {{.State}} |
    <strong>Agency:</strong> {{.Agency}} |
    <strong>Due:</strong> {{dueDate .}} |
    <strong>Relevance:</strong> <span class="score {{scoreClass .RelevanceScore}}">{{.RelevanceScore}}%</span>
  </div>
  <div class="meta"><a href="{{.URL}}">View RFP Details</a></div>
  <div class="description">{{excerpt .Description}}</div>
</div>{{end}}`

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"dueDate":    formatDueDate,
	"scoreClass": scoreClass,
	"excerpt":    excerpt,
}).Parse(htmlDigest))

// RenderText builds the plain-text alternative body.
func RenderText(digest domain.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SCADA RFP Finder - %d new RFPs found\n\n", digest.Total())

	writeSection := func(notices []domain.Notice) {
		for _, n := range notices {
			fmt.Fprintf(&b, "Title: %s\n", n.Title)
			fmt.Fprintf(&b, "State: %s\n", n.State)
			fmt.Fprintf(&b, "Agency: %s\n", n.Agency)
			fmt.Fprintf(&b, "Due Date: %s\n", formatDueDate(n))
			fmt.Fprintf(&b, "Relevance Score: %d\n", n.RelevanceScore)
			fmt.Fprintf(&b, "URL: %s\n", n.URL)
			fmt.Fprintf(&b, "Description: %s\n\n", excerpt(n.Description))
			b.WriteString(strings.Repeat("-", 50) + "\n\n")
		}
	}

	writeSection(digest.Notices)
	if len(digest.LowPriority) > 0 {
		b.WriteString("Lower relevance:\n\n")
		writeSection(digest.LowPriority)
	}

	return b.String()
}

// RenderHTML builds the HTML alternative body.
func RenderHTML(digest domain.Digest) (string, error) {
	var b strings.Builder
	if err := digestTemplate.Execute(&b, digest); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatDueDate(n domain.Notice) string {
	if n.DueDate == nil {
		return "n/a"
	}
	return n.DueDate.Format("January 2, 2006")
}

func scoreClass(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}

func excerpt(description string) string {
	const limit = 300
	if len(description) <= limit {
		return description
	}

	// Back up to a rune boundary so scraped multi-byte text never truncates
	// into invalid UTF-8.
	cut := limit
	for cut > 0 && !utf8.RuneStart(description[cut]) {
		cut--
	}
	return description[:cut] + "..."
}
