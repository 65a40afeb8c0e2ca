package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"RfpFinder/internal/config"
	"RfpFinder/internal/domain"
)

func sampleDigest() domain.Digest {
	due := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

	high := domain.Notice{ID: "AZ-RFP-1"}
	high.Title = "Water Treatment Plant SCADA Upgrade"
	high.State = "AZ"
	high.Agency = "City of Mesa"
	high.DueDate = &due
	high.URL = "https://example.gov/rfps/1"
	high.Description = "Replace PLC and HMI systems at the reclamation facility."
	high.RelevanceScore = 85

	low := domain.Notice{ID: "AZ-RFP-2"}
	low.Title = "Pump Maintenance Contract"
	low.State = "AZ"
	low.Agency = "City of Mesa"
	low.RelevanceScore = 30

	return domain.Digest{Notices: []domain.Notice{high}, LowPriority: []domain.Notice{low}, MinScore: 50}
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	text := RenderText(sampleDigest())

	for _, want := range []string{
		"SCADA RFP Finder - 2 new RFPs found",
		"Title: Water Treatment Plant SCADA Upgrade",
		"Due Date: October 1, 2026",
		"Relevance Score: 85",
		"URL: https://example.gov/rfps/1",
		"Lower relevance:",
		"Title: Pump Maintenance Contract",
		"Due Date: n/a",
		strings.Repeat("-", 50),
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text digest missing %q:\n%s", want, text)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	html, err := RenderHTML(sampleDigest())
	if err != nil {
		t.Fatalf("render html: %v", err)
	}

	for _, want := range []string{
		"2 new RFPs found",
		"Water Treatment Plant SCADA Upgrade",
		`<span class="score high">85%</span>`,
		`<span class="score low">30%</span>`,
		`href="https://example.gov/rfps/1"`,
		"<h2>Lower relevance</h2>",
		"October 1, 2026",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html digest missing %q", want)
		}
	}
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	t.Parallel()

	n := domain.Notice{ID: "X-1"}
	n.Title = `<script>alert("x")</script>`
	n.RelevanceScore = 60

	html, err := RenderHTML(domain.Digest{Notices: []domain.Notice{n}})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("scraped title rendered unescaped")
	}
}

func TestExcerptTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 400)
	got := excerpt(long)
	if len(got) != 303 || !strings.HasSuffix(got, "...") {
		t.Fatalf("excerpt length %d, want 300 chars plus ellipsis", len(got))
	}
	if excerpt("short") != "short" {
		t.Fatal("short description must pass through unchanged")
	}
}

func TestExcerptKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	// 299 ASCII bytes followed by a two-byte rune straddling the cut point.
	got := excerpt(strings.Repeat("a", 299) + "é" + strings.Repeat("b", 100))
	if !utf8.ValidString(got) {
		t.Fatalf("excerpt produced invalid UTF-8: %q", got[290:])
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatal("truncated excerpt missing ellipsis")
	}

	multibyte := strings.Repeat("телеметрия ", 40)
	if got := excerpt(multibyte); !utf8.ValidString(got) {
		t.Fatal("multi-byte description truncated mid-rune")
	}
}

func TestDispatchBuildsMultipartMessage(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)

	n := NewNotifier(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "finder@example.com",
		FromName: "RFP Finder",
	})
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := n.Dispatch(context.Background(), "ops@example.com", sampleDigest()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr %q", gotAddr)
	}
	if gotFrom != "finder@example.com" {
		t.Errorf("envelope from %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ops@example.com" {
		t.Errorf("recipients %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"Subject: ",
		"Content-Type: multipart/alternative",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Type: text/html; charset=utf-8",
		"To: ops@example.com",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestDispatchReportsTransportFailure(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "finder@example.com"})
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection reset")
	}

	if err := n.Dispatch(context.Background(), "ops@example.com", sampleDigest()); err == nil {
		t.Fatal("transport failure must propagate")
	}
}

func TestDispatchRejectsMisconfiguration(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.SMTPConfig{})
	if err := n.Dispatch(context.Background(), "ops@example.com", sampleDigest()); err == nil {
		t.Fatal("missing host and from must be rejected")
	}
}
