// Package email delivers notification digests over SMTP, mirroring the shape
// of the other driven adapters: thin transport, failure reported honestly so
// the batcher never marks a failed batch as sent.
package email

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"RfpFinder/internal/config"
	"RfpFinder/internal/domain"
	"RfpFinder/internal/ports"
)

// Notifier sends multipart text+HTML digest mail.
type Notifier struct {
	cfg  config.SMTPConfig
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the SMTP transport settings.
func NewNotifier(cfg config.SMTPConfig) *Notifier {
	return &Notifier{cfg: cfg, send: smtp.SendMail}
}

// Dispatch renders and sends the digest. Any transport error propagates
// unwrapped in meaning: the batch was not delivered.
func (n *Notifier) Dispatch(ctx context.Context, recipient string, digest domain.Digest) error {
	if n.cfg.Host == "" || n.cfg.From == "" {
		return fmt.Errorf("smtp notifier misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.message(recipient, digest)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("send digest mail: %w", err)
	}

	return nil
}

func (n *Notifier) message(recipient string, digest domain.Digest) ([]byte, error) {
	subject := fmt.Sprintf("SCADA RFP Finder - %d new RFPs found", digest.Total())
	text := RenderText(digest)
	html, err := RenderHTML(digest)
	if err != nil {
		return nil, err
	}

	const boundary = "rfp-digest-boundary"

	var b strings.Builder
	from := n.cfg.From
	if n.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", n.cfg.FromName), n.cfg.From)
	}

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, html)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String()), nil
}
