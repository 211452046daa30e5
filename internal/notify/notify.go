// Package notify sends confirmation notices to clients over SMTP.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/diewo77/go-billing/internal/config"
	"gopkg.in/gomail.v2"
)

// DocumentKind selects the wording of a notice.
type DocumentKind string

const (
	KindInvoice   DocumentKind = "invoice"
	KindQuotation DocumentKind = "quotation"
)

// Notice is a confirmation addressed to a client about one document.
type Notice struct {
	To              string
	ClientFirstName string
	DocumentID      string
	SenderName      string
	Kind            DocumentKind
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers notices through an SMTP dialer.
type Mailer struct {
	from    string
	baseURL string
	sender  sender
}

// NewMailer builds a Mailer from the SMTP settings.
func NewMailer(cfg config.MailConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.SkipVerify, //nolint:gosec // opt-in for local relays
	}
	return &Mailer{from: cfg.FromAddress, baseURL: cfg.PublicURL, sender: dialer}
}

var bodyTmpl = template.Must(template.New("notice").Parse(`<p>Bonjour {{.FirstName}},</p>
<p>Votre {{.Noun}} a bien été enregistré{{if .Feminine}}e{{end}}.</p>
<p>Vous pouvez {{if .Feminine}}la{{else}}le{{end}} consulter ici : <a href="{{.Link}}">Voir {{if .Feminine}}la{{else}}le{{end}} {{.Noun}}</a></p>
<p>Cordialement,</p>
<p>{{.Sender}}.</p>
`))

// Subject returns the French subject line for kind.
func Subject(kind DocumentKind) string {
	return "Confirmation de réception de votre " + noun(kind)
}

func noun(kind DocumentKind) string {
	if kind == KindInvoice {
		return "facture"
	}
	return "devis"
}

// Render builds the subject and HTML body of n.
func (m *Mailer) Render(n Notice) (subject, body string, err error) {
	path := "quotations"
	if n.Kind == KindInvoice {
		path = "invoices"
	}
	var buf bytes.Buffer
	err = bodyTmpl.Execute(&buf, map[string]any{
		"FirstName": n.ClientFirstName,
		"Noun":      noun(n.Kind),
		"Feminine":  n.Kind == KindInvoice,
		"Link":      fmt.Sprintf("%s/api/%s/%s/pdf", m.baseURL, path, n.DocumentID),
		"Sender":    n.SenderName,
	})
	if err != nil {
		return "", "", err
	}
	return Subject(n.Kind), buf.String(), nil
}

// Notify sends the confirmation notice.
func (m *Mailer) Notify(ctx context.Context, n Notice) error {
	if n.To == "" {
		return fmt.Errorf("notice for %s %s has no recipient", n.Kind, n.DocumentID)
	}
	subject, body, err := m.Render(n)
	if err != nil {
		return fmt.Errorf("render notice: %w", err)
	}
	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	msg.SetAddressHeader("From", m.from, n.SenderName)
	msg.SetHeader("To", n.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	slog.InfoContext(ctx, "confirmation sent", "kind", n.Kind, "document_id", n.DocumentID)
	return nil
}

// Discard logs notices instead of sending them. Used when SMTP is not configured.
type Discard struct{}

func (Discard) Notify(ctx context.Context, n Notice) error {
	slog.InfoContext(ctx, "mail disabled, notice dropped", "kind", n.Kind, "document_id", n.DocumentID)
	return nil
}
