package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// Ensure MailNotifier implements the interface.
var _ driven.Notifier = (*MailNotifier)(nil)

// SubjectPrefix starts every notification subject.
const SubjectPrefix = "[bookingest]"

// MailConfig holds SMTP settings.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailNotifier emails job outcomes to the job's creator.
type MailNotifier struct {
	cfg  MailConfig
	send sendFunc
	now  func() time.Time
}

// NewMailNotifier creates an SMTP notifier.
func NewMailNotifier(cfg MailConfig) (*MailNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("sender address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &MailNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}, nil
}

var successBody = template.Must(template.New("success").Parse(
	`Volume {{.VolumePID}}{{if .Label}} ({{.Label}}){{end}} has been ingested with {{.Pages}} pages.
{{if .AdminURL}}
Edit:   {{.AdminURL}}{{end}}{{if .ViewerURL}}
View:   {{.ViewerURL}}{{end}}
{{if .Warnings}}
OCR warnings:
{{range .Warnings}}  {{.}}
{{end}}{{end}}`))

var failureBody = template.Must(template.New("failure").Parse(
	`Ingest of {{.Bundle}} failed.

{{.Error}}
`))

// NotifySuccess emails "[bookingest] Ingest complete: {pid}".
func (n *MailNotifier) NotifySuccess(ctx context.Context, notice driven.SuccessNotice) error {
	var body bytes.Buffer
	if err := successBody.Execute(&body, notice); err != nil {
		return fmt.Errorf("rendering success mail: %w", err)
	}
	return n.deliver(ctx, notice.Creator.Email, SuccessSubject(notice.VolumePID), body.String())
}

// NotifyFailure emails "[bookingest] Failed: Ingest {bundle}".
func (n *MailNotifier) NotifyFailure(ctx context.Context, notice driven.FailureNotice) error {
	var body bytes.Buffer
	if err := failureBody.Execute(&body, notice); err != nil {
		return fmt.Errorf("rendering failure mail: %w", err)
	}
	return n.deliver(ctx, notice.Creator.Email, FailureSubject(notice.Bundle), body.String())
}

// SuccessSubject is the subject of a success notification.
func SuccessSubject(pid string) string {
	return SubjectPrefix + " Ingest complete: " + pid
}

// FailureSubject is the subject of a failure notification.
func FailureSubject(bundle string) string {
	return SubjectPrefix + " Failed: Ingest " + bundle
}

func (n *MailNotifier) deliver(ctx context.Context, to, subject, body string) error {
	if to == "" {
		logger.Debug("No recipient for %q, mail not sent", subject)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	if err := n.send(addr, auth, n.cfg.From, []string{to}, n.message(to, subject, body)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	logger.Info("Mailed %s: %s", to, subject)
	return nil
}

func (n *MailNotifier) message(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
