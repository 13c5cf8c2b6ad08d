// Package mailer delivers rendered reports over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wneessen/go-mail"

	"github.com/joefrost01/batch-report/pkg/config"
	"github.com/joefrost01/batch-report/pkg/logger"
)

// ErrNoRecipients is returned by Send when no recipient is configured
var ErrNoRecipients = errors.New("no mail recipients configured")

// InlineImage is an attachment referenced from the HTML body as cid:<ContentID>
type InlineImage struct {
	ContentID string
	FileName  string
	Data      []byte
}

// Message is one outgoing HTML email
type Message struct {
	Subject string
	HTML    []byte
	Inline  []InlineImage
}

// SMTPMailer sends messages through the configured SMTP relay
type SMTPMailer struct {
	cfg config.MailConfig
	log *logger.Logger
}

// New creates an SMTPMailer. Nothing is dialled until Send.
func New(cfg config.MailConfig, log *logger.Logger) *SMTPMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &SMTPMailer{cfg: cfg, log: log.Component("mailer")}
}

// Recipients returns the configured To list
func (m *SMTPMailer) Recipients() []string {
	out := make([]string, len(m.cfg.Recipients))
	copy(out, m.cfg.Recipients)
	return out
}

// Send builds msg and delivers it in a single SMTP session
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(m.cfg.Recipients) == 0 {
		return ErrNoRecipients
	}

	built, err := m.build(msg)
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return err
	}

	if m.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.SendTimeout)
		defer cancel()
	}

	if err := client.DialAndSendWithContext(ctx, built); err != nil {
		return fmt.Errorf("send mail via %s:%d: %w", m.cfg.Host, m.cfg.Port, err)
	}

	m.log.WithFields(map[string]interface{}{
		"subject":    msg.Subject,
		"recipients": len(m.cfg.Recipients),
	}).Info("Report email sent")
	return nil
}

// WriteEML writes msg as an RFC 5322 message. Recipients are optional here.
func (m *SMTPMailer) WriteEML(w io.Writer, msg Message) error {
	built, err := m.build(msg)
	if err != nil {
		return err
	}
	if _, err := built.WriteTo(w); err != nil {
		return fmt.Errorf("write eml: %w", err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()

	if err := out.FromFormat(m.cfg.FromName, m.cfg.FromAddress); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", m.cfg.FromAddress, err)
	}
	if len(m.cfg.Recipients) > 0 {
		if err := out.To(m.cfg.Recipients...); err != nil {
			return nil, fmt.Errorf("invalid recipients: %w", err)
		}
	}

	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, string(msg.HTML))

	for _, img := range msg.Inline {
		name := img.FileName
		if name == "" {
			name = img.ContentID + ".png"
		}
		if err := out.EmbedReader(name, bytes.NewReader(img.Data), mail.WithFileContentID(img.ContentID)); err != nil {
			return nil, fmt.Errorf("embed %s: %w", name, err)
		}
	}

	return out, nil
}

func (m *SMTPMailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(m.cfg.TLSPolicy)),
	}
	if m.cfg.SendTimeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.SendTimeout))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return c, nil
}

func tlsPolicy(p string) mail.TLSPolicy {
	switch p {
	case config.TLSMandatory:
		return mail.TLSMandatory
	case config.TLSNone:
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}
