package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/joefrost01/batch-report/pkg/config"
)

func testConfig() config.MailConfig {
	return config.MailConfig{
		Host:        "127.0.0.1",
		Port:        1,
		TLSPolicy:   config.TLSNone,
		FromAddress: "reports@example.com",
		FromName:    "Trade Surveillance",
		Recipients:  []string{"ops@example.com", "dev@example.com"},
		SendTimeout: 2 * time.Second,
	}
}

func testMessage() Message {
	return Message{
		Subject: "Batch Load Report - 2024-01-15",
		HTML:    []byte(`<html><body><img src="cid:statusChart"></body></html>`),
		Inline:  []InlineImage{{ContentID: "statusChart", FileName: "chart.png", Data: []byte{0x89, 'P', 'N', 'G'}}},
	}
}

func TestWriteEML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(testConfig(), nil).WriteEML(&buf, testMessage()))

	parsed, err := mail.ReadMessage(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Batch Load Report - 2024-01-15", parsed.Header.Get("Subject"))
	assert.Contains(t, parsed.Header.Get("From"), "reports@example.com")
	assert.Contains(t, parsed.Header.Get("To"), "ops@example.com")
	assert.Contains(t, parsed.Header.Get("To"), "dev@example.com")

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(mediaType, "multipart/"), mediaType)

	var sawHTML, sawChart bool
	var walk func(r io.Reader, boundary string)
	walk = func(r io.Reader, boundary string) {
		mr := multipart.NewReader(r, boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				return
			}
			ct, p, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
			switch {
			case strings.HasPrefix(ct, "multipart/"):
				walk(part, p["boundary"])
			case ct == "text/html":
				sawHTML = true
			case strings.Contains(part.Header.Get("Content-ID"), "statusChart"):
				sawChart = true
			}
		}
	}
	walk(parsed.Body, params["boundary"])

	assert.True(t, sawHTML, "html body part")
	assert.True(t, sawChart, "inline chart part")
}

func TestWriteEMLWithoutRecipients(t *testing.T) {
	cfg := testConfig()
	cfg.Recipients = nil

	var buf bytes.Buffer
	require.NoError(t, New(cfg, nil).WriteEML(&buf, testMessage()))
	assert.Contains(t, buf.String(), "Subject: Batch Load Report - 2024-01-15")
}

func TestSendWithoutRecipients(t *testing.T) {
	cfg := testConfig()
	cfg.Recipients = nil

	err := New(cfg, nil).Send(context.Background(), testMessage())
	assert.True(t, errors.Is(err, ErrNoRecipients))
}

func TestSendInvalidFrom(t *testing.T) {
	cfg := testConfig()
	cfg.FromAddress = "not an address"

	err := New(cfg, nil).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")
}

func TestSendUnreachableRelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := New(testConfig(), nil).Send(ctx, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send mail via 127.0.0.1:1")
}

func TestTLSPolicy(t *testing.T) {
	assert.Equal(t, gomail.TLSMandatory, tlsPolicy(config.TLSMandatory))
	assert.Equal(t, gomail.NoTLS, tlsPolicy(config.TLSNone))
	assert.Equal(t, gomail.TLSOpportunistic, tlsPolicy(""))
}

func TestRecipientsIsCopy(t *testing.T) {
	m := New(testConfig(), nil)
	r := m.Recipients()
	r[0] = "changed@example.com"
	assert.Equal(t, "ops@example.com", m.Recipients()[0])
}
