package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSMTPClient struct {
	mailFrom string
	rcpts    []string
	data     bytes.Buffer
	quit     bool
}

func (f *fakeSMTPClient) Mail(from string) error { f.mailFrom = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error   { f.rcpts = append(f.rcpts, to); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeSMTPClient) Quit() error                      { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                     { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error       { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error             { return nil }
func (f *fakeSMTPClient) Extension(string) (bool, string)  { return false, "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newTestMailer(client smtpClient) *smtpMailer {
	return &smtpMailer{
		cfg: SMTPSettings{
			Enabled: true,
			Host:    "mail.example.com",
			Port:    587,
			From:    "noreply@example.com",
		},
		dialFn: func(context.Context, SMTPSettings) (net.Conn, smtpClient, error) {
			server, _ := net.Pipe()
			return server, client, nil
		},
		authFn: func(smtpClient, SMTPSettings) error { return nil },
	}
}

func TestSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"a@example.com"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendWritesFormattedMessage(t *testing.T) {
	client := &fakeSMTPClient{}
	mailer := newTestMailer(client)

	err := mailer.Send(context.Background(), Message{
		To:      []string{"alice@example.com", "alice@example.com", " "},
		Subject: "Unread notifications",
		Body:    "<p>You have unread notifications.</p>",
	})
	require.NoError(t, err)

	require.Equal(t, "noreply@example.com", client.mailFrom)
	require.Equal(t, []string{"alice@example.com"}, client.rcpts)
	require.True(t, client.quit)

	payload := client.data.String()
	require.Contains(t, payload, "Subject: Unread notifications")
	require.Contains(t, payload, "Content-Type: text/html")
	require.Contains(t, payload, "<p>You have unread notifications.</p>")
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	mailer := newTestMailer(&fakeSMTPClient{})
	err := mailer.Send(context.Background(), Message{To: []string{"not-an-address"}})
	require.Error(t, err)
}

func TestEscapeHeaderStripsNewlines(t *testing.T) {
	out := escapeHeader("hello\r\nBcc: evil@example.com")
	require.False(t, strings.ContainsAny(out, "\r\n"))
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)
}
