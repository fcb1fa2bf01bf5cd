package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

type SMTPSender struct {
	config Config
	logger *slog.Logger
}

func NewSMTPSender(config Config, logger *slog.Logger) *SMTPSender {
	if config.Port == 0 {
		config.Port = 587
	}
	return &SMTPSender{config: config, logger: logger}
}

// New returns an SMTP sender when delivery is enabled and a LogSender otherwise.
func New(config Config, logger *slog.Logger) Sender {
	if !config.Enabled || config.Host == "" {
		return NewLogSender(logger)
	}
	return NewSMTPSender(config, logger)
}

func (s *SMTPSender) from() string {
	if s.config.From != "" {
		return s.config.From
	}
	return s.config.Username
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := s.from()
	payload := buildMessage(from, msg, time.Now())
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))

	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	var err error
	if s.config.UseTLS {
		err = s.sendTLS(ctx, addr, auth, from, msg.To, payload)
	} else {
		err = smtp.SendMail(addr, auth, from, msg.To, payload)
	}
	if err != nil {
		s.logger.Error("failed to send email", "error", err, "to", msg.To, "subject", msg.Subject)
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) sendTLS(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, payload []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from string, msg Message, now time.Time) []byte {
	contentType := "text/plain; charset=UTF-8"
	if msg.HTML {
		contentType = "text/html; charset=UTF-8"
	}

	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(msg.To, ", ")},
		{"Subject", msg.Subject},
		{"Date", now.UTC().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", contentType},
	}

	var sb strings.Builder
	for _, h := range headers {
		sb.WriteString(h[0])
		sb.WriteString(": ")
		sb.WriteString(h[1])
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(sb.String())
}
