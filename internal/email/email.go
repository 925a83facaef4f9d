// Package email sends plain notification mails.
package email

import (
	"context"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	logger   *zap.Logger
}

func NewSendGridSender(apiKey, fromAddr, fromName string, logger *zap.Logger) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
		logger:   logger.Named("email"),
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, body)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Mail is one message captured by LogSender
type Mail struct {
	To, Subject, Body string
}

// LogSender logs mails instead of sending them
type LogSender struct {
	mu     sync.Mutex
	sent   []Mail
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("email")}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	s.sent = append(s.sent, Mail{To: to, Subject: subject, Body: body})
	s.mu.Unlock()
	s.logger.Info("mock email", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (s *LogSender) Sent() []Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mail(nil), s.sent...)
}
