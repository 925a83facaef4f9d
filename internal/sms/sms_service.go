package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const fast2SMSURL = "https://www.fast2sms.com/dev/bulkV2"

// Sender sends one text message
type Sender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// Fast2SMSService implements Sender for Fast2SMS (India)
type Fast2SMSService struct {
	APIKey  string
	Route   string // "q" (quick), "dlt", "v3" (promotional)
	BaseURL string
	Client  *http.Client
	logger  *zap.Logger
}

// NewFast2SMSService creates a new Fast2SMS service on the quick route
func NewFast2SMSService(apiKey string, logger *zap.Logger) *Fast2SMSService {
	return &Fast2SMSService{
		APIKey:  apiKey,
		Route:   "q",
		BaseURL: fast2SMSURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.Named("sms"),
	}
}

// SendSMS sends a single SMS message
func (s *Fast2SMSService) SendSMS(ctx context.Context, phone, message string) error {
	q := url.Values{}
	q.Set("authorization", s.APIKey)
	q.Set("route", s.Route)
	q.Set("message", message)
	q.Set("language", "english")
	q.Set("flash", "0")
	q.Set("numbers", phone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API error (status %d): %s", resp.StatusCode, string(body))
	}

	// Fast2SMS reports failures in the body with HTTP 200
	if strings.Contains(string(body), "\"return\":false") {
		return fmt.Errorf("SMS API error: %s", string(body))
	}

	var apiResp struct {
		RequestID string `json:"request_id"`
	}
	json.Unmarshal(body, &apiResp)
	s.logger.Info("sms sent", zap.String("phone", phone), zap.String("request_id", apiResp.RequestID))
	return nil
}

// Message is an SMS captured by MockSMSService
type Message struct {
	Phone string
	Text  string
}

// MockSMSService logs messages instead of sending them
type MockSMSService struct {
	mu     sync.Mutex
	Sent   []Message
	logger *zap.Logger
}

func NewMockSMSService(logger *zap.Logger) *MockSMSService {
	return &MockSMSService{logger: logger.Named("sms")}
}

func (s *MockSMSService) SendSMS(_ context.Context, phone, message string) error {
	s.mu.Lock()
	s.Sent = append(s.Sent, Message{Phone: phone, Text: message})
	s.mu.Unlock()
	s.logger.Info("mock sms", zap.String("phone", phone), zap.String("message", message))
	return nil
}

// Messages returns a copy of the captured messages
func (s *MockSMSService) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.Sent...)
}
