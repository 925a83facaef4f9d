package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rent-backend/internal/email"
	"rent-backend/internal/metrics"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
	"rent-backend/internal/sms"
)

const reminderSubject = "Rent Payment Reminder"

// ReminderResult counts the messages of one sweep
type ReminderResult struct {
	Tenants int `json:"tenants"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// ReminderService tells tenants whose rent is due today. A tenant gets an
// SMS when a phone number is on file and an email when an address is.
type ReminderService struct {
	Users  repositories.UserStore
	SMS    sms.Sender
	Email  email.Sender
	Now    Clock
	logger *zap.Logger
}

func NewReminderService(users repositories.UserStore, smsSender sms.Sender, emailSender email.Sender, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		Users:  users,
		SMS:    smsSender,
		Email:  emailSender,
		Now:    clockOrDefault(nil),
		logger: logger.Named("reminders"),
	}
}

func reminderMessage(t *models.User) string {
	return fmt.Sprintf("Hi %s, this is a reminder that your rent payment of ₹%s is due today. "+
		"Please make the payment through your tenant dashboard.", t.Name, t.RentAmount.StringFixed(2))
}

// SendDueReminders runs one sweep for the current day of month. A failed
// message is counted and logged; the sweep continues.
func (s *ReminderService) SendDueReminders(ctx context.Context) (ReminderResult, error) {
	var result ReminderResult
	day := s.Now().Day()
	tenants, err := s.Users.ListTenantsByDueDay(ctx, day)
	if err != nil {
		return result, fmt.Errorf("list tenants due on day %d: %w", day, err)
	}
	result.Tenants = len(tenants)

	for _, t := range tenants {
		msg := reminderMessage(t)
		if t.Phone != "" && s.SMS != nil {
			s.record(&result, "sms", t, s.SMS.SendSMS(ctx, t.Phone, msg))
		}
		if t.Email != "" && s.Email != nil {
			s.record(&result, "email", t, s.Email.SendEmail(ctx, t.Email, reminderSubject, msg))
		}
	}
	s.logger.Info("reminder sweep finished",
		zap.Int("day", day),
		zap.Int("tenants", result.Tenants),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *ReminderService) record(result *ReminderResult, channel string, t *models.User, err error) {
	if err != nil {
		result.Failed++
		metrics.RemindersSent.WithLabelValues(channel, "failed").Inc()
		s.logger.Warn("reminder failed", zap.String("channel", channel), zap.Int("tenant_id", t.ID), zap.Error(err))
		return
	}
	result.Sent++
	metrics.RemindersSent.WithLabelValues(channel, "sent").Inc()
}
