package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rent-backend/internal/email"
	"rent-backend/internal/models"
	"rent-backend/internal/sms"
)

type failingSMS struct{}

func (failingSMS) SendSMS(context.Context, string, string) error {
	return errors.New("gateway down")
}

func (f *fixture) addDueTenant(t *testing.T, name, emailAddr, phone string, day int) *models.User {
	t.Helper()
	resp, err := f.tenants.Register(context.Background(), f.owner, &models.CreateTenantRequest{
		Name:       name,
		RentAmount: dec("4500"),
		Email:      emailAddr,
		Phone:      phone,
		RentDueDay: day,
	})
	require.NoError(t, err)
	return resp.Tenant
}

func TestSendDueReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// t0 is the 1st of the month
	f.addDueTenant(t, "Asha", "asha@example.com", "9876543210", 1)
	f.addDueTenant(t, "Bilal", "", "9876500000", 1)
	f.addDueTenant(t, "Chitra", "chitra@example.com", "", 15)

	smsSender := sms.NewMockSMSService(zap.NewNop())
	mailSender := email.NewLogSender(zap.NewNop())
	reminders := NewReminderService(f.store.Users, smsSender, mailSender, zap.NewNop())
	reminders.Now = f.clock

	result, err := reminders.SendDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Tenants: 2, Sent: 3, Failed: 0}, result)

	msgs := smsSender.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "9876543210", msgs[0].Phone)
	assert.Equal(t, "Hi Asha, this is a reminder that your rent payment of ₹4500.00 is due today. "+
		"Please make the payment through your tenant dashboard.", msgs[0].Text)

	mails := mailSender.Sent()
	require.Len(t, mails, 1)
	assert.Equal(t, "asha@example.com", mails[0].To)
	assert.Equal(t, "Rent Payment Reminder", mails[0].Subject)
}

func TestSendDueRemindersCountsFailures(t *testing.T) {
	f := newFixture(t)
	f.addDueTenant(t, "Asha", "asha@example.com", "9876543210", 1)

	reminders := NewReminderService(f.store.Users, failingSMS{}, email.NewLogSender(zap.NewNop()), zap.NewNop())
	reminders.Now = f.clock

	result, err := reminders.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Tenants: 1, Sent: 1, Failed: 1}, result)
}
