package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogSenderCaptures(t *testing.T) {
	s := NewLogSender(zap.NewNop())
	require.NoError(t, s.SendEmail(context.Background(), "asha@example.com", "Rent reminder", "Your rent is due"))

	sent := s.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, Mail{To: "asha@example.com", Subject: "Rent reminder", Body: "Your rent is due"}, sent[0])
}
