package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
)

type sentMessage struct {
	to       []string
	subject  string
	htmlBody string
	textBody string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendHTML(to []string, subject, htmlBody, textBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, subject: subject, htmlBody: htmlBody, textBody: textBody})
	return nil
}

func testUser() *model.User {
	return &model.User{ID: bson.NewObjectID(), Username: "john", Name: "John <Doe>", Email: "john@example.com"}
}

func TestSendRecoveryEmail(t *testing.T) {
	logger := zerolog.Nop()
	sender := &fakeSender{}
	m := NewRecoveryMailer(sender, "Platform", 24*time.Hour, &logger)

	link := "http://localhost:8080/recovery/abc.def.ghi"
	ok, err := m.SendRecoveryEmail(context.Background(), "john@example.com", link, testUser())
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"john@example.com"}, msg.to)
	assert.Equal(t, "Password Recovery", msg.subject)
	assert.Contains(t, msg.htmlBody, `href="`+link+`"`)
	assert.Contains(t, msg.htmlBody, "John &lt;Doe&gt;")
	assert.Contains(t, msg.textBody, link)
	assert.Contains(t, msg.textBody, "24h0m0s")
}

func TestSendRecoveryEmail_TransportError(t *testing.T) {
	logger := zerolog.Nop()
	boom := errors.New("smtp down")
	m := NewRecoveryMailer(&fakeSender{err: boom}, "Platform", time.Hour, &logger)

	ok, err := m.SendRecoveryEmail(context.Background(), "john@example.com", "link", testUser())
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestSendRecoveryEmail_NoAddress(t *testing.T) {
	logger := zerolog.Nop()
	sender := &fakeSender{}
	m := NewRecoveryMailer(sender, "Platform", time.Hour, &logger)

	ok, err := m.SendRecoveryEmail(context.Background(), "", "link", testUser())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, sender.sent)
}
