// Package email composes the messages the user service sends.
package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
)

// HTMLSender delivers an HTML message with a plain text alternative.
// *mailer.Mailer satisfies it.
type HTMLSender interface {
	SendHTML(to []string, subject, htmlBody, textBody string) error
}

// RecoverySender delivers recovery links. The boolean reports whether a message
// was handed to the transport.
type RecoverySender interface {
	SendRecoveryEmail(ctx context.Context, address, link string, user *model.User) (bool, error)
}

const recoverySubject = "Password Recovery"

var recoveryHTML = htmltemplate.Must(htmltemplate.New("recovery.html").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to recover the password of the account <strong>{{.Username}}</strong>.</p>
<p>If you made this request, follow the link below to choose a new password:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link expires in {{.ExpiresIn}} and can be used once.</p>
<p>If you did not request a password recovery, you can ignore this email and your account will remain secure.</p>
<p>{{.ServerName}}</p>
`))

var recoveryText = texttemplate.Must(texttemplate.New("recovery.txt").Parse(`Hi {{.Name}},

We received a request to recover the password of the account {{.Username}}.
Open the link below to choose a new password:

{{.Link}}

This link expires in {{.ExpiresIn}} and can be used once.
If you did not request a password recovery, you can ignore this email.

{{.ServerName}}
`))

type recoveryData struct {
	Name       string
	Username   string
	Link       string
	ExpiresIn  time.Duration
	ServerName string
}

type recoveryMailer struct {
	sender     HTMLSender
	serverName string
	expiresIn  time.Duration
	logger     *zerolog.Logger
}

// NewRecoveryMailer returns a RecoverySender delivering through sender.
func NewRecoveryMailer(
	sender HTMLSender,
	serverName string,
	expiresIn time.Duration,
	logger *zerolog.Logger,
) RecoverySender {
	return &recoveryMailer{
		sender:     sender,
		serverName: serverName,
		expiresIn:  expiresIn,
		logger:     logger,
	}
}

func (m *recoveryMailer) SendRecoveryEmail(
	ctx context.Context,
	address, link string,
	user *model.User,
) (bool, error) {
	if address == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	data := recoveryData{
		Name:       user.Name,
		Username:   user.Username,
		Link:       link,
		ExpiresIn:  m.expiresIn,
		ServerName: m.serverName,
	}
	if data.Name == "" {
		data.Name = user.Username
	}

	var htmlBody, textBody bytes.Buffer
	if err := recoveryHTML.Execute(&htmlBody, data); err != nil {
		return false, fmt.Errorf("failed to render recovery email: %w", err)
	}
	if err := recoveryText.Execute(&textBody, data); err != nil {
		return false, fmt.Errorf("failed to render recovery email: %w", err)
	}

	if err := m.sender.SendHTML([]string{address}, recoverySubject, htmlBody.String(), textBody.String()); err != nil {
		return false, err
	}

	m.logger.Info().Str("user_id", user.ID.Hex()).Msg("recovery email sent")

	return true, nil
}
