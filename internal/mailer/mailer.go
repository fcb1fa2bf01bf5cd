package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
)

// ErrDeliveryDisabled is returned by senders that never reach a mail server.
var ErrDeliveryDisabled = errors.New("mailer: email delivery is disabled")

type Message struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendInvitationEmail delivers a plain text invitation carrying the activation link.
func SendInvitationEmail(ctx context.Context, s Sender, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	return s.Send(ctx, Message{To: []string{to}, Subject: subject, Body: body})
}

type InvitationData struct {
	AppName          string
	OrganizationName string
	InviterName      string
	FirstName        string
	Role             string
	ActivationLink   string
}

func InvitationEmail(d InvitationData) (subject, body string) {
	subject = fmt.Sprintf("You're invited to join %s on %s", d.OrganizationName, d.AppName)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", d.FirstName)
	fmt.Fprintf(&sb, "%s has invited you to join %s on %s as %s.\n\n", d.InviterName, d.OrganizationName, d.AppName, d.Role)
	sb.WriteString("Click the link below to set up your account:\n")
	sb.WriteString(d.ActivationLink)
	sb.WriteString("\n\nIf you did not expect this invitation, you can ignore this email.\n\n")
	fmt.Fprintf(&sb, "The %s Team\n", d.AppName)
	return subject, sb.String()
}

type WelcomeData struct {
	AppName          string
	OrganizationName string
	FirstName        string
	LoginURL         string
}

func WelcomeEmail(d WelcomeData) Message {
	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	fmt.Fprintf(&sb, "<h2>Welcome to %s</h2>", html.EscapeString(d.OrganizationName))
	fmt.Fprintf(&sb, "<p>Hi %s, your %s account is active.</p>", html.EscapeString(d.FirstName), html.EscapeString(d.AppName))
	if d.LoginURL != "" {
		fmt.Fprintf(&sb, "<p><a href=\"%s\">Sign in</a></p>", html.EscapeString(d.LoginURL))
	}
	sb.WriteString("</body></html>")

	return Message{
		Subject: fmt.Sprintf("Welcome to %s", d.OrganizationName),
		Body:    sb.String(),
		HTML:    true,
	}
}
