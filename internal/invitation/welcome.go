package invitation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/events"
	"github.com/frahmantamala/worktally/internal/mailer"
)

// RegisterWelcomeMail sends a welcome email whenever an invitation is accepted.
// sender is expected to be asynchronous; the handler only enqueues.
func RegisterWelcomeMail(bus *events.EventBus, sender mailer.Sender, app internal.AppConfig, logger *slog.Logger) {
	bus.Subscribe(events.EventTypeInvitationAccepted, func(ctx context.Context, event events.Event) error {
		accepted, ok := event.(*events.InvitationAcceptedEvent)
		if !ok {
			return nil
		}
		msg := mailer.WelcomeEmail(mailer.WelcomeData{
			AppName:          app.Name,
			OrganizationName: accepted.OrgName,
			FirstName:        accepted.FirstName,
			LoginURL:         strings.TrimRight(app.FrontendURL, "/") + "/login",
		})
		msg.To = []string{accepted.Email}
		if err := sender.Send(ctx, msg); err != nil {
			logger.Warn("welcome email not queued", "error", err, "user_id", accepted.UserID)
		}
		return nil
	})
}
