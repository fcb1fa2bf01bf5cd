package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/worktally/internal/core/events"
	"github.com/frahmantamala/worktally/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect domain event types and publish test events through the audit subscribers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishTestEvent(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var listEventCmd = &cobra.Command{
	Use:   "list",
	Short: "List domain event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, eventType := range events.AuditEventTypes {
			fmt.Println(eventType)
		}
	},
}

var eventData string

func publishTestEvent(eventType string) error {
	log := logger.LoggerWrapper()

	bus := events.NewEventBus(log)
	events.RegisterAuditLog(bus, log)

	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		log.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	testEvent := events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	log.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bus.Publish(ctx, testEvent); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	if err := bus.Drain(ctx); err != nil {
		return fmt.Errorf("wait for handlers: %w", err)
	}

	log.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)
	eventCmd.AddCommand(listEventCmd)

	rootCmd.AddCommand(eventCmd)
}
