package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"bhss/internal/errors"
	"bhss/internal/notify"
	"bhss/models"

	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print live notifications until interrupted",
		Long: `Subscribe to the notification socket. Reconnects replay what was missed;
notifications already printed are not shown twice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := a.client.Token()
			if token == "" {
				return errors.Unauthorized("not logged in")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			listener := notify.NewListener(a.cfg.WebSocketURL(), token)
			fmt.Println("Watching for notifications, press Ctrl+C to stop")
			err := listener.Run(ctx, func(n notify.Notification) {
				fmt.Println(describe(n))
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

// describe renders a notification as one line
func describe(n notify.Notification) string {
	when := n.Timestamp.Local().Format("15:04:05")
	switch n.Event {
	case notify.EventAttendanceSaved:
		var r models.AttendanceRecord
		if err := n.Decode(&r); err == nil {
			return fmt.Sprintf("%s  attendance  %s %s: %d present, %d absent", when, r.School, r.Grade, r.Present, r.Absent)
		}
	case notify.EventDeliverySaved:
		var r models.DeliveryRecord
		if err := n.Decode(&r); err == nil {
			return fmt.Sprintf("%s  delivery    %s %s: %s", when, r.School, r.CategoryKey, r.Status)
		}
	case notify.EventAnnouncementCreated:
		var item models.Announcement
		if err := n.Decode(&item); err == nil {
			return fmt.Sprintf("%s  announcement  %s", when, item.Title)
		}
	}
	return fmt.Sprintf("%s  %s  %s", when, n.Event, n.ID)
}
