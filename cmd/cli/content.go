package main

import (
	"fmt"

	"bhss/domain/core"
	"bhss/models"

	"github.com/spf13/cobra"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Program calendar",
	}

	var opts filterOpts
	list := &cobra.Command{
		Use:   "list",
		Short: "List calendar events",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			events, err := a.stores.Events.Fetch(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := newTable()
			fmt.Fprintln(tw, "ID\tDATE\tTIME\tSTATUS\tTITLE")
			for _, e := range events {
				when := "all day"
				if e.StartTime != "" {
					when = e.StartTime
					if e.EndTime != "" {
						when += "-" + e.EndTime
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.DateKey, when, e.Status, e.Title)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&opts.from, "from", "", "first date (YYYY-MM-DD)")
	list.Flags().StringVar(&opts.to, "to", "", "last date (YYYY-MM-DD)")

	var in models.EventInput
	var date string
	add := &cobra.Command{
		Use:   "add [title]",
		Short: "Schedule an event (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			in.DateKey = core.DateKey(date)
			event, err := a.stores.Events.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Scheduled %s on %s (%s)\n", event.Title, event.DateKey, event.ID)
			return nil
		},
	}
	add.Flags().StringVar(&date, "date", "", "event date (YYYY-MM-DD)")
	add.Flags().StringVar(&in.StartTime, "start", "", "start time (HH:MM)")
	add.Flags().StringVar(&in.EndTime, "end", "", "end time (HH:MM)")
	add.Flags().StringVar(&in.Description, "description", "", "description")
	_ = add.MarkFlagRequired("date")

	cancel := &cobra.Command{
		Use:   "cancel [id]",
		Short: "Mark an event cancelled (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.EventCancelled
			event, err := a.stores.Events.Update(cmd.Context(), core.ID(args[0]), models.EventPatch{Status: &status})
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", event.Title, event.Status)
			return nil
		},
	}

	cmd.AddCommand(list, add, cancel)
	return cmd
}

func newAnnouncementsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "announcements",
		Aliases: []string{"news"},
		Short:   "Read and post announcements",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show announcements, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.stores.Announcements.Fetch(cmd.Context(), models.RecordFilter{})
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Printf("%s  %s  (%s)\n%s\n\n", formatTime(item.CreatedAt), item.Title, item.ID, item.Body)
			}
			return nil
		},
	}

	var body string
	post := &cobra.Command{
		Use:   "post [title]",
		Short: "Publish a markdown announcement (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.stores.Announcements.Create(cmd.Context(), models.AnnouncementInput{Title: args[0], Body: body})
			if err != nil {
				return err
			}
			fmt.Println("Published", item.ID)
			return nil
		},
	}
	post.Flags().StringVar(&body, "body", "", "markdown body")
	_ = post.MarkFlagRequired("body")

	remove := &cobra.Command{
		Use:   "delete [id]",
		Short: "Remove an announcement (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.stores.Announcements.Delete(cmd.Context(), core.ID(args[0])); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, post, remove)
	return cmd
}
