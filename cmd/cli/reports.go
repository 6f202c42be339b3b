package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"bhss/internal/dashboard"

	"github.com/spf13/cobra"
)

// download saves the body of GET path to out
func (a *app) download(cmd *cobra.Command, path string, query url.Values, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := a.client.Download(cmd.Context(), path, query, f); err != nil {
		f.Close()
		_ = os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.log.Debug("saved %s", out)
	fmt.Println("Saved", out)
	return nil
}

func newDashboardCmd(a *app) *cobra.Command {
	var opts filterOpts
	var top int
	var local bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show program totals for a period (admin)",
		Long: `Show the admin dashboard. By default the server aggregates; with --local
every collection is fetched concurrently and summarized on this machine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			var summary dashboard.Summary
			if local {
				if err := a.stores.FetchAll(cmd.Context(), filter); err != nil {
					return err
				}
				summary = dashboard.Build(dashboard.Input{
					From:          filter.From,
					To:            filter.To,
					Attendance:    a.stores.Attendance.Items(),
					Deliveries:    a.stores.Delivery.Items(),
					Schools:       a.stores.Schools.Items(),
					Beneficiaries: a.stores.Beneficiaries.Items(),
					TopN:          top,
				})
			} else {
				query := filter.Values()
				query.Set("top", strconv.Itoa(top))
				if err := a.client.Get(cmd.Context(), "/api/admin/dashboard", query, &summary); err != nil {
					return err
				}
			}
			printSummary(summary)
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&top, "top", dashboard.DefaultTopN, "length of the ranking lists")
	cmd.Flags().BoolVar(&local, "local", false, "aggregate on this machine")
	return cmd
}

func printSummary(s dashboard.Summary) {
	period := "all dates"
	if s.From != "" || s.To != "" {
		period = fmt.Sprintf("%s to %s", s.From, s.To)
	}
	fmt.Printf("Period: %s\n", period)
	fmt.Printf("Attendance records: %d   Deliveries: %d   Schools: %d   Beneficiaries: %d\n",
		s.Totals.AttendanceRecords, s.Totals.Deliveries, s.Totals.Schools, s.Totals.Beneficiaries)
	fmt.Printf("Delivery completion: %d%%   Attendance rate: %.1f%%   Median daily present: %.0f\n\n",
		s.CompletionRate, s.Attendance.Rate, s.Attendance.MedianDailyPresent)

	tw := newTable()
	fmt.Fprintln(tw, "STATUS\tCOUNT")
	for _, sc := range s.StatusBreakdown {
		fmt.Fprintf(tw, "%s\t%d\n", sc.Status, sc.Count)
	}
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "TOP SCHOOLS\tPRESENT")
	for _, r := range s.TopSchools {
		fmt.Fprintf(tw, "%s (%s)\t%d\n", r.Name, r.Municipality, r.Value)
	}
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "TOP MUNICIPALITIES\tDELIVERIES")
	for _, r := range s.TopMunicipalities {
		fmt.Fprintf(tw, "%s\t%d\n", r.Name, r.Value)
	}
	_ = tw.Flush()
}

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Download generated reports (admin)",
	}

	var opts filterOpts
	deliveries := &cobra.Command{
		Use:   "deliveries [out.pdf]",
		Short: "Delivery summary PDF for a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			return a.download(cmd, "/api/admin/reports/delivery.pdf", filter.Values(), args[0])
		},
	}
	opts.bind(deliveries)
	deliveries.Flags().StringVar(&opts.status, "status", "", "only this status")

	record := &cobra.Command{
		Use:   "delivery [id] [out.pdf]",
		Short: "PDF report of one delivery",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.download(cmd, "/api/admin/delivery/"+url.PathEscape(args[0])+"/report.pdf", nil, args[1])
		},
	}

	var calOpts filterOpts
	calendar := &cobra.Command{
		Use:   "calendar [out.ics]",
		Short: "Program calendar as an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := calOpts.filter()
			if err != nil {
				return err
			}
			return a.download(cmd, "/api/admin/events.ics", filter.Values(), args[0])
		},
	}
	calendar.Flags().StringVar(&calOpts.from, "from", "", "first date (YYYY-MM-DD)")
	calendar.Flags().StringVar(&calOpts.to, "to", "", "last date (YYYY-MM-DD)")

	cmd.AddCommand(deliveries, record, calendar)
	return cmd
}
