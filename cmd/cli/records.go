package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bhss/adapters/api"
	"bhss/domain/core"
	"bhss/models"

	"github.com/spf13/cobra"
)

// schoolDefaults fills municipality and school from the logged in user when
// the flags were left empty
func (a *app) schoolDefaults(municipality, school *string) {
	user, err := a.client.CurrentUser()
	if err != nil || user == nil {
		return
	}
	if *municipality == "" {
		*municipality = user.Municipality
	}
	if *school == "" {
		*school = user.School
	}
}

func newAttendanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Record and review daily attendance",
	}
	cmd.AddCommand(newAttendanceListCmd(a), newAttendanceAddCmd(a), newAttendanceEditCmd(a), newAttendanceDeleteCmd(a))
	return cmd
}

func newAttendanceListCmd(a *app) *cobra.Command {
	var opts filterOpts
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attendance records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			records, err := a.stores.Attendance.Fetch(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := newTable()
			fmt.Fprintln(tw, "ID\tDATE\tMUNICIPALITY\tSCHOOL\tGRADE\tPRESENT\tABSENT")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.DateKey, r.Municipality, r.School, r.Grade, r.Present, r.Absent)
			}
			return tw.Flush()
		},
	}
	opts.bind(cmd)
	return cmd
}

func newAttendanceAddCmd(a *app) *cobra.Command {
	var in models.AttendanceInput
	var date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save an attendance record",
		Long: `Save attendance for one grade of a school. Municipality and school default
to the school assigned to the logged in account.

Example: bhss attendance add --grade "Grade 2" --present 20 --absent 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.DateKey = core.DateKey(date)
			if date == "" {
				in.DateKey = core.NewDateKey(nowInManila())
			}
			a.schoolDefaults(&in.Municipality, &in.School)
			record, err := a.stores.Attendance.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Saved attendance %s for %s on %s\n", record.ID, record.School, record.DateKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date of the record (default today)")
	cmd.Flags().StringVar(&in.Municipality, "municipality", "", "municipality")
	cmd.Flags().StringVar(&in.School, "school", "", "school")
	cmd.Flags().StringVar(&in.Grade, "grade", "", "grade level")
	cmd.Flags().IntVar(&in.Present, "present", 0, "learners present")
	cmd.Flags().IntVar(&in.Absent, "absent", 0, "learners absent")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}

func newAttendanceEditCmd(a *app) *cobra.Command {
	var present, absent int
	var notes string

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Correct the counts of an attendance record (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.AttendancePatch
			if cmd.Flags().Changed("present") {
				patch.Present = &present
			}
			if cmd.Flags().Changed("absent") {
				patch.Absent = &absent
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			record, err := a.stores.Attendance.Update(cmd.Context(), core.ID(args[0]), patch)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s: %d present, %d absent\n", record.ID, record.Present, record.Absent)
			return nil
		},
	}

	cmd.Flags().IntVar(&present, "present", 0, "learners present")
	cmd.Flags().IntVar(&absent, "absent", 0, "learners absent")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func newAttendanceDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an attendance record (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.stores.Attendance.Delete(cmd.Context(), core.ID(args[0])); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}

func newDeliveryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delivery",
		Short: "Log and review food deliveries",
	}
	cmd.AddCommand(newDeliveryListCmd(a), newDeliveryAddCmd(a), newDeliveryImagesCmd(a), newDeliveryStatusCmd(a), newDeliveryDeleteCmd(a))
	return cmd
}

func newDeliveryListCmd(a *app) *cobra.Command {
	var opts filterOpts
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List delivery records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			records, err := a.stores.Delivery.Fetch(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := newTable()
			fmt.Fprintln(tw, "ID\tDATE\tSCHOOL\tCATEGORY\tSTATUS\tIMAGES\tCONCERNS")
			for _, r := range records {
				label := r.CategoryLabel
				if label == "" {
					label = r.CategoryKey
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.DateKey, r.School, label, r.Status, len(r.Images), strings.Join(r.Concerns, ", "))
			}
			return tw.Flush()
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.status, "status", "", "only this status")
	return cmd
}

func newDeliveryAddCmd(a *app) *cobra.Command {
	var in models.DeliveryInput
	var date, status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.DateKey = core.DateKey(date)
			if date == "" {
				in.DateKey = core.NewDateKey(nowInManila())
			}
			in.Status = models.DeliveryStatus(status)
			a.schoolDefaults(&in.Municipality, &in.School)
			record, err := a.stores.Delivery.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Logged delivery %s (%s) for %s\n", record.ID, record.Status, record.School)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "delivery date (default today)")
	cmd.Flags().StringVar(&in.Municipality, "municipality", "", "municipality")
	cmd.Flags().StringVar(&in.School, "school", "", "school")
	cmd.Flags().StringVar(&in.CategoryKey, "category", "", "delivery category key")
	cmd.Flags().StringVar(&in.CategoryLabel, "label", "", "delivery category label")
	cmd.Flags().StringVar(&status, "status", "", "Pending, Delivered, Delayed or Cancelled")
	cmd.Flags().StringVar(&in.StatusReason, "reason", "", "reason for a delay or cancellation")
	cmd.Flags().StringSliceVar(&in.Concerns, "concern", nil, "concern (repeatable)")
	cmd.Flags().StringVar(&in.Remarks, "remarks", "", "remarks")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newDeliveryImagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "images [id] [files...]",
		Short: "Attach photos to a delivery",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts := make([]api.Part, 0, len(args)-1)
			for _, path := range args[1:] {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				parts = append(parts, api.Part{Field: "images", Filename: filepath.Base(path), Body: f})
			}
			var record models.DeliveryRecord
			if err := a.client.Upload(cmd.Context(), "/api/delivery/"+args[0]+"/images", nil, parts, &record); err != nil {
				return err
			}
			fmt.Printf("Delivery %s now has %d image(s)\n", record.ID, len(record.Images))
			for _, img := range record.Images {
				fmt.Println(" ", img.URL)
			}
			return nil
		},
	}
}

func newDeliveryStatusCmd(a *app) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "status [id] [status]",
		Short: "Change the status of a delivery (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.DeliveryStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			patch := models.DeliveryPatch{Status: &status}
			if cmd.Flags().Changed("reason") {
				patch.StatusReason = &reason
			}
			record, err := a.stores.Delivery.Update(cmd.Context(), core.ID(args[0]), patch)
			if err != nil {
				return err
			}
			fmt.Printf("Delivery %s is now %s\n", record.ID, record.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the change")
	return cmd
}

func newDeliveryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a delivery and its images (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.stores.Delivery.Delete(cmd.Context(), core.ID(args[0])); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}
