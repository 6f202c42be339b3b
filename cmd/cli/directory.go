package main

import (
	"fmt"
	"os"
	"path/filepath"

	"bhss/adapters/api"
	"bhss/adapters/excel"
	"bhss/internal/importer"

	"github.com/spf13/cobra"
)

func newDirectoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Manage the school directory (admin)",
	}
	cmd.AddCommand(newDirectoryListCmd(a), newImportCmd(a), newExportCmd(a))
	return cmd
}

func newDirectoryListCmd(a *app) *cobra.Command {
	var opts filterOpts
	cmd := &cobra.Command{
		Use:       "list [schools|beneficiaries|details]",
		Short:     "List one directory collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"schools", "beneficiaries", "details"},
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			tw := newTable()
			switch args[0] {
			case "schools":
				schools, err := a.stores.Schools.Fetch(cmd.Context(), filter)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tMUNICIPALITY\tSCHOOL\tSCHOOL YEAR")
				for _, s := range schools {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Municipality, s.Name, s.SchoolYear)
				}
			case "beneficiaries":
				rows, err := a.stores.Beneficiaries.Fetch(cmd.Context(), filter)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tMUNICIPALITY\tKITCHEN\tSCHOOL\tG2\tG3\tG4\tTOTAL")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
						r.ID, r.Municipality, r.Kitchen, r.School, r.Grade2, r.Grade3, r.Grade4, r.Total)
				}
			case "details":
				rows, err := a.stores.Details.Fetch(cmd.Context(), filter)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tMUNICIPALITY\tSCHOOL\tPRINCIPAL\tCOORDINATOR\tCOOKS")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
						r.ID, r.Municipality, r.School, r.Contacts.Principal.Name, r.Contacts.Coordinator.Name, len(r.Contacts.Cooks))
				}
			default:
				return fmt.Errorf("unknown collection %q", args[0])
			}
			return tw.Flush()
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.schoolYear, "school-year", "", "only this school year")
	return cmd
}

type importReply struct {
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
	Message    string `json:"message"`
}

func newImportCmd(a *app) *cobra.Command {
	var schoolYear string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [schools|beneficiaries|details] [file]",
		Short: "Import a spreadsheet into the directory",
		Long: `Import an .xlsx, .xls or .csv sheet. The header row is found automatically.
Rows already in the directory are counted as duplicates and skipped.

With --dry-run the file is parsed locally and nothing is uploaded.

Example: bhss directory import beneficiaries masterlist.xlsx --school-year 2025-2026`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := importer.ParseKind(args[0])
			if err != nil {
				return err
			}
			path := args[1]
			if !excel.IsSpreadsheet(path) {
				return fmt.Errorf("%s is not a spreadsheet (.xlsx, .xls or .csv)", path)
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			if dryRun {
				rows, err := excel.NewSheetReader().ReadRows(f, path)
				if err != nil {
					return err
				}
				result, err := importer.Import(rows, kind, importer.Options{SchoolYear: schoolYear})
				if err != nil {
					return err
				}
				fmt.Printf("Header found on row %d\n%s\n", result.HeaderRow+1, result.Summary())
				return nil
			}

			var reply importReply
			err = a.client.Upload(cmd.Context(), "/api/admin/import/"+string(kind),
				map[string]string{"schoolYear": schoolYear},
				[]api.Part{{Field: "file", Filename: filepath.Base(path), Body: f}}, &reply)
			if err != nil {
				return err
			}
			fmt.Println(reply.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&schoolYear, "school-year", "", "school year stamped on imported rows")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse locally without uploading")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var opts filterOpts
	cmd := &cobra.Command{
		Use:   "export [out.xlsx]",
		Short: "Download the directory as a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			return a.download(cmd, "/api/admin/export/directory.xlsx", filter.Values(), args[0])
		},
	}
	cmd.Flags().StringVar(&opts.municipality, "municipality", "", "only this municipality")
	cmd.Flags().StringVar(&opts.schoolYear, "school-year", "", "only this school year")
	return cmd
}
