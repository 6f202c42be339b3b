package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"bhss/adapters/api"
	"bhss/internal/logging"
	"bhss/internal/store"
	"bhss/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app carries what every command needs once the root flags are parsed
type app struct {
	cfg     *api.Config
	verbose bool

	client *api.Client
	stores *store.Stores
	log    *logging.Logger
}

func main() {
	_ = godotenv.Load()

	a := &app{cfg: api.DefaultConfig()}
	if v := os.Getenv("BHSS_SERVER"); v != "" {
		a.cfg.BaseURL = v
	}
	if v := os.Getenv("BHSS_TOKEN_FILE"); v != "" {
		a.cfg.TokenFile = v
	}

	rootCmd := &cobra.Command{
		Use:           "bhss",
		Short:         "Command line client for the BHSS school feeding program",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfg.BaseURL, "server", a.cfg.BaseURL, "BHSS server base url")
	rootCmd.PersistentFlags().StringVar(&a.cfg.TokenFile, "token-file", a.cfg.TokenFile, "file the login session is stored in")
	rootCmd.PersistentFlags().DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "request timeout")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests")

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newAttendanceCmd(a),
		newDeliveryCmd(a),
		newDirectoryCmd(a),
		newEventsCmd(a),
		newAnnouncementsCmd(a),
		newDashboardCmd(a),
		newReportCmd(a),
		newWatchCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	level := logging.LevelWarn
	if a.verbose {
		level = logging.LevelDebug
	}
	a.log = logging.New("CLI", level)

	client, err := api.NewClient(a.cfg, api.NewFileTokenStore(a.cfg.TokenFile))
	if err != nil {
		return err
	}
	a.client = client
	a.stores = store.NewStores(client)
	a.log.Debug("server=%s token-file=%s", a.cfg.BaseURL, a.cfg.TokenFile)
	return nil
}

// filterOpts holds the common record filter flags
type filterOpts struct {
	from, to, municipality, school, schoolYear, status string
}

func (o *filterOpts) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.municipality, "municipality", "", "only this municipality")
	cmd.Flags().StringVar(&o.school, "school", "", "only this school")
}

func (o *filterOpts) filter() (models.RecordFilter, error) {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("from", o.from)
	set("to", o.to)
	set("municipality", o.municipality)
	set("school", o.school)
	set("schoolYear", o.schoolYear)
	set("status", o.status)
	return models.ParseRecordFilter(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// nowInManila is the current time on the program's wall clock
func nowInManila() time.Time {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		loc = time.FixedZone("PHT", 8*60*60)
	}
	return time.Now().In(loc)
}
