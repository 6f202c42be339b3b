package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"os"
	"sort"
	"time"

	"bhss/adapters/api"
	"bhss/adapters/postgres"
	"bhss/domain/core"
	"bhss/internal/config"
	"bhss/internal/container"
	"bhss/internal/migration"
	"bhss/internal/store"
	"bhss/models"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var municipalities = map[string][]string{
	"Abucay":  {"Abucay Elementary School", "Bangkal Elementary School", "Mabatang Elementary School"},
	"Balanga": {"Balanga Elementary School", "Cupang Elementary School"},
	"Orani":   {"Orani Central School", "Tala Elementary School", "Pantalan Elementary School"},
}

var grades = []string{"Grade 2", "Grade 3", "Grade 4"}

// municipalityNames returns the demo municipalities in a stable order
func municipalityNames() []string {
	names := make([]string, 0, len(municipalities))
	for name := range municipalities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "bhss-dev",
		Short: "BHSS development tools",
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newSampleSheetCmd(),
		newSmokeTestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// devConfig is a self-contained sqlite setup
func devConfig(dbPath, uploadDir string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite3", URL: dbPath},
		Server:   config.ServerConfig{GinMode: gin.ReleaseMode},
		Auth: config.AuthConfig{
			JWTSecret:     "dev-secret",
			TokenTTL:      time.Hour,
			AdminEmail:    "admin@bhss.local",
			AdminPassword: "admin12345",
		},
		Storage: config.StorageConfig{UploadDir: uploadDir},
		Notify:  config.NotifyConfig{ReplaySize: 50},
	}
}

func openContainer(ctx context.Context, cfg *config.Config) (*container.Container, error) {
	db, err := postgres.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := c.EnsureAdmin(ctx); err != nil {
		_ = c.Shutdown(ctx)
		return nil, err
	}
	return c, nil
}

func newSeedCmd() *cobra.Command {
	var dbPath string
	var days int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a sqlite database with deterministic demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx, devConfig(dbPath, "./uploads"))
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)
			return generateSeedData(ctx, c, days, seed)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "bhss-dev.db", "sqlite database file")
	cmd.Flags().IntVar(&days, "days", 10, "school days of records to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for deterministic data")
	return cmd
}

func generateSeedData(ctx context.Context, c *container.Container, days int, seed int64) error {
	fmt.Println("Generating seed data...")
	rng := rand.New(rand.NewSource(seed))
	admin, err := c.UserRepo.GetUserByEmail(ctx, c.Config.Auth.AdminEmail)
	if err != nil {
		return err
	}
	svc := c.Services

	for _, muni := range municipalityNames() {
		schools := municipalities[muni]
		for _, school := range schools {
			if _, err := svc.Directory.CreateSchool(ctx, models.SchoolInput{Municipality: muni, Name: school, SchoolYear: "2025-2026"}); err != nil {
				return fmt.Errorf("failed to create school %s: %w", school, err)
			}
			if _, err := svc.Directory.CreateBeneficiary(ctx, models.BeneficiaryInput{
				Municipality: muni, SchoolYear: "2025-2026", Kitchen: muni + " Kitchen", School: school,
				Grade2: 20 + rng.Intn(15), Grade3: 20 + rng.Intn(15), Grade4: 20 + rng.Intn(15),
			}); err != nil {
				return fmt.Errorf("failed to create beneficiaries for %s: %w", school, err)
			}
		}
	}

	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	records, deliveries := 0, 0
	for d := 0; d < days; d++ {
		day := core.NewDateKey(start.AddDate(0, 0, d))
		for _, muni := range municipalityNames() {
			schools := municipalities[muni]
			for _, school := range schools {
				for _, grade := range grades {
					present := 15 + rng.Intn(15)
					if _, err := svc.Attendance.Save(ctx, admin, models.AttendanceInput{
						DateKey: day, Municipality: muni, School: school, Grade: grade,
						Present: present, Absent: rng.Intn(5),
					}); err != nil {
						return err
					}
					records++
				}
				status := models.DeliveryStatuses[rng.Intn(len(models.DeliveryStatuses))]
				if _, err := svc.Deliveries.Save(ctx, admin, models.DeliveryInput{
					DateKey: day, Municipality: muni, School: school,
					CategoryKey: "hot-meals", CategoryLabel: "Hot meals", Status: status,
				}); err != nil {
					return err
				}
				deliveries++
			}
		}
	}

	if _, err := svc.Announcements.Create(ctx, admin, models.AnnouncementInput{
		Title: "Welcome to BHSS",
		Body:  "Record **attendance** daily and log every delivery with photos.",
	}); err != nil {
		return err
	}

	fmt.Printf("Seeded %d attendance records and %d deliveries; log in as %s\n", records, deliveries, c.Config.Auth.AdminEmail)
	return nil
}

func newSampleSheetCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sample-sheet",
		Short: "Write a beneficiary masterlist in the upload layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSampleSheet(out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "beneficiaries.xlsx", "output file path")
	return cmd
}

// writeSampleSheet produces a title block, the header row and a totals row,
// the way masterlists arrive from the schools division
func writeSampleSheet(out string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"

	rows := [][]interface{}{
		{"BANGA SA HAPAG NG SCHOOLS (BHSS)"},
		{"Masterlist of Beneficiaries"},
		{},
		{"LGU", "BHSS Kitchen", "Schools", "Grade2", "Grade3", "Grade4", "Total"},
	}
	total := [4]int{}
	i := 0
	for _, muni := range municipalityNames() {
		schools := municipalities[muni]
		for _, school := range schools {
			g2, g3, g4 := 20+i, 22+i, 18+i
			rows = append(rows, []interface{}{muni, muni + " Kitchen", school, g2, g3, g4, g2 + g3 + g4})
			total[0] += g2
			total[1] += g3
			total[2] += g4
			total[3] += g2 + g3 + g4
			i++
		}
	}
	rows = append(rows, []interface{}{"", "", "TOTAL", total[0], total[1], total[2], total[3]})

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SaveAs(out); err != nil {
		return fmt.Errorf("failed to save %s: %w", out, err)
	}
	fmt.Println("Wrote", out)
	return nil
}

func newSmokeTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run the API end to end against an in-memory database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context())
		},
	}
}

func runSmokeTests(ctx context.Context) error {
	fmt.Println("Running smoke tests...")

	uploadDir, err := os.MkdirTemp("", "bhss-smoke")
	if err != nil {
		return err
	}
	defer os.RemoveAll(uploadDir)

	cfg := devConfig(":memory:", uploadDir)
	c, err := openContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	srv := httptest.NewServer(c.Server().Handler())
	defer srv.Close()

	client, err := api.NewClient(&api.Config{BaseURL: srv.URL, Timeout: 10 * time.Second, TokenFile: "memory"}, &api.MemoryTokenStore{})
	if err != nil {
		return err
	}
	stores := store.NewStores(client)

	steps := []struct {
		name string
		run  func() error
	}{
		{"login", func() error {
			_, err := client.Login(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
			return err
		}},
		{"save attendance", func() error {
			_, err := stores.Attendance.Create(ctx, models.AttendanceInput{
				DateKey: "2025-06-02", Municipality: "Abucay", School: "Abucay Elementary School", Grade: "Grade 2", Present: 20,
			})
			return err
		}},
		{"log delivery", func() error {
			_, err := stores.Delivery.Create(ctx, models.DeliveryInput{
				DateKey: "2025-06-02", Municipality: "Abucay", School: "Abucay Elementary School", CategoryKey: "hot-meals",
			})
			return err
		}},
		{"fetch all stores", func() error {
			if err := stores.FetchAll(ctx, models.RecordFilter{}); err != nil {
				return err
			}
			if stores.Attendance.Len() != 1 || stores.Delivery.Len() != 1 {
				return fmt.Errorf("expected 1 attendance and 1 delivery, got %d and %d", stores.Attendance.Len(), stores.Delivery.Len())
			}
			return nil
		}},
		{"dashboard", func() error {
			var summary map[string]interface{}
			return client.Get(ctx, "/api/admin/dashboard", nil, &summary)
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			fmt.Printf("  FAIL %s: %v\n", step.name, err)
			return fmt.Errorf("smoke test %q failed", step.name)
		}
		fmt.Printf("  ok   %s\n", step.name)
	}
	fmt.Println("Smoke tests passed")
	return nil
}
