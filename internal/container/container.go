package container

import (
	"context"
	"fmt"
	"log"

	"bhss/adapters/blob"
	"bhss/adapters/postgres"
	"bhss/app"
	"bhss/internal/api"
	"bhss/internal/auth"
	"bhss/internal/config"
	"bhss/internal/notify"
	"bhss/internal/validation"
	"bhss/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Blobs ports.BlobStore
	Hub   *notify.Hub

	// Repositories (data access layer)
	UserRepo          ports.UserRepository
	AttendanceRepo    ports.AttendanceRepository
	DeliveryRepo      ports.DeliveryRepository
	SchoolRepo        ports.SchoolRepository
	BeneficiaryRepo   ports.BeneficiaryRepository
	DetailsRepo       ports.SchoolDetailsRepository
	EventRepo         ports.EventRepository
	AnnouncementRepo  ports.AnnouncementRepository
	PushSubscriptions ports.PushSubscriptionRepository

	// Shared components
	Validator *validation.Validator
	Tokens    *auth.TokenIssuer

	// Services
	Services api.Services
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
	}

	return c, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := c.initRepositories(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := c.initInfrastructure(); err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	c.initServices()

	log.Printf("[Container] initialized (driver=%s, blobs=%s)", db.DriverName(), c.BlobBackend())
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() error {
	c.UserRepo = postgres.NewUserRepository(c.DB)
	c.AttendanceRepo = postgres.NewAttendanceRepository(c.DB)
	c.DeliveryRepo = postgres.NewDeliveryRepository(c.DB)
	c.SchoolRepo = postgres.NewSchoolRepository(c.DB)
	c.BeneficiaryRepo = postgres.NewBeneficiaryRepository(c.DB)
	c.DetailsRepo = postgres.NewSchoolDetailsRepository(c.DB)
	c.EventRepo = postgres.NewEventRepository(c.DB)
	c.AnnouncementRepo = postgres.NewAnnouncementRepository(c.DB)
	c.PushSubscriptions = postgres.NewPushSubscriptionRepository(c.DB)
	return nil
}

// initInfrastructure picks the blob backend and starts the notification hub.
// S3 is used when a bucket is configured, the local upload dir otherwise.
func (c *Container) initInfrastructure() error {
	var err error
	if c.Config.Storage.S3Bucket != "" {
		c.Blobs, err = blob.NewS3Store(c.Config.Storage.S3Bucket, c.Config.Storage.S3Region)
	} else {
		c.Blobs, err = blob.NewLocalStore(c.Config.Storage.UploadDir, "/uploads")
	}
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}

	c.Hub = notify.NewHub(c.Config.Notify.ReplaySize, c.Config.Notify.AllowedOrigins...)
	c.Validator = validation.New()
	c.Tokens = auth.NewTokenIssuer(c.Config.Auth.JWTSecret, c.Config.Auth.TokenTTL)
	return nil
}

func (c *Container) initServices() {
	c.Services = api.Services{
		Users:         app.NewUserService(c.UserRepo, c.Tokens, c.Validator),
		Attendance:    app.NewAttendanceService(c.AttendanceRepo, c.Validator, c.Hub),
		Deliveries:    app.NewDeliveryService(c.DeliveryRepo, c.Blobs, c.Validator, c.Hub),
		Directory:     app.NewDirectoryService(c.SchoolRepo, c.BeneficiaryRepo, c.DetailsRepo, c.Validator),
		Events:        app.NewEventService(c.EventRepo, c.Validator),
		Announcements: app.NewAnnouncementService(c.AnnouncementRepo, c.Validator, c.Hub),
		Push:          app.NewPushService(c.PushSubscriptions, c.Validator),
		Dashboard:     app.NewDashboardService(c.AttendanceRepo, c.DeliveryRepo, c.SchoolRepo, c.BeneficiaryRepo),
	}
}

// BlobBackend names the configured image storage
func (c *Container) BlobBackend() string {
	if c.Config.Storage.S3Bucket != "" {
		return "s3"
	}
	return "local"
}

// EnsureAdmin creates the bootstrap admin account when one is configured
func (c *Container) EnsureAdmin(ctx context.Context) error {
	if c.Config.Auth.AdminEmail == "" {
		return nil
	}
	if err := c.Services.Users.EnsureAdmin(ctx, c.Config.Auth.AdminEmail, c.Config.Auth.AdminPassword); err != nil {
		return fmt.Errorf("failed to ensure admin account: %w", err)
	}
	return nil
}

// Server builds the HTTP API over the container's services. Uploaded files
// are served from disk only when the local blob store is in use.
func (c *Container) Server() *api.Server {
	opts := api.Options{GinMode: c.Config.Server.GinMode}
	if c.BlobBackend() == "local" {
		opts.UploadDir = c.Config.Storage.UploadDir
	}
	return api.NewServer(c.Services, c.Hub, opts)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Hub != nil {
		c.Hub.Close()
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
