package api

import (
	"log"
	"net/http"
	"strings"

	"bhss/app"
	"bhss/internal/notify"

	"github.com/gin-gonic/gin"
)

// Services bundles the application services the API exposes
type Services struct {
	Users         *app.UserService
	Attendance    *app.AttendanceService
	Deliveries    *app.DeliveryService
	Directory     *app.DirectoryService
	Events        *app.EventService
	Announcements *app.AnnouncementService
	Push          *app.PushService
	Dashboard     *app.DashboardService
}

// Options configures the HTTP surface
type Options struct {
	// UploadDir is served at /uploads when delivery images are stored locally
	UploadDir string
	GinMode   string
}

// Server is the REST + WebSocket API
type Server struct {
	router *gin.Engine
	svc    Services
	hub    *notify.Hub
}

// NewServer builds the router with every route registered
func NewServer(svc Services, hub *notify.Hub, opts Options) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	s := &Server{
		router: gin.Default(),
		svc:    svc,
		hub:    hub,
	}
	s.router.MaxMultipartMemory = 32 << 20
	if opts.UploadDir != "" {
		s.router.Static("/uploads", opts.UploadDir)
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr
func (s *Server) Start(addr string) error {
	log.Printf("[API] listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.authenticate(), s.handleWS)

	s.router.POST("/api/users/login", s.handleLogin)

	api := s.router.Group("/api", s.authenticate())
	{
		api.GET("/users/me", s.handleMe)

		api.POST("/attendance", s.handleSaveAttendance)
		api.GET("/attendance", s.handleAttendanceHistory)
		api.GET("/attendance/history", s.handleAttendanceHistory)

		api.POST("/delivery", s.handleSaveDelivery)
		api.GET("/delivery/history", s.handleDeliveryHistory)
		api.POST("/delivery/:id/images", s.handleUploadDeliveryImages)

		api.GET("/events", s.handleListEvents)

		api.GET("/announcements", s.handleListAnnouncements)
		api.POST("/announcements", s.requireAdmin(), s.handleCreateAnnouncement)
		api.DELETE("/announcements/:id", s.requireAdmin(), s.handleDeleteAnnouncement)

		api.POST("/push/subscribe", s.handlePushSubscribe)
		api.POST("/push/unsubscribe", s.handlePushUnsubscribe)
	}

	users := api.Group("/users", s.requireAdmin())
	{
		users.GET("", s.handleListUsers)
		users.POST("", s.handleCreateUser)
		users.DELETE("/:id", s.handleDeleteUser)
	}

	admin := api.Group("/admin", s.requireAdmin())
	{
		admin.GET("/attendance/history", s.handleAttendanceHistory)
		admin.PATCH("/attendance/:id", s.handleUpdateAttendance)
		admin.DELETE("/attendance/:id", s.handleDeleteAttendance)

		admin.GET("/delivery/history", s.handleDeliveryHistory)
		admin.PATCH("/delivery/:id", s.handleUpdateDelivery)
		admin.DELETE("/delivery/:id", s.handleDeleteDelivery)
		admin.GET("/delivery/:id/report.pdf", s.handleDeliveryRecordPDF)

		admin.GET("/events", s.handleListEvents)
		admin.GET("/events.ics", s.handleEventsICS)
		admin.POST("/events", s.handleCreateEvent)
		admin.PATCH("/events/:id", s.handleUpdateEvent)
		admin.DELETE("/events/:id", s.handleDeleteEvent)

		admin.GET("/schools", s.handleListSchools)
		admin.POST("/schools", s.handleCreateSchool)
		admin.PATCH("/schools/:id", s.handleUpdateSchool)
		admin.DELETE("/schools/:id", s.handleDeleteSchool)

		admin.GET("/beneficiaries", s.handleListBeneficiaries)
		admin.POST("/beneficiaries", s.handleCreateBeneficiary)
		admin.PATCH("/beneficiaries/:id", s.handleUpdateBeneficiary)
		admin.DELETE("/beneficiaries/:id", s.handleDeleteBeneficiary)

		admin.GET("/school-details", s.handleListDetails)
		admin.POST("/school-details", s.handleCreateDetails)
		admin.PATCH("/school-details/:id", s.handleUpdateDetails)
		admin.DELETE("/school-details/:id", s.handleDeleteDetails)

		admin.POST("/import/:kind", s.handleImport)
		admin.GET("/export/directory.xlsx", s.handleExportDirectory)

		admin.GET("/dashboard", s.handleDashboard)
		admin.GET("/reports/delivery.pdf", s.handleDeliveryReportPDF)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": clients})
}

// attachment sends data as a file download
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
	c.Data(http.StatusOK, contentType, data)
}
