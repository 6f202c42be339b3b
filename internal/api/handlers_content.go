package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"bhss/internal/errors"
	"bhss/internal/notify"
	"bhss/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListEvents(c *gin.Context) {
	filter, ok := queryFilter(c, "handleListEvents")
	if !ok {
		return
	}
	events, err := s.svc.Events.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "handleListEvents", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var in models.EventInput
	if !bindJSON(c, "handleCreateEvent", &in) {
		return
	}
	event, err := s.svc.Events.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, "handleCreateEvent", err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	id, ok := pathID(c, "handleUpdateEvent")
	if !ok {
		return
	}
	var patch models.EventPatch
	if !bindJSON(c, "handleUpdateEvent", &patch) {
		return
	}
	event, err := s.svc.Events.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "handleUpdateEvent", err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteEvent")
	if !ok {
		return
	}
	if err := s.svc.Events.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "handleDeleteEvent", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleEventsICS(c *gin.Context) {
	filter, ok := queryFilter(c, "handleEventsICS")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Events.WriteICS(c.Request.Context(), &buf, filter); err != nil {
		respondError(c, "handleEventsICS", err)
		return
	}
	attachment(c, "bhss-calendar.ics", "text/calendar; charset=utf-8", buf.Bytes())
}

func (s *Server) handleListAnnouncements(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(c, "handleListAnnouncements", errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	announcements, err := s.svc.Announcements.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "handleListAnnouncements", err)
		return
	}
	c.JSON(http.StatusOK, announcements)
}

func (s *Server) handleCreateAnnouncement(c *gin.Context) {
	var in models.AnnouncementInput
	if !bindJSON(c, "handleCreateAnnouncement", &in) {
		return
	}
	announcement, err := s.svc.Announcements.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, "handleCreateAnnouncement", err)
		return
	}
	c.JSON(http.StatusCreated, announcement)
}

func (s *Server) handleDeleteAnnouncement(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteAnnouncement")
	if !ok {
		return
	}
	if err := s.svc.Announcements.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "handleDeleteAnnouncement", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePushSubscribe(c *gin.Context) {
	var in models.PushSubscriptionInput
	if !bindJSON(c, "handlePushSubscribe", &in) {
		return
	}
	sub, err := s.svc.Push.Subscribe(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, "handlePushSubscribe", err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) handlePushUnsubscribe(c *gin.Context) {
	var body struct {
		Endpoint string `json:"endpoint"`
	}
	if !bindJSON(c, "handlePushUnsubscribe", &body) {
		return
	}
	if body.Endpoint == "" {
		respondError(c, "handlePushUnsubscribe", errors.ValidationError("endpoint is required"))
		return
	}
	if err := s.svc.Push.Unsubscribe(c.Request.Context(), currentUser(c).ID, body.Endpoint); err != nil {
		respondError(c, "handlePushUnsubscribe", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleWS upgrades to the notification socket. ?since=<unix ms> asks for
// the notifications missed since then.
func (s *Server) handleWS(c *gin.Context) {
	if s.hub == nil {
		respondError(c, "handleWS", errors.InternalError("notifications are not enabled"))
		return
	}
	var since time.Time
	if v := c.Query("since"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, "handleWS", errors.InvalidInput("since must be unix milliseconds"))
			return
		}
		since = time.UnixMilli(ms)
	}
	user := currentUser(c)
	s.hub.ServeWS(c.Writer, c.Request, notify.Subscriber{
		UserID:       user.ID.String(),
		Admin:        user.IsAdmin(),
		Municipality: user.Municipality,
		School:       user.School,
	}, since)
}
