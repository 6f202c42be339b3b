package api

import (
	"net/http"

	"bhss/app"
	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/models"

	"github.com/gin-gonic/gin"
)

// pathID parses the :id route parameter
func pathID(c *gin.Context, handler string) (core.ID, bool) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, handler, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

// queryFilter parses the history filter from the query string
func queryFilter(c *gin.Context, handler string) (models.RecordFilter, bool) {
	filter, err := models.ParseRecordFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, handler, errors.InvalidInput(err.Error()))
		return filter, false
	}
	return filter, true
}

func (s *Server) handleSaveAttendance(c *gin.Context) {
	var in models.AttendanceInput
	if !bindJSON(c, "handleSaveAttendance", &in) {
		return
	}
	record, err := s.svc.Attendance.Save(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, "handleSaveAttendance", err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleAttendanceHistory(c *gin.Context) {
	filter, ok := queryFilter(c, "handleAttendanceHistory")
	if !ok {
		return
	}
	records, err := s.svc.Attendance.History(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, "handleAttendanceHistory", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleUpdateAttendance(c *gin.Context) {
	id, ok := pathID(c, "handleUpdateAttendance")
	if !ok {
		return
	}
	var patch models.AttendancePatch
	if !bindJSON(c, "handleUpdateAttendance", &patch) {
		return
	}
	record, err := s.svc.Attendance.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "handleUpdateAttendance", err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleDeleteAttendance(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteAttendance")
	if !ok {
		return
	}
	if err := s.svc.Attendance.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "handleDeleteAttendance", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSaveDelivery(c *gin.Context) {
	var in models.DeliveryInput
	if !bindJSON(c, "handleSaveDelivery", &in) {
		return
	}
	record, err := s.svc.Deliveries.Save(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, "handleSaveDelivery", err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleDeliveryHistory(c *gin.Context) {
	filter, ok := queryFilter(c, "handleDeliveryHistory")
	if !ok {
		return
	}
	records, err := s.svc.Deliveries.History(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, "handleDeliveryHistory", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleUpdateDelivery(c *gin.Context) {
	id, ok := pathID(c, "handleUpdateDelivery")
	if !ok {
		return
	}
	var patch models.DeliveryPatch
	if !bindJSON(c, "handleUpdateDelivery", &patch) {
		return
	}
	record, err := s.svc.Deliveries.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "handleUpdateDelivery", err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleDeleteDelivery(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteDelivery")
	if !ok {
		return
	}
	if err := s.svc.Deliveries.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "handleDeleteDelivery", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleUploadDeliveryImages accepts a multipart form with one or more
// "images" files
func (s *Server) handleUploadDeliveryImages(c *gin.Context) {
	id, ok := pathID(c, "handleUploadDeliveryImages")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, "handleUploadDeliveryImages", errors.InvalidInput("expected a multipart form"))
		return
	}

	headers := form.File["images"]
	uploads := make([]app.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(c, "handleUploadDeliveryImages", errors.Wrapf(err, "failed to open %s", fh.Filename))
			return
		}
		defer f.Close()
		uploads = append(uploads, app.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	record, err := s.svc.Deliveries.AddImages(c.Request.Context(), currentUser(c), id, uploads)
	if err != nil {
		respondError(c, "handleUploadDeliveryImages", err)
		return
	}
	c.JSON(http.StatusOK, record)
}
