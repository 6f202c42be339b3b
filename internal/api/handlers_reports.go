package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bhss/internal/dashboard"
	"bhss/internal/errors"
	"bhss/internal/report"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleDashboard(c *gin.Context) {
	filter, ok := queryFilter(c, "handleDashboard")
	if !ok {
		return
	}
	topN := dashboard.DefaultTopN
	if v := c.Query("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, "handleDashboard", errors.InvalidInput("top must be a positive integer"))
			return
		}
		topN = n
	}
	summary, err := s.svc.Dashboard.Summary(c.Request.Context(), filter, topN)
	if err != nil {
		respondError(c, "handleDashboard", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleDeliveryReportPDF(c *gin.Context) {
	filter, ok := queryFilter(c, "handleDeliveryReportPDF")
	if !ok {
		return
	}
	records, err := s.svc.Deliveries.History(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, "handleDeliveryReportPDF", err)
		return
	}

	var buf bytes.Buffer
	period := report.Period{From: filter.From, To: filter.To}
	if err := report.WriteDeliverySummary(&buf, period, records, time.Now()); err != nil {
		respondError(c, "handleDeliveryReportPDF", errors.Wrap(err, "failed to render delivery report"))
		return
	}
	attachment(c, "bhss-delivery-summary.pdf", "application/pdf", buf.Bytes())
}

func (s *Server) handleDeliveryRecordPDF(c *gin.Context) {
	id, ok := pathID(c, "handleDeliveryRecordPDF")
	if !ok {
		return
	}
	record, err := s.svc.Deliveries.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "handleDeliveryRecordPDF", err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteDeliveryRecord(&buf, *record, time.Now()); err != nil {
		respondError(c, "handleDeliveryRecordPDF", errors.Wrap(err, "failed to render delivery record"))
		return
	}
	attachment(c, fmt.Sprintf("delivery-%s-%s.pdf", record.DateKey, record.ID), "application/pdf", buf.Bytes())
}
