package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"bhss/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 30, 8, 0, 0, 0, time.UTC)

func TestWriteICS(t *testing.T) {
	events := []models.CalendarEvent{
		{ID: "e1", Title: "Orientation, Day 1", DateKey: "2025-07-01", StartTime: "09:00", EndTime: "11:30", Status: models.EventScheduled},
		{ID: "e2", Title: "Cooking demo", Description: "Bring aprons;\nand hairnets", DateKey: "2025-07-15", Status: models.EventCancelled,
			Attachment: &models.FileRef{URL: "https://files.example/memo.pdf", Filename: "memo.pdf"}},
		{ID: "e3", Title: "Broken", DateKey: "not-a-date"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events, fixedNow))
	body := buf.String()

	for _, field := range []string{
		"BEGIN:VCALENDAR\r\n",
		"VERSION:2.0",
		"PRODID:" + icsProductID,
		"UID:e1@bhss",
		"DTSTAMP:20250630T080000Z",
		"DTSTART;TZID=Asia/Manila:20250701T090000",
		"DTEND;TZID=Asia/Manila:20250701T113000",
		`SUMMARY:Orientation\, Day 1`,
		"DTSTART;VALUE=DATE:20250715",
		"DTEND;VALUE=DATE:20250716",
		`DESCRIPTION:Bring aprons\;\nand hairnets`,
		"ATTACH:https://files.example/memo.pdf",
		"STATUS:CANCELLED",
		"END:VCALENDAR",
	} {
		assert.Contains(t, body, field)
	}
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"), "events with invalid dates are skipped")
}

func TestWriteICSDefaultsEndTime(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, []models.CalendarEvent{
		{ID: "e1", Title: "Meeting", DateKey: "2025-07-01", StartTime: "14:00"},
	}, fixedNow))
	assert.Contains(t, buf.String(), "DTEND;TZID=Asia/Manila:20250701T150000")
}

func TestPeriodString(t *testing.T) {
	assert.Equal(t, "All dates", Period{}.String())
	assert.Equal(t, "From 2025-06-01", Period{From: "2025-06-01"}.String())
	assert.Equal(t, "2025-06-01 to 2025-06-30", Period{From: "2025-06-01", To: "2025-06-30"}.String())
}

func TestWriteDeliverySummary(t *testing.T) {
	records := []models.DeliveryRecord{
		{DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", CategoryKey: "rice", Status: models.DeliveryDelivered},
		{DateKey: "2025-06-03", Municipality: "Abucay", School: "Escuela Niño", CategoryLabel: "Vegetables", Status: models.DeliveryDelayed,
			Concerns: models.StringList{"late truck"}, Remarks: "arrived 2pm"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDeliverySummary(&buf, Period{From: "2025-06-01", To: "2025-06-30"}, records, fixedNow))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestWriteDeliverySummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDeliverySummary(&buf, Period{}, nil, fixedNow))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteDeliveryRecord(t *testing.T) {
	uploaded := fixedNow.Add(-time.Hour)
	record := models.DeliveryRecord{
		DateKey:      "2025-06-02",
		Municipality: "Abucay",
		School:       "School X",
		CategoryKey:  "rice",
		Status:       models.DeliveryCancelled,
		StatusReason: "flooded road",
		UploadedAt:   &uploaded,
		Images:       models.FileRefList{{URL: "/uploads/a.jpg", Filename: "a.jpg"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDeliveryRecord(&buf, record, fixedNow))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	long := strings.Repeat("a", 100)
	got := truncate(long, 38)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasSuffix(got, "..."))
}
