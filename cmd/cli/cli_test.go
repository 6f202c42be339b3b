package main

import (
	"testing"
	"time"

	"bhss/domain/core"
	"bhss/internal/notify"
	"bhss/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterOpts(t *testing.T) {
	opts := filterOpts{from: "2025-06-01", municipality: "Abucay", status: "Delivered"}
	filter, err := opts.filter()
	require.NoError(t, err)
	assert.Equal(t, core.DateKey("2025-06-01"), filter.From)
	assert.Equal(t, "Abucay", filter.Municipality)
	assert.Equal(t, models.DeliveryDelivered, filter.Status)

	_, err = (&filterOpts{to: "June 1"}).filter()
	assert.Error(t, err)
	_, err = (&filterOpts{status: "Lost"}).filter()
	assert.Error(t, err)
}

func TestDescribeNotification(t *testing.T) {
	saved := time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)
	n, err := notify.NewNotification(notify.EventAttendanceSaved, "a1", saved, models.AttendanceRecord{
		ID: "a1", School: "School X", Grade: "Grade 2", Present: 20, Absent: 2,
	})
	require.NoError(t, err)
	assert.Contains(t, describe(n), "attendance  School X Grade 2: 20 present, 2 absent")

	n, err = notify.NewNotification(notify.EventAnnouncementCreated, "n1", saved, models.Announcement{Title: "Holiday"})
	require.NoError(t, err)
	assert.Contains(t, describe(n), "announcement  Holiday")

	unknown := notify.Notification{ID: "x", Event: "custom:event", Timestamp: saved}
	assert.Contains(t, describe(unknown), "custom:event  x")
}
