package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"bhss/models"
)

const (
	icsProductID = "-//BHSS//Feeding Program Calendar//EN"
	icsTimezone  = "Asia/Manila"
	icsStamp     = "20060102T150405Z"
)

var manila = loadLocation(icsTimezone)

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("PHT", 8*60*60)
	}
	return loc
}

// icsEscape escapes TEXT values as RFC 5545 requires
var icsEscape = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// WriteICS renders events as an iCalendar feed. Events with a start time
// become timed events in Manila time; the rest are all-day events.
func WriteICS(w io.Writer, events []models.CalendarEvent, now time.Time) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\r\n", args...)
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", icsProductID)
	line("X-WR-CALNAME:BHSS Calendar")
	line("X-WR-TIMEZONE:%s", icsTimezone)
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")

	for _, event := range events {
		day := event.DateKey.Time()
		if day.IsZero() {
			continue
		}

		line("BEGIN:VEVENT")
		line("UID:%s@bhss", event.ID)
		line("DTSTAMP:%s", now.UTC().Format(icsStamp))
		if start, ok := clockOn(day, event.StartTime); ok {
			end, ok := clockOn(day, event.EndTime)
			if !ok || !end.After(start) {
				end = start.Add(time.Hour)
			}
			line("DTSTART;TZID=%s:%s", icsTimezone, start.Format("20060102T150405"))
			line("DTEND;TZID=%s:%s", icsTimezone, end.Format("20060102T150405"))
		} else {
			line("DTSTART;VALUE=DATE:%s", day.Format("20060102"))
			line("DTEND;VALUE=DATE:%s", day.AddDate(0, 0, 1).Format("20060102"))
		}
		line("SUMMARY:%s", icsEscape.Replace(event.Title))
		if event.Description != "" {
			line("DESCRIPTION:%s", icsEscape.Replace(event.Description))
		}
		if event.Attachment != nil && event.Attachment.URL != "" {
			line("ATTACH:%s", event.Attachment.URL)
		}
		if event.Status == models.EventCancelled {
			line("STATUS:CANCELLED")
		} else {
			line("STATUS:CONFIRMED")
		}
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return bw.Flush()
}

// clockOn combines day with an "HH:MM" clock in Manila time
func clockOn(day time.Time, clock string) (time.Time, bool) {
	if clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, manila), true
}
