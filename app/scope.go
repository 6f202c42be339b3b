package app

import (
	"log"
	"time"

	"bhss/internal/errors"
	"bhss/internal/importer"
	"bhss/internal/notify"
	"bhss/models"
)

// scopeFilter pins a field user's history queries to their assigned school
func scopeFilter(actor *models.User, f models.RecordFilter) models.RecordFilter {
	if actor == nil || actor.IsAdmin() {
		return f
	}
	if actor.Municipality != "" {
		f.Municipality = actor.Municipality
	}
	if actor.School != "" {
		f.School = actor.School
	}
	return f
}

// checkScope rejects field users writing records for a school other than
// the one they are assigned to. Unassigned users may record any school.
func checkScope(actor *models.User, municipality, school string) error {
	if actor == nil {
		return errors.Unauthorized("authentication required")
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Municipality != "" && importer.NormalizeName(actor.Municipality) != importer.NormalizeName(municipality) {
		return errors.Forbidden("you can only record data for " + actor.Municipality)
	}
	if actor.School != "" && importer.NormalizeName(actor.School) != importer.NormalizeName(school) {
		return errors.Forbidden("you can only record data for " + actor.School)
	}
	return nil
}

// publish sends a change notification when a publisher is configured. Only
// admins and users assigned to audience receive it.
func publish(pub notify.Publisher, event notify.Event, recordID string, savedAt time.Time, audience notify.Audience, data interface{}) {
	if pub == nil {
		return
	}
	n, err := notify.NewNotification(event, recordID, savedAt, data)
	if err != nil {
		log.Printf("[Notify] WARNING: %v", err)
		return
	}
	n.Audience = audience
	pub.Publish(n)
}

func recordAudience(municipality, school string) notify.Audience {
	return notify.Audience{Municipality: municipality, School: school}
}
