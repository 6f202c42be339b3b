package dashboard

import (
	"fmt"
	"math"
	"sort"

	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/models"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// DayCount is one bucket of the daily activity chart
type DayCount struct {
	DateKey           core.DateKey `json:"dateKey"`
	AttendanceRecords int          `json:"attendanceRecords"`
	Present           int          `json:"present"`
	Deliveries        int          `json:"deliveries"`
}

// StatusCount is one slice of the delivery status breakdown
type StatusCount struct {
	Status models.DeliveryStatus `json:"status"`
	Count  int                   `json:"count"`
}

// Ranking is one entry of a top-N list
type Ranking struct {
	Name         string `json:"name"`
	Municipality string `json:"municipality,omitempty"`
	Value        int    `json:"value"`
}

// AttendanceSummary condenses attendance over the period
type AttendanceSummary struct {
	Records            int     `json:"records"`
	Present            int     `json:"present"`
	Absent             int     `json:"absent"`
	Rate               float64 `json:"rate"`
	MedianDailyPresent float64 `json:"medianDailyPresent"`
}

// MaxRangeDays bounds the daily chart of one summary
const MaxRangeDays = 731

// ValidateRange rejects an explicit from/to pair spanning more than
// MaxRangeDays
func ValidateRange(from, to core.DateKey) error {
	if from.IsZero() || to.IsZero() {
		return nil
	}
	if to < from {
		return errors.InvalidInput("from must not be after to")
	}
	if core.SpanDays(from, to) > MaxRangeDays {
		return errors.InvalidInput(fmt.Sprintf("date range must not exceed %d days", MaxRangeDays))
	}
	return nil
}

// DailyCounts buckets records per day from from to to inclusive. Empty bounds
// are taken from the records; records outside the range are ignored. A span
// longer than MaxRangeDays keeps only its last MaxRangeDays days.
func DailyCounts(from, to core.DateKey, attendance []models.AttendanceRecord, deliveries []models.DeliveryRecord) []DayCount {
	if from.IsZero() || to.IsZero() {
		lo, hi := dateBounds(attendance, deliveries)
		if from.IsZero() {
			from = lo
		}
		if to.IsZero() {
			to = hi
		}
	}
	if core.SpanDays(from, to) > MaxRangeDays {
		from = to.AddDays(1 - MaxRangeDays)
	}

	days := core.DaysBetween(from, to)
	buckets := make([]DayCount, len(days))
	index := make(map[core.DateKey]int, len(days))
	for i, d := range days {
		buckets[i].DateKey = d
		index[d] = i
	}

	for _, r := range attendance {
		if i, ok := index[r.DateKey]; ok {
			buckets[i].AttendanceRecords++
			buckets[i].Present += r.Present
		}
	}
	for _, r := range deliveries {
		if i, ok := index[r.DateKey]; ok {
			buckets[i].Deliveries++
		}
	}
	return buckets
}

func dateBounds(attendance []models.AttendanceRecord, deliveries []models.DeliveryRecord) (lo, hi core.DateKey) {
	see := func(d core.DateKey) {
		if d.IsZero() {
			return
		}
		if lo.IsZero() || d < lo {
			lo = d
		}
		if hi.IsZero() || d > hi {
			hi = d
		}
	}
	for _, r := range attendance {
		see(r.DateKey)
	}
	for _, r := range deliveries {
		see(r.DateKey)
	}
	return lo, hi
}

// StatusBreakdown counts deliveries per status, listing every status even
// when its count is zero
func StatusBreakdown(deliveries []models.DeliveryRecord) []StatusCount {
	counts := make(map[models.DeliveryStatus]int, len(models.DeliveryStatuses))
	for _, r := range deliveries {
		status := r.Status
		if status == "" {
			status = models.DeliveryPending
		}
		counts[status]++
	}
	out := make([]StatusCount, 0, len(models.DeliveryStatuses))
	for _, s := range models.DeliveryStatuses {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

// TopSchools ranks schools by total present count
func TopSchools(attendance []models.AttendanceRecord, n int) []Ranking {
	type key struct{ municipality, school string }
	totals := make(map[key]int)
	for _, r := range attendance {
		totals[key{r.Municipality, r.School}] += r.Present
	}
	rankings := make([]Ranking, 0, len(totals))
	for k, v := range totals {
		rankings = append(rankings, Ranking{Name: k.school, Municipality: k.municipality, Value: v})
	}
	return top(rankings, n)
}

// TopMunicipalities ranks municipalities by number of deliveries
func TopMunicipalities(deliveries []models.DeliveryRecord, n int) []Ranking {
	totals := make(map[string]int)
	for _, r := range deliveries {
		totals[r.Municipality]++
	}
	rankings := make([]Ranking, 0, len(totals))
	for name, v := range totals {
		rankings = append(rankings, Ranking{Name: name, Value: v})
	}
	return top(rankings, n)
}

// top sorts by value descending, then by name, and keeps the first n
func top(rankings []Ranking, n int) []Ranking {
	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].Value != rankings[j].Value {
			return rankings[i].Value > rankings[j].Value
		}
		if rankings[i].Name != rankings[j].Name {
			return rankings[i].Name < rankings[j].Name
		}
		return rankings[i].Municipality < rankings[j].Municipality
	})
	if n > 0 && len(rankings) > n {
		rankings = rankings[:n]
	}
	return rankings
}

// CompletionRate is round(delivered / total * 100), or 0 when total is 0
func CompletionRate(delivered, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(delivered) / float64(total) * 100))
}

// DeliveryCompletionRate applies CompletionRate to a set of deliveries
func DeliveryCompletionRate(deliveries []models.DeliveryRecord) int {
	delivered := 0
	for _, r := range deliveries {
		if r.Status == models.DeliveryDelivered {
			delivered++
		}
	}
	return CompletionRate(delivered, len(deliveries))
}

// SummarizeAttendance computes the headcount-weighted attendance rate and
// the median of daily present totals
func SummarizeAttendance(attendance []models.AttendanceRecord) AttendanceSummary {
	summary := AttendanceSummary{Records: len(attendance)}

	rates := make([]float64, 0, len(attendance))
	weights := make([]float64, 0, len(attendance))
	daily := make(map[core.DateKey]float64)
	for _, r := range attendance {
		summary.Present += r.Present
		summary.Absent += r.Absent
		daily[r.DateKey] += float64(r.Present)
		if total := r.Total(); total > 0 {
			rates = append(rates, float64(r.Present)/float64(total)*100)
			weights = append(weights, float64(total))
		}
	}

	if len(rates) > 0 {
		summary.Rate = math.Round(stat.Mean(rates, weights)*10) / 10
	}

	perDay := make([]float64, 0, len(daily))
	for _, v := range daily {
		perDay = append(perDay, v)
	}
	if median, err := stats.Median(perDay); err == nil {
		summary.MedianDailyPresent = median
	}
	return summary
}
