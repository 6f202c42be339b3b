package dashboard

import (
	"bhss/domain/core"
	"bhss/models"
)

// DefaultTopN bounds the ranking lists of a summary
const DefaultTopN = 5

// Input is the raw data a summary is built from
type Input struct {
	From          core.DateKey
	To            core.DateKey
	Attendance    []models.AttendanceRecord
	Deliveries    []models.DeliveryRecord
	Schools       []models.School
	Beneficiaries []models.SchoolBeneficiaryRow
	TopN          int
}

// Totals are the headline counters
type Totals struct {
	AttendanceRecords int `json:"attendanceRecords"`
	Deliveries        int `json:"deliveries"`
	Schools           int `json:"schools"`
	Beneficiaries     int `json:"beneficiaries"`
}

// Summary is the admin dashboard payload
type Summary struct {
	From              core.DateKey      `json:"from"`
	To                core.DateKey      `json:"to"`
	Totals            Totals            `json:"totals"`
	Daily             []DayCount        `json:"daily"`
	StatusBreakdown   []StatusCount     `json:"statusBreakdown"`
	CompletionRate    int               `json:"completionRate"`
	TopSchools        []Ranking         `json:"topSchools"`
	TopMunicipalities []Ranking         `json:"topMunicipalities"`
	Attendance        AttendanceSummary `json:"attendance"`
}

// Build aggregates in into a dashboard summary
func Build(in Input) Summary {
	n := in.TopN
	if n <= 0 {
		n = DefaultTopN
	}

	beneficiaries := 0
	for _, b := range in.Beneficiaries {
		beneficiaries += b.Total
	}

	daily := DailyCounts(in.From, in.To, in.Attendance, in.Deliveries)
	s := Summary{
		From: in.From,
		To:   in.To,
		Totals: Totals{
			AttendanceRecords: len(in.Attendance),
			Deliveries:        len(in.Deliveries),
			Schools:           len(in.Schools),
			Beneficiaries:     beneficiaries,
		},
		Daily:             daily,
		StatusBreakdown:   StatusBreakdown(in.Deliveries),
		CompletionRate:    DeliveryCompletionRate(in.Deliveries),
		TopSchools:        TopSchools(in.Attendance, n),
		TopMunicipalities: TopMunicipalities(in.Deliveries, n),
		Attendance:        SummarizeAttendance(in.Attendance),
	}
	if len(daily) > 0 {
		s.From = daily[0].DateKey
		s.To = daily[len(daily)-1].DateKey
	}
	return s
}
