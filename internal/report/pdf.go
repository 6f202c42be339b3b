package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"bhss/domain/core"
	"bhss/internal/dashboard"
	"bhss/models"

	"github.com/go-pdf/fpdf"
)

// Period labels the date range a report covers
type Period struct {
	From core.DateKey
	To   core.DateKey
}

// String renders the period for report headers
func (p Period) String() string {
	switch {
	case p.From.IsZero() && p.To.IsZero():
		return "All dates"
	case p.From.IsZero():
		return "Until " + p.To.String()
	case p.To.IsZero():
		return "From " + p.From.String()
	}
	return p.From.String() + " to " + p.To.String()
}

// document wraps fpdf with the shared page furniture
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDocument(title string, generatedAt time.Time) *document {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("BHSS Feeding Program", true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s  |  Page %d/{nb}",
			generatedAt.In(manila).Format("2006-01-02 15:04"), pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return d
}

func (d *document) heading(title, subtitle string) {
	d.pdf.SetFont("Helvetica", "B", 16)
	d.pdf.SetTextColor(30, 30, 30)
	d.pdf.CellFormat(0, 9, d.tr(title), "", 1, "L", false, 0, "")
	if subtitle != "" {
		d.pdf.SetFont("Helvetica", "", 10)
		d.pdf.SetTextColor(90, 90, 90)
		d.pdf.CellFormat(0, 6, d.tr(subtitle), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(3)
}

func (d *document) table(widths []float64, header []string, rows [][]string) {
	d.pdf.SetFont("Helvetica", "B", 9)
	d.pdf.SetFillColor(217, 234, 211)
	d.pdf.SetTextColor(30, 30, 30)
	for i, h := range header {
		d.pdf.CellFormat(widths[i], 7, d.tr(h), "1", 0, "L", true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Helvetica", "", 9)
	for n, row := range rows {
		fill := n%2 == 1
		d.pdf.SetFillColor(245, 245, 245)
		for i, cell := range row {
			d.pdf.CellFormat(widths[i], 6, d.tr(truncate(cell, widths[i])), "1", 0, "L", fill, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

func (d *document) field(label, value string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.CellFormat(45, 7, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(0, 7, d.tr(value), "", "L", false)
}

func (d *document) write(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// truncate shortens s to roughly fit a cell of width mm at 9pt
func truncate(s string, width float64) string {
	max := int(width / 1.9)
	if max < 4 || len([]rune(s)) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

// WriteDeliverySummary renders the delivery summary report: totals by
// status followed by one table row per record
func WriteDeliverySummary(w io.Writer, period Period, records []models.DeliveryRecord, generatedAt time.Time) error {
	d := newDocument("Delivery Summary", generatedAt)
	d.heading("BHSS Delivery Summary", period.String())

	breakdown := dashboard.StatusBreakdown(records)
	parts := make([]string, 0, len(breakdown))
	for _, s := range breakdown {
		parts = append(parts, fmt.Sprintf("%s: %d", s.Status, s.Count))
	}
	d.field("Total deliveries", fmt.Sprintf("%d", len(records)))
	d.field("By status", strings.Join(parts, "   "))
	d.field("Completion rate", fmt.Sprintf("%d%%", dashboard.DeliveryCompletionRate(records)))
	d.pdf.Ln(4)

	widths := []float64{24, 38, 62, 48, 26, 79}
	header := []string{"Date", "Municipality", "School", "Category", "Status", "Concerns / Remarks"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		category := r.CategoryLabel
		if category == "" {
			category = r.CategoryKey
		}
		notes := strings.Join(r.Concerns, ", ")
		if r.Remarks != "" {
			if notes != "" {
				notes += "; "
			}
			notes += r.Remarks
		}
		rows = append(rows, []string{r.DateKey.String(), r.Municipality, r.School, category, string(r.Status), notes})
	}
	if len(rows) == 0 {
		d.pdf.SetFont("Helvetica", "I", 10)
		d.pdf.CellFormat(0, 8, "No deliveries in this period.", "", 1, "L", false, 0, "")
	} else {
		d.table(widths, header, rows)
	}
	return d.write(w)
}

// WriteDeliveryRecord renders a single delivery record with its images
// listed by file name
func WriteDeliveryRecord(w io.Writer, r models.DeliveryRecord, generatedAt time.Time) error {
	d := newDocument("Delivery Record", generatedAt)
	d.heading("BHSS Delivery Record", r.School+", "+r.Municipality)

	category := r.CategoryLabel
	if category == "" {
		category = r.CategoryKey
	}
	d.field("Date", r.DateKey.String())
	d.field("Category", category)
	d.field("Status", string(r.Status))
	if r.StatusReason != "" {
		d.field("Status reason", r.StatusReason)
	}
	if r.UploadedAt != nil {
		d.field("Uploaded", r.UploadedAt.In(manila).Format("2006-01-02 15:04"))
	}
	if len(r.Concerns) > 0 {
		d.field("Concerns", strings.Join(r.Concerns, ", "))
	}
	if r.Remarks != "" {
		d.field("Remarks", r.Remarks)
	}
	if len(r.Images) > 0 {
		names := make([]string, 0, len(r.Images))
		for _, img := range r.Images {
			names = append(names, img.Filename)
		}
		d.field("Images", strings.Join(names, ", "))
	}
	return d.write(w)
}
