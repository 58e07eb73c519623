package infra

// pdf.go — venue time-off summary generation using go-pdf/fpdf.
// Produces an A4 report listing every approved absence at a venue for a given
// month: staff name, date range, day count, reviewer. The output file is saved
// to storagePath/timeoff_{venue}_{month}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
)

// TimeOffReportRow is one approved absence line in the summary.
type TimeOffReportRow struct {
	StaffName    string
	StartDate    time.Time
	EndDate      time.Time
	Days         string
	ReviewerName string
}

// GenerateTimeOffReportPDF writes the monthly summary for one venue.
// Returns the absolute path to the generated file.
func GenerateTimeOffReportPDF(venueName string, month time.Time, rows []TimeOffReportRow, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("timeoff_%s_%s.pdf", sanitize(venueName), month.Format("2006-01"))
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Time-Off Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("%s — %s", venueName, month.Format("January 2006")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Table header ─────────────────────────────────────────────────────────
	colW := []float64{55, 30, 30, 20, 45}
	headers := []string{"Staff", "From", "To", "Days", "Approved by"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(colW[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	// ── Rows ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(colW[0], 6, row.StaffName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 6, row.StartDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[2], 6, row.EndDate.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 6, row.Days, "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[4], 6, row.ReviewerName, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	if len(rows) == 0 {
		pdf.CellFormat(contentW, 6, "No approved time off this month.", "1", 1, "C", false, 0, "")
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Generated %s", time.Now().Format(time.RFC3339)), "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
