package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

// FileName is the download name of a report's PDF.
func FileName(reportID string) string {
	return "sentrix_report_" + reportID + ".pdf"
}

// RenderPDF writes a plain single-column PDF of the report to w.
func RenderPDF(w io.Writer, r contracts.RiskReport) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(r.Title, true)
	pdf.SetAuthor("SentriX", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(asciiOnly(r.Title)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	meta := [][2]string{
		{"Report ID:", r.ReportID},
		{"Session ID:", r.SessionID},
		{"Generated:", r.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Type:", titleWord(string(r.ReportType))},
	}
	for _, row := range meta {
		pdf.CellFormat(35, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(90, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	heading(pdf, "Executive Summary")
	pdf.MultiCell(0, 5, tr(r.ExecutiveSummary), "", "L", false)
	pdf.Ln(4)

	if len(r.PoliticalRisks) > 0 {
		heading(pdf, "Political Risk Analysis")
		widths := []float64{28, 35, 14, 70, 45}
		tableRow(pdf, widths, true, "Country", "Risk Type", "Score", "Reasoning", "Source")
		for _, p := range r.PoliticalRisks {
			tableRow(pdf, widths, false,
				tr(p.Country),
				tr(p.RiskType),
				strconv.Itoa(p.LikelihoodScore),
				tr(truncate(p.Reasoning, 50)),
				tr(truncate(p.SourceTitle, 30)),
			)
		}
		pdf.Ln(4)
	}

	if len(r.ScheduleRisks) > 0 {
		heading(pdf, "Schedule Risk Analysis")
		widths := []float64{30, 30, 22, 22, 80}
		tableRow(pdf, widths, true, "Equipment ID", "Country", "Delay Days", "Risk Level", "Risk Factors")
		for _, s := range r.ScheduleRisks {
			factors := s.RiskFactors
			if len(factors) > 2 {
				factors = factors[:2]
			}
			tableRow(pdf, widths, false,
				tr(s.EquipmentID),
				tr(s.Country),
				strconv.Itoa(s.DelayDays),
				strconv.Itoa(s.RiskLevel),
				tr(strings.Join(factors, ", ")),
			)
		}
		pdf.Ln(4)
	}

	if r.RouteAnalysis != "" {
		heading(pdf, "Route Analysis")
		pdf.MultiCell(0, 5, tr(asciiOnly(r.RouteAnalysis)), "", "L", false)
		pdf.Ln(4)
	}

	if len(r.Recommendations) > 0 {
		heading(pdf, "Recommendations")
		for i, rec := range r.Recommendations {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, rec)), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func tableRow(pdf *fpdf.Fpdf, widths []float64, header bool, cells ...string) {
	if header {
		pdf.SetFont("Helvetica", "B", 9)
	} else {
		pdf.SetFont("Helvetica", "", 9)
	}
	for i, c := range cells {
		pdf.CellFormat(widths[i], 7, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// asciiOnly drops pictographs the core PDF fonts cannot encode.
func asciiOnly(s string) string {
	s = strings.ReplaceAll(s, "→", "->")
	return strings.Map(func(r rune) rune {
		if r > 0xFF && r != '•' {
			return -1
		}
		return r
	}, s)
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
