package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// CertificateScoreRow is one assessed competency printed in the annex.
type CertificateScoreRow struct {
	Name  string
	Score float64
}

// CertificateDocument carries everything the certificate layout prints.
type CertificateDocument struct {
	Number            string
	StudentName       string
	StudentNIS        string
	School            string
	Major             string
	CompanyName       string
	Place             string
	StartDate         string
	EndDate           string
	DurationMonths    int
	AverageScore      float64
	Predicate         string
	SignerName        string
	SignerRole        string
	IssuedAt          string
	PersonalityScores []CertificateScoreRow
	TechnicalScores   []CertificateScoreRow
}

// CertificatePDFExporter renders issued certificates as A4 portrait PDFs with
// a score annex on the second page.
type CertificatePDFExporter struct{}

// NewCertificatePDFExporter constructs a certificate exporter.
func NewCertificatePDFExporter() *CertificatePDFExporter {
	return &CertificatePDFExporter{}
}

// Render produces the certificate PDF bytes.
func (e *CertificatePDFExporter) Render(doc CertificateDocument) ([]byte, error) {
	if doc.Number == "" {
		return nil, fmt.Errorf("certificate requires a number")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 12, "SERTIFIKAT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Praktik Kerja Lapangan", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Nomor: %s", doc.Number), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "Diberikan kepada:", "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, strings.ToUpper(doc.StudentName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if doc.StudentNIS != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("NIS: %s", doc.StudentNIS), "", 1, "C", false, 0, "")
	}
	if doc.School != "" {
		pdf.CellFormat(0, 6, doc.School, "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	body := fmt.Sprintf(
		"telah menyelesaikan Praktik Kerja Lapangan di %s selama %d bulan, terhitung sejak %s sampai dengan %s",
		doc.CompanyName, doc.DurationMonths, doc.StartDate, doc.EndDate)
	if doc.Major != "" {
		body += fmt.Sprintf(", pada bidang keahlian %s", doc.Major)
	}
	pdf.MultiCell(0, 6, body, "", "C", false)
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "dengan hasil:", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 9, doc.Predicate, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Nilai Rata-rata: %.2f", doc.AverageScore), "", 1, "C", false, 0, "")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s, %s", doc.Place, doc.IssuedAt), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, doc.SignerRole, "", 1, "R", false, 0, "")
	pdf.Ln(18)
	pdf.SetFont("Arial", "BU", 10)
	pdf.CellFormat(0, 6, doc.SignerName, "", 1, "R", false, 0, "")

	if len(doc.PersonalityScores) > 0 || len(doc.TechnicalScores) > 0 {
		e.renderAnnex(pdf, doc)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *CertificatePDFExporter) renderAnnex(pdf *gofpdf.Fpdf, doc CertificateDocument) {
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, "LAMPIRAN NILAI", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Nomor: %s", doc.Number), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	e.scoreTable(pdf, "A. Aspek Kepribadian", doc.PersonalityScores)
	pdf.Ln(4)
	e.scoreTable(pdf, "B. Aspek Teknis", doc.TechnicalScores)

	pdf.Ln(6)
	total := 0.0
	for _, row := range doc.PersonalityScores {
		total += row.Score
	}
	for _, row := range doc.TechnicalScores {
		total += row.Score
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 7, "Jumlah", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", total), "1", 1, "C", false, 0, "")
	pdf.CellFormat(130, 7, "Rata-rata", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", doc.AverageScore), "1", 1, "C", false, 0, "")
}

func (e *CertificatePDFExporter) scoreTable(pdf *gofpdf.Fpdf, title string, rows []CertificateScoreRow) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(130, 7, "Kompetensi", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 7, "Nilai", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		pdf.CellFormat(130, 7, row.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", row.Score), "1", 1, "C", false, 0, "")
	}
	if len(rows) == 0 {
		pdf.CellFormat(170, 7, "-", "1", 1, "C", false, 0, "")
	}
}
