package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCertificatePDF(t *testing.T) {
	exporter := NewCertificatePDFExporter()
	doc := CertificateDocument{
		Number:         "001/ACME/PKL/5/2025",
		StudentName:    "Budi Santoso",
		StudentNIS:     "12345",
		School:         "SMKN 1 Tasikmalaya",
		Major:          "Rekayasa Perangkat Lunak",
		CompanyName:    "Acme Corp",
		Place:          "Tasikmalaya",
		StartDate:      "10 Januari 2025",
		EndDate:        "5 April 2025",
		DurationMonths: 3,
		AverageScore:   87.5,
		Predicate:      "BAIK",
		SignerName:     "Siti Rahma",
		SignerRole:     "Pembimbing",
		IssuedAt:       "5 Mei 2025",
		PersonalityScores: []CertificateScoreRow{
			{Name: "Disiplin", Score: 85},
			{Name: "Tanggung Jawab", Score: 90},
		},
		TechnicalScores: []CertificateScoreRow{
			{Name: "Pemrograman Web", Score: 87.5},
		},
	}

	data, err := exporter.Render(doc)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderCertificatePDFRequiresNumber(t *testing.T) {
	exporter := NewCertificatePDFExporter()
	_, err := exporter.Render(CertificateDocument{StudentName: "Budi Santoso"})
	assert.Error(t, err)
}
