package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSequenceReader struct {
	issued map[string]int
}

func (m *mockSequenceReader) NextSequence(ctx context.Context, companyCode string, month, year int) (int, error) {
	key := scopeKey(companyCode, month, year)
	return m.issued[key] + 1, nil
}

func (m *mockSequenceReader) issue(companyCode string, month, year int) {
	if m.issued == nil {
		m.issued = make(map[string]int)
	}
	m.issued[scopeKey(companyCode, month, year)]++
}

func scopeKey(code string, month, year int) string {
	return code + "|" + time.Month(month).String() + "|" + time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}

func TestFormatCertificateNumber(t *testing.T) {
	assert.Equal(t, "007/ACME/PKL/3/2025", FormatCertificateNumber(7, "ACME", 3, 2025))
	assert.Equal(t, "042/TELKOM/PKL/11/2024", FormatCertificateNumber(42, "TELKOM", 11, 2024))
	assert.Equal(t, "100/ACME/PKL/1/2025", FormatCertificateNumber(100, "ACME", 1, 2025))
}

func TestSequencerNextIncreasesWithinScope(t *testing.T) {
	reader := &mockSequenceReader{}
	seq := NewCertificateSequencer(reader)
	at := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

	first, err := seq.Next(context.Background(), "ACME", at)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	reader.issue("ACME", 3, 2025)
	second, err := seq.Next(context.Background(), "ACME", at)
	require.NoError(t, err)
	assert.Equal(t, 2, second)
}

func TestSequencerScopesAreIndependent(t *testing.T) {
	reader := &mockSequenceReader{}
	reader.issue("ACME", 3, 2025)
	reader.issue("ACME", 3, 2025)
	seq := NewCertificateSequencer(reader)

	march := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	inScope, err := seq.Next(context.Background(), "ACME", march)
	require.NoError(t, err)
	assert.Equal(t, 3, inScope)

	nextMonth, err := seq.Next(context.Background(), "ACME", april)
	require.NoError(t, err)
	assert.Equal(t, 1, nextMonth)

	otherCompany, err := seq.Next(context.Background(), "TELKOM", march)
	require.NoError(t, err)
	assert.Equal(t, 1, otherCompany)
}

func TestSequencerPreview(t *testing.T) {
	reader := &mockSequenceReader{}
	reader.issue("ACME", 6, 2025)
	seq := NewCertificateSequencer(reader)
	seq.now = func() time.Time { return time.Date(2025, time.June, 20, 9, 0, 0, 0, time.UTC) }

	preview, err := seq.Preview(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 2, preview.NextSequenceNumber)
	assert.Equal(t, "ACME", preview.CompanyCode)
	assert.Equal(t, "002/ACME/PKL/6/2025", preview.Number)
}
