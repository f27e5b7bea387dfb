package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-cli/internal/model"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   Columns
	}{
		{"exact", []string{"company", "location"}, Columns{0, 1}},
		{"case and space", []string{" Location ", "COMPANY_NAME"}, Columns{1, 0}},
		{"priority over position", []string{"name", "company"}, Columns{1, -1}},
		{"city as location", []string{"organization", "state", "city"}, Columns{0, 2}},
		{"none", []string{"id", "notes"}, Columns{-1, -1}},
		{"substring is not a match", []string{"company_id", "address_line"}, Columns{-1, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectColumns(tt.header)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Company >= 0, got.HasCompany())
		})
	}
}

func TestCell(t *testing.T) {
	row := []string{" Apple ", ""}
	assert.Equal(t, "Apple", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want model.Address
	}{
		{"", model.Address{}},
		{"   ", model.Address{}},
		{"Cupertino", model.Address{City: "Cupertino"}},
		{"Cupertino, CA", model.Address{City: "Cupertino", State: "CA"}},
		{"Toronto, ON, Canada", model.Address{City: "Toronto", State: "ON", Country: "Canada"}},
		{"Austin,,TX", model.Address{City: "Austin", State: "TX"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLocation(tt.in))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	domain := "apple.com"
	tbl := &Table{
		Header: []string{"company", "location"},
		Rows: [][]string{
			{"Apple Inc", "Cupertino, CA"},
			{"", ""},
		},
	}
	results := []*model.EnrichmentResult{
		{PrimaryDomain: &domain, ConfidenceScore: 0.95, VerificationStatus: model.StatusVerified, ProcessingTimeMs: 1234},
		nil,
	}

	out, err := WriteCSV(tbl, results)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "company,location,primary_domain,confidence_score,verification_status,processing_time_ms", lines[0])
	assert.Equal(t, `Apple Inc,"Cupertino, CA",apple.com,0.95,verified,1234`, lines[1])
	assert.Equal(t, ",,,0,processing_error,0", lines[2])
}

func TestWriteCSV_MisalignedResults(t *testing.T) {
	_, err := WriteCSV(&Table{Header: []string{"company"}, Rows: [][]string{{"a"}}}, nil)
	assert.Error(t, err)
}
