package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/domain-cli/internal/model"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apple Inc", "Apple"},
		{"Apple Inc.", "Apple"},
		{"Apple, Inc.", "Apple"},
		{"Acme Corporation", "Acme"},
		{"Acme Corp", "Acme"},
		{"Fake Company LLC", "Fake Company"},
		{"Siemens AG", "Siemens"},
		{"Widgets ltd", "Widgets"},
		{"  Padded Co  ", "Padded"},
		{"Tesla", "Tesla"},
		{"Inc", "Inc"},
		{"Zinc", "Zinc"},
		{"Costco", "Costco"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeName_StripsOnlyOneSuffix(t *testing.T) {
	assert.Equal(t, "Acme Company", NormalizeName("Acme Company LLC"))
}

func TestGenerateQueries_WithAddress(t *testing.T) {
	got := GenerateQueries("Apple Inc", model.Address{City: "Cupertino", State: "CA"})

	assert.Equal(t, []string{
		`"Apple" official website`,
		`"Apple" Cupertino CA website`,
		`"Apple" headquarters website`,
		`"Apple" corporate site`,
		`Apple Cupertino company website`,
		`"Apple Inc" official domain`,
	}, got)
}

func TestGenerateQueries_NoAddressCollapsesWhitespace(t *testing.T) {
	got := GenerateQueries("Tesla", model.Address{})

	assert.Contains(t, got, `"Tesla" website`)
	assert.Contains(t, got, `Tesla company website`)
	for _, q := range got {
		assert.NotContains(t, q, "  ")
		assert.Equal(t, strings.TrimSpace(q), q)
	}
}

func TestGenerateQueries_Deduplicates(t *testing.T) {
	// Without a suffix, the raw and normalized names coincide but the
	// templates still differ, so only exact duplicates are dropped.
	got := GenerateQueries("Tesla", model.Address{})
	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q], "duplicate query %q", q)
		seen[q] = true
	}
	assert.NotEmpty(t, got)
	assert.Equal(t, `"Tesla" official website`, got[0])
}

func TestGenerateQueries_Deterministic(t *testing.T) {
	addr := model.Address{City: "Austin", State: "TX"}
	assert.Equal(t, GenerateQueries("Acme Corp", addr), GenerateQueries("Acme Corp", addr))
}
