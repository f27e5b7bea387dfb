package tabular

import (
	"strings"

	"github.com/sells-group/domain-cli/internal/model"
)

var (
	companyHeaders  = []string{"company", "company_name", "name", "business_name", "organization"}
	locationHeaders = []string{"location", "address", "city", "state", "headquarters"}
)

// Columns locates the input fields of a table. An absent column is -1.
type Columns struct {
	Company  int
	Location int
}

// HasCompany reports whether a company column was found.
func (c Columns) HasCompany() bool { return c.Company >= 0 }

// DetectColumns finds the company and location columns. Headers match
// case-insensitively after trimming; the first candidate name in priority
// order wins, regardless of column position.
func DetectColumns(header []string) Columns {
	return Columns{
		Company:  findColumn(header, companyHeaders),
		Location: findColumn(header, locationHeaders),
	}
}

func findColumn(header, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[idx] trimmed, or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseLocation splits a free-form "City, State[, Country]" string. A single
// part is taken as the city. Empty input yields a zero Address.
func ParseLocation(location string) model.Address {
	var parts []string
	for _, p := range strings.Split(location, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var addr model.Address
	switch len(parts) {
	case 0:
	case 1:
		addr.City = parts[0]
	case 2:
		addr.City, addr.State = parts[0], parts[1]
	default:
		addr.City, addr.State, addr.Country = parts[0], parts[1], parts[2]
	}
	return addr
}
