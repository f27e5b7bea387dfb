package pipeline

import (
	"sort"
	"strings"

	"github.com/sells-group/domain-cli/internal/model"
)

// legalSuffixes are stripped from the end of a company name before query
// construction. Sorted longest first so "Corporation" beats "Corp".
var legalSuffixes = func() []string {
	s := []string{
		"Inc", "Incorporated", "Corp", "Corporation", "LLC", "Ltd", "Limited",
		"Co", "Company", "LLP", "PLC", "GmbH", "AG", "SA",
	}
	sort.SliceStable(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
	return s
}()

// NormalizeName strips one trailing legal suffix from name. Trailing "." and
// "," around the suffix are tolerated; case is preserved.
func NormalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	base := strings.TrimRight(trimmed, ".")

	for _, suffix := range legalSuffixes {
		if len(base) <= len(suffix) {
			continue
		}
		tail := base[len(base)-len(suffix):]
		if !strings.EqualFold(tail, suffix) {
			continue
		}
		head := base[:len(base)-len(suffix)]
		if last := head[len(head)-1]; last != ' ' && last != ',' {
			continue
		}
		head = strings.TrimRight(head, " ,")
		if head == "" {
			continue
		}
		return head
	}
	return trimmed
}

// GenerateQueries builds the ordered, duplicate-free search queries for a
// company. At least one query is always returned for a non-empty name.
func GenerateQueries(name string, addr model.Address) []string {
	raw := strings.TrimSpace(name)
	normalized := NormalizeName(raw)

	templates := []string{
		`"` + normalized + `" official website`,
		`"` + normalized + `" ` + addr.City + " " + addr.State + " website",
		`"` + normalized + `" headquarters website`,
		`"` + normalized + `" corporate site`,
		normalized + " " + addr.City + " company website",
		`"` + raw + `" official domain`,
	}

	seen := make(map[string]struct{}, len(templates))
	queries := make([]string, 0, len(templates))
	for _, q := range templates {
		q = strings.Join(strings.Fields(q), " ")
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}
	return queries
}
