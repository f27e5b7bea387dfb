package tabular

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-cli/internal/model"
)

// OutputColumns are appended to the input header in enriched output.
var OutputColumns = []string{"primary_domain", "confidence_score", "verification_status", "processing_time_ms"}

// WriteCSV renders the table with the enrichment columns appended. results
// must be aligned with t.Rows; a nil entry marks a failed row.
func WriteCSV(t *Table, results []*model.EnrichmentResult) ([]byte, error) {
	if len(results) != len(t.Rows) {
		return nil, eris.Errorf("tabular: %d results for %d rows", len(results), len(t.Rows))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(t.Header)+len(OutputColumns))
	header = append(header, t.Header...)
	header = append(header, OutputColumns...)
	if err := w.Write(header); err != nil {
		return nil, eris.Wrap(err, "tabular: write header")
	}

	for i, row := range t.Rows {
		out := make([]string, 0, len(row)+len(OutputColumns))
		out = append(out, row...)
		out = append(out, resultCells(results[i])...)
		if err := w.Write(out); err != nil {
			return nil, eris.Wrapf(err, "tabular: write row %d", i)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "tabular: flush")
	}
	return buf.Bytes(), nil
}

func resultCells(r *model.EnrichmentResult) []string {
	if r == nil {
		return []string{"", "0", model.StatusProcessingError, "0"}
	}
	domain := ""
	if r.PrimaryDomain != nil {
		domain = *r.PrimaryDomain
	}
	return []string{
		domain,
		strconv.FormatFloat(r.ConfidenceScore, 'f', -1, 64),
		string(r.VerificationStatus),
		strconv.FormatInt(r.ProcessingTimeMs, 10),
	}
}
