package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/domain-cli/internal/model"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return eris.Errorf("unknown output format %q (want text, json or yaml)", format)
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	}
	return checkFormat(format)
}

func domainText(d *string) string {
	if d == nil {
		return "(none)"
	}
	return *d
}

func writeSummaryText(w io.Writer, company string, s model.Summary) {
	fmt.Fprintf(w, "Company:      %s\n", company)
	fmt.Fprintf(w, "Domain:       %s\n", domainText(s.PrimaryDomain))
	fmt.Fprintf(w, "Confidence:   %s\n", strconv.FormatFloat(s.ConfidenceScore, 'f', 2, 64))
	fmt.Fprintf(w, "Verification: %s\n", s.VerificationStatus)
	fmt.Fprintf(w, "Time:         %dms\n", s.ProcessingTimeMs)
}

// writeResultText prints the summary followed by the debug detail of a full
// enrichment.
func writeResultText(w io.Writer, company string, r *model.EnrichmentResult) {
	writeSummaryText(w, company, r.Summary())

	fmt.Fprintln(w, "\nQueries:")
	for _, q := range r.SearchQueriesUsed {
		fmt.Fprintf(w, "  - %s\n", q)
	}

	fmt.Fprintln(w, "Alternatives:")
	if len(r.DomainsConsidered) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range r.DomainsConsidered {
		fmt.Fprintf(w, "  - %s\n", d)
	}

	if reasoning, ok := r.Metadata["reasoning"].(string); ok && reasoning != "" {
		fmt.Fprintf(w, "Reasoning:\n  %s\n", reasoning)
	}

	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		if k != "reasoning" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fmt.Fprintln(w, "Metadata:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, r.Metadata[k])
	}
}
