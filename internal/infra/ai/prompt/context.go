package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

// NoDataSummary is the context used when the owner has no datasets in scope.
const NoDataSummary = "No datasets uploaded yet. Answer from general knowledge and suggest uploading data for a concrete analysis."

// SampleSize is the number of leading records included per dataset.
const SampleSize = 3

// BuildDatasetSummary renders datasets into the plain-text context block of the prompt.
// Datasets are numbered from 1 in the given order.
func BuildDatasetSummary(datasets []*dataset.Dataset) string {
	if len(datasets) == 0 {
		return NoDataSummary
	}

	var b strings.Builder
	for i, d := range datasets {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Dataset %d: %s\n", i+1, d.Name)
		fmt.Fprintf(&b, "Records: %d\n", len(d.Records))

		cols := d.Columns()
		if len(cols) == 0 {
			b.WriteString("Columns: (none)\n")
			continue
		}
		typed := make([]string, 0, len(cols))
		for _, c := range cols {
			typed = append(typed, fmt.Sprintf("%s (%s)", c, d.ColumnKind(c)))
		}
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(typed, ", "))

		n := SampleSize
		if len(d.Records) < n {
			n = len(d.Records)
		}
		sample, err := json.MarshalIndent(d.Records[:n], "", "  ")
		if err != nil {
			sample = []byte("[]")
		}
		fmt.Fprintf(&b, "Sample records:\n%s\n", sample)
	}
	return b.String()
}
