package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

// ParseCSV reads a delimited file. The delimiter is picked from the header line
// among comma, semicolon and tab.
func ParseCSV(r io.Reader) ([]dataset.Record, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(string(head))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromTable(rows), nil
}

func sniffDelimiter(head string) rune {
	if i := strings.IndexAny(head, "\r\n"); i >= 0 {
		head = head[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(head, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
