package dataset

import (
	"strings"
	"time"
)

// ID identifier type
type ID string

// AllDatasets is the filter value meaning "every dataset of the owner".
const AllDatasets ID = "all"

// Dataset is a named collection of records uploaded by one owner.
// Datasets are immutable once stored.
type Dataset struct {
	ID         ID        `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	Records    []Record  `json:"records"`
	ArchiveKey string    `json:"archive_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Columns returns the column names of the first record. Other records are not consulted.
func (d *Dataset) Columns() []string {
	if d == nil || len(d.Records) == 0 {
		return nil
	}
	return d.Records[0].Keys()
}

// ColumnKind infers the kind of a column from every record carrying it.
func (d *Dataset) ColumnKind(name string) Kind {
	cells := make([]Cell, 0, len(d.Records))
	for _, r := range d.Records {
		if c, ok := r.Get(name); ok {
			cells = append(cells, c)
		}
	}
	return InferColumnKind(cells)
}

// Summary is the listing view of a dataset without its records.
type Summary struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	RecordCount int       `json:"record_count"`
	Columns     []string  `json:"columns"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Dataset) Summary() Summary {
	return Summary{
		ID:          d.ID,
		Name:        d.Name,
		RecordCount: len(d.Records),
		Columns:     d.Columns(),
		CreatedAt:   d.CreatedAt,
	}
}

// NormalizeFilter turns a requested id list into a repository filter.
// An empty list, or one containing AllDatasets, yields nil (no filtering).
func NormalizeFilter(ids []string) []ID {
	seen := make(map[ID]bool, len(ids))
	var out []ID
	for _, raw := range ids {
		id := ID(strings.TrimSpace(raw))
		if id == "" {
			continue
		}
		if strings.EqualFold(string(id), string(AllDatasets)) {
			return nil
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
