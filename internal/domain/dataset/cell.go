package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind tags the value held by a Cell.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Cell is a single tagged value inside a Record.
// Only the field matching Kind is meaningful; KindUnknown keeps the raw text in Str.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func Null() Cell { return Cell{Kind: KindNull} }
func String(s string) Cell { return Cell{Kind: KindString, Str: s} }
func Number(f float64) Cell { return Cell{Kind: KindNumber, Num: f} }
func Bool(b bool) Cell { return Cell{Kind: KindBool, Bool: b} }
func Unknown(raw string) Cell { return Cell{Kind: KindUnknown, Str: raw} }
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// Text renders the cell for humans (CSV export, logs).
func (c Cell) Text() string {
	switch c.Kind {
	case KindNull:
		return ""
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(c.Bool)
	default:
		return c.Str
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(c.Num, 'f', -1, 64)), nil
	case KindBool:
		return []byte(strconv.FormatBool(c.Bool)), nil
	case KindUnknown:
		if json.Valid([]byte(c.Str)) {
			return []byte(c.Str), nil
		}
		return json.Marshal(c.Str)
	default:
		return json.Marshal(c.Str)
	}
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	*c = cellFromRaw(data)
	return nil
}

// cellFromRaw maps one raw JSON value to a cell. Objects and arrays are kept as KindUnknown.
func cellFromRaw(raw []byte) Cell {
	s := strings.TrimSpace(string(raw))
	switch {
	case s == "" || s == "null":
		return Null()
	case s == "true":
		return Bool(true)
	case s == "false":
		return Bool(false)
	case s[0] == '"':
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return Unknown(s)
		}
		return String(str)
	case s[0] == '{' || s[0] == '[':
		return Unknown(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Unknown(s)
}

// CellFromAny converts decoded values (encoding/json, spreadsheet readers) to a cell.
func CellFromAny(v any) Cell {
	switch t := v.(type) {
	case nil:
		return Null()
	case Cell:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return Unknown(t.String())
	case json.RawMessage:
		return cellFromRaw(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return Unknown("")
		}
		return Unknown(string(b))
	}
}

// InferColumnKind reports the kind shared by all non-null cells.
// No non-null cells yields KindNull; mixed kinds collapse to KindString.
func InferColumnKind(cells []Cell) Kind {
	kind := KindNull
	for _, c := range cells {
		if c.Kind == KindNull {
			continue
		}
		if kind == KindNull {
			kind = c.Kind
			continue
		}
		if kind != c.Kind {
			return KindString
		}
	}
	return kind
}
