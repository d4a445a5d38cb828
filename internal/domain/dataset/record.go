package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one named cell of a record.
type Field struct {
	Name  string
	Value Cell
}

// Record is a row of a dataset. Field order is the order the columns arrived in
// and is preserved through JSON encoding.
type Record []Field

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, f := range r {
		keys = append(keys, f.Name)
	}
	return keys
}

// Get returns the cell stored under name.
func (r Record) Get(name string) (Cell, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Cell{}, false
}

// Set replaces the value under name or appends a new field.
func (r *Record) Set(name string, v Cell) {
	for i := range *r {
		if (*r)[i].Name == name {
			(*r)[i].Value = v
			return
		}
	}
	*r = append(*r, Field{Name: name, Value: v})
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", name, err)
		}
		out.Set(name, cellFromRaw(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
