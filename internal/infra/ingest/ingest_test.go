package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

func TestParseCSVTypes(t *testing.T) {
	in := "name,sales,active,region\nAlice,1200.5,true,\nBob,800,false,West\n,,,\nCara,n/a\n"
	recs, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("want 3 records (blank row skipped), got %d", len(recs))
	}
	if got := recs[0].Keys(); !reflect.DeepEqual(got, []string{"name", "sales", "active", "region"}) {
		t.Fatalf("keys = %v", got)
	}
	if c, _ := recs[0].Get("sales"); c.Kind != dataset.KindNumber || c.Num != 1200.5 {
		t.Fatalf("sales = %+v", c)
	}
	if c, _ := recs[1].Get("active"); c.Kind != dataset.KindBool || c.Bool {
		t.Fatalf("active = %+v", c)
	}
	if c, _ := recs[0].Get("region"); !c.IsNull() {
		t.Fatalf("empty cell should be null, got %+v", c)
	}
	if c, _ := recs[2].Get("sales"); c.Kind != dataset.KindString || c.Str != "n/a" {
		t.Fatalf("n/a = %+v", c)
	}
	if c, _ := recs[2].Get("region"); !c.IsNull() {
		t.Fatalf("short row should pad with null, got %+v", c)
	}
}

func TestParseCSVSemicolonAndHeaders(t *testing.T) {
	in := "id;;id\n1;2;3\n"
	recs, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := recs[0].Keys(); !reflect.DeepEqual(got, []string{"id", "column_2", "id_2"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestParseCellKeepsWordsAsStrings(t *testing.T) {
	for _, s := range []string{"NaN", "inf", "Infinity", "0x10"} {
		if c := ParseCell(s); c.Kind != dataset.KindString {
			t.Fatalf("%s parsed as %s", s, c.Kind)
		}
	}
	if c := ParseCell(" 1e3 "); c.Kind != dataset.KindNumber || c.Num != 1000 {
		t.Fatalf("1e3 = %+v", c)
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]any{"name", "sales"})
	f.SetSheetRow(sheet, "A2", &[]any{"Alice", 1500})
	f.SetSheetRow(sheet, "A3", &[]any{"Bob", 700})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	recs, err := Parse("report.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if c, _ := recs[0].Get("sales"); c.Kind != dataset.KindNumber || c.Num != 1500 {
		t.Fatalf("sales = %+v", c)
	}
	if c, _ := recs[1].Get("name"); c.Str != "Bob" {
		t.Fatalf("name = %+v", c)
	}
}

func TestParseJSON(t *testing.T) {
	recs, err := Parse("data.json", []byte(`[{"b":1,"a":"x"},{"b":2,"a":"y"}]`))
	if err != nil || len(recs) != 2 {
		t.Fatalf("recs=%v err=%v", recs, err)
	}
	if got := recs[0].Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("keys = %v", got)
	}

	wrapped, err := ParseJSON([]byte(`{"data":[{"k":true}]}`))
	if err != nil || len(wrapped) != 1 {
		t.Fatalf("wrapped=%v err=%v", wrapped, err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := Parse("photo.png", nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
