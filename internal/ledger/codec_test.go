package ledger

import (
	"testing"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bill-ledger/internal/doc"
	"github.com/dvloznov/bill-ledger/internal/doc/memdoc"
)

func TestWriteCell(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  doc.Value
	}{
		{
			name:  "float",
			value: 3.49,
			want:  doc.Value{Kind: doc.KindNumber, Number: 3.49},
		},
		{
			name:  "int",
			value: 7,
			want:  doc.Value{Kind: doc.KindNumber, Number: 7},
		},
		{
			name:  "numeric string becomes number",
			value: "8.99",
			want:  doc.Value{Kind: doc.KindNumber, Number: 8.99},
		},
		{
			name:  "comma decimal string becomes number",
			value: "1,99",
			want:  doc.Value{Kind: doc.KindNumber, Number: 1.99},
		},
		{
			name:  "formula string with comma normalized",
			value: "=1,19+0,25",
			want:  doc.Value{Kind: doc.KindFormula, Formula: "=1.19+0.25"},
		},
		{
			name:  "plain text stays text",
			value: "Milch 1L",
			want:  doc.Value{Kind: doc.KindString, Text: "Milch 1L"},
		},
		{
			name:  "date gets display text",
			value: civil.Date{Year: 2024, Month: 3, Day: 5},
			want:  doc.Value{Kind: doc.KindDate, Date: civil.Date{Year: 2024, Month: 3, Day: 5}, Text: "05.03.24"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := memdoc.New()
			sh := d.AddSheet("Mar 24")
			c := sh.AddRow(0, 3).Cell(0)

			if err := WriteCell(d, c, tt.value); err != nil {
				t.Fatalf("WriteCell failed: %v", err)
			}
			if got := c.Value(); got != tt.want {
				t.Errorf("cell value = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWriteCellDateStyle(t *testing.T) {
	d := memdoc.New()
	sh := d.AddSheet("Mar 24")
	c := sh.AddRow(0, 3).Cell(1)

	if err := WriteCell(d, c, civil.Date{Year: 2024, Month: 3, Day: 5}); err != nil {
		t.Fatalf("WriteCell failed: %v", err)
	}

	want, ok := d.DateStyle()
	if !ok {
		t.Fatal("document has no date style")
	}
	if c.Style() != want {
		t.Errorf("date cell style = %d, want document date style %d", c.Style(), want)
	}
}

func TestWriteCellOverwriteClearsOldAttributes(t *testing.T) {
	d := memdoc.New()
	sh := d.AddSheet("Mar 24")
	c := sh.AddRow(0, 3).Cell(0)

	if err := WriteCell(d, c, "=1+2"); err != nil {
		t.Fatalf("write formula: %v", err)
	}
	if err := WriteCell(d, c, 5.0); err != nil {
		t.Fatalf("overwrite with number: %v", err)
	}

	got := c.Value()
	if got.Kind != doc.KindNumber || got.Formula != "" {
		t.Errorf("stale formula attribute survived overwrite: %+v", got)
	}
}

func TestWriteCellUnsupportedType(t *testing.T) {
	d := memdoc.New()
	sh := d.AddSheet("Mar 24")
	c := sh.AddRow(0, 1).Cell(0)

	if err := WriteCell(d, c, struct{}{}); err == nil {
		t.Error("expected error for unsupported value type")
	}
}

func TestClearCompletely(t *testing.T) {
	d := memdoc.New()
	sh := d.AddSheet("Mar 24")
	c := sh.AddRow(0, 1).Cell(0)

	style := d.NewStyle()
	c.SetStyle(style)
	if err := WriteCell(d, c, "=9.0"); err != nil {
		t.Fatalf("WriteCell failed: %v", err)
	}

	ClearCompletely(c)

	if got := c.Value(); got.Kind != doc.KindEmpty {
		t.Errorf("cleared cell reads %+v, want empty", got)
	}
	if c.Style() != style {
		t.Errorf("clearing removed the style: got %d, want %d", c.Style(), style)
	}
}

func TestReadCellEmptyIsString(t *testing.T) {
	d := memdoc.New()
	sh := d.AddSheet("Mar 24")
	c := sh.AddRow(0, 1).Cell(0)

	got := ReadCell(c)
	if got.Kind != doc.KindString || got.Text != "" {
		t.Errorf("blank cell reads %+v, want empty string value", got)
	}
}

func TestWriteCellReplaysSavedValues(t *testing.T) {
	d := memdoc.New()
	sh := d.AddSheet("Mar 24")
	row := sh.AddRow(0, 2)

	src := row.Cell(0)
	if err := WriteCell(d, src, "=1.19+0.25"); err != nil {
		t.Fatalf("WriteCell failed: %v", err)
	}

	dst := row.Cell(1)
	if err := WriteCell(d, dst, ReadCell(src)); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if got := dst.Value(); got != src.Value() {
		t.Errorf("replayed value = %+v, want %+v", got, src.Value())
	}
}
