package core

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sampleRecord struct {
	ID     int64    `csv:"id"`
	Label  string   `csv:"label"`
	Amount *float64 `csv:"amount"`
}

func (s *sampleRecord) Values() []any { return []any{s.ID, s.Label, s.Amount} }

func sampleDefinition() TableDefinition {
	return TableDefinition{
		Info: TableInfo{Key: "sample", Label: "Sample", Order: 1},
		Columns: []Column{
			{Name: "id", Type: TypeInteger, NotNull: true, Required: true},
			{Name: "label", Type: TypeText, Required: true},
			{Name: "amount", Type: TypeReal},
		},
		Aliases: map[string]string{
			"ndb_no":      "id",
			"long_label":  "label",
			"amount_size": "amount",
		},
		Indexes:   []Index{{Name: "idx_sample_id", Columns: []string{"id"}}},
		NewRecord: func() Record { return &sampleRecord{} },
	}
}

func decodeAll(def TableDefinition, data string) ([]Record, error) {
	r, err := NewRecordReader(def, strings.NewReader(data))
	if err != nil {
		return nil, err
	}
	var recs []Record
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}

func TestCanonicalHeader(t *testing.T) {
	def := sampleDefinition()
	got := def.CanonicalHeader([]string{" NDB_No ", `"Long_Label"`, "AMOUNT", "extra"})
	want := []string{"id", "label", "amount", "extra"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CanonicalHeader mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordReader(t *testing.T) {
	amount := 2.5

	tests := []struct {
		name     string
		data     string
		want     []Record
		wantErr  bool
		wantLine int
	}{
		{
			name: "aliased header",
			data: "NDB_No,long_label,amount_size\n1,one,2.5\n2,two,\n",
			want: []Record{
				&sampleRecord{ID: 1, Label: "one", Amount: &amount},
				&sampleRecord{ID: 2, Label: "two"},
			},
		},
		{
			name: "canonical header with unknown column",
			data: "id,label,notes\n7,seven,ignored\n",
			want: []Record{&sampleRecord{ID: 7, Label: "seven"}},
		},
		{
			name: "header only",
			data: "id,label\n",
		},
		{
			name:     "type mismatch fails the load",
			data:     "id,label,amount\n1,one,1\nabc,two,2\n3,three,3\n",
			wantErr:  true,
			wantLine: 3,
		},
		{
			name:     "short row fails the load",
			data:     "id,label,amount\n1,one,1\n2,two\n",
			wantErr:  true,
			wantLine: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeAll(sampleDefinition(), tt.data)
			if tt.wantErr {
				var decErr *DecodeError
				if !errors.As(err, &decErr) {
					t.Fatalf("expected *DecodeError, got %v", err)
				}
				if decErr.Line != tt.wantLine {
					t.Errorf("Line = %d, want %d", decErr.Line, tt.wantLine)
				}
				if decErr.Table != "sample" {
					t.Errorf("Table = %q, want %q", decErr.Table, "sample")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordReader_ErrorIsFinal(t *testing.T) {
	r, err := NewRecordReader(sampleDefinition(), strings.NewReader("id,label\nx,bad\n1,good\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, first := r.Read()
	if first == nil {
		t.Fatal("expected decode error")
	}
	if _, err := r.Read(); err != first {
		t.Errorf("second Read() = %v, want the first error again", err)
	}
}

func TestNewRecordReader_HeaderErrors(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantColumn string
		wantText   string
	}{
		{name: "empty file", data: "", wantText: "missing header"},
		{name: "missing required column", data: "id,amount\n1,2\n", wantColumn: "label", wantText: "missing required column"},
		{name: "duplicate after aliasing", data: "id,ndb_no,label\n1,1,x\n", wantColumn: "id", wantText: "duplicate column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecordReader(sampleDefinition(), strings.NewReader(tt.data))
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if decErr.Column != tt.wantColumn {
				t.Errorf("Column = %q, want %q", decErr.Column, tt.wantColumn)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q should contain %q", err, tt.wantText)
			}
		})
	}
}

func TestTableDefinitionSQL(t *testing.T) {
	def := sampleDefinition()

	wantCreate := "CREATE TABLE sample (\n    id INTEGER NOT NULL,\n    label TEXT,\n    amount REAL\n)"
	if got := def.CreateSQL(); got != wantCreate {
		t.Errorf("CreateSQL() =\n%s\nwant\n%s", got, wantCreate)
	}

	wantInsert := "INSERT INTO sample (id, label, amount) VALUES (?, ?, ?)"
	if got := def.InsertSQL(); got != wantInsert {
		t.Errorf("InsertSQL() = %q, want %q", got, wantInsert)
	}

	wantIndex := []string{"CREATE INDEX IF NOT EXISTS idx_sample_id ON sample (id)"}
	if diff := cmp.Diff(wantIndex, def.IndexSQL()); diff != "" {
		t.Errorf("IndexSQL() mismatch (-want +got):\n%s", diff)
	}
}
