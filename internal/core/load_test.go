package core

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoad_BatchesAndProgress(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	data := "id,label,amount\n1,a,1\n2,b,\n3,c,3\n4,d,4\n5,e,\n"
	var reports []Progress
	rows, err := Load(ctx, store, sampleDefinition(), strings.NewReader(data), LoadOptions{
		BatchSize:        2,
		ProgressInterval: 2,
		BytesTotal:       int64(len(data)),
		OnProgress:       func(p Progress) { reports = append(reports, p) },
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rows != 5 {
		t.Errorf("Load() = %d rows, want 5", rows)
	}

	var got []int64
	for _, r := range reports {
		got = append(got, r.Rows)
	}
	if len(got) != 3 || got[0] != 2 || got[1] != 4 || got[2] != 5 {
		t.Errorf("progress rows = %v, want [2 4 5]", got)
	}
	if last := reports[len(reports)-1]; last.Percent() != 100 || last.Table != "sample" {
		t.Errorf("final progress = %+v, want sample at 100%%", last)
	}

	var nulls int
	if err := store.DB().GetContext(ctx, &nulls, "SELECT COUNT(*) FROM sample WHERE amount IS NULL"); err != nil {
		t.Fatal(err)
	}
	if nulls != 2 {
		t.Errorf("NULL amounts = %d, want 2", nulls)
	}
}

func TestLoad_RecreatesTable(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	def := sampleDefinition()

	for i := 0; i < 2; i++ {
		rows, err := Load(ctx, store, def, strings.NewReader("id,label\n1,a\n2,b\n"), LoadOptions{})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if rows != 2 {
			t.Errorf("Load() = %d rows, want 2", rows)
		}
	}

	n, err := store.Count(ctx, "sample")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count() = %d after reload, want 2", n)
	}
}

func TestLoad_ArityMismatch(t *testing.T) {
	def := sampleDefinition()
	def.Columns = def.Columns[:2]

	_, err := Load(context.Background(), openTestStore(t), def, strings.NewReader("id,label\n1,a\n"), LoadOptions{})

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if schemaErr.Op != "insert" {
		t.Errorf("Op = %q, want %q", schemaErr.Op, "insert")
	}
	if code := MapError(err).Code; code != "SCH001" {
		t.Errorf("MapError code = %s, want SCH001", code)
	}
}

func TestLoad_DecodeErrorKeepsCommittedBatches(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	data := "id,label\n1,a\n2,b\nbad,c\n"
	rows, err := Load(ctx, store, sampleDefinition(), strings.NewReader(data), LoadOptions{BatchSize: 1})

	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if rows != 2 {
		t.Errorf("rows before failure = %d, want 2", rows)
	}

	n, err := store.Count(ctx, "sample")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("committed rows = %d, want 2", n)
	}
}

func TestLoad_LongMultibyteRows(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var b strings.Builder
	b.WriteString("id,label\n")
	for n := 4000; n < 4300; n++ {
		b.WriteString(strconv.Itoa(n))
		b.WriteString(",")
		b.WriteString(strings.Repeat("a", n) + strings.Repeat("é", 50))
		b.WriteString("\n")
	}

	rows, err := Load(ctx, store, sampleDefinition(), strings.NewReader(b.String()), LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rows != 300 {
		t.Errorf("Load() = %d rows, want 300", rows)
	}

	var label string
	if err := store.DB().GetContext(ctx, &label, "SELECT label FROM sample WHERE id = 4001"); err != nil {
		t.Fatal(err)
	}
	if want := strings.Repeat("a", 4001) + strings.Repeat("é", 50); label != want {
		t.Errorf("stored label has %d bytes, want %d", len(label), len(want))
	}
}
