package schema

import (
	"io"
	"reflect"
	"testing"

	"csvload/internal/source"
)

// memSource is an in-memory source.Source for inference tests.
type memSource struct {
	header []string
	rows   [][]string
}

type memRows struct {
	src *memSource
	pos int
}

func (m *memSource) Open() (source.Rows, error) { return &memRows{src: m}, nil }

func (r *memRows) Header() []string { return r.src.header }

func (r *memRows) Next() ([]string, error) {
	if r.pos >= len(r.src.rows) {
		return nil, io.EOF
	}
	row := r.src.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *memRows) Close() error { return nil }

func TestInfer_MixedColumns(t *testing.T) {
	src := &memSource{
		header: []string{"id", "score", "active", "joined", "name"},
		rows: [][]string{
			{"1", "3.5", "Yes", "2020-01-15", "Ann"},
			{"2", "", "No", "2020-02-20", "Bea"},
		},
	}

	sch, err := Infer(src, nil)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	if sch.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", sch.RowCount)
	}
	if got := sch.Fields(); !reflect.DeepEqual(got, []string{"id", "score", "active", "joined", "name"}) {
		t.Fatalf("Fields() = %v", got)
	}

	wantKinds := map[string]Kind{
		"id":     KindInteger,
		"score":  KindFloat,
		"active": KindBoolean,
		"joined": KindDate,
		"name":   KindVarText,
	}
	for field, want := range wantKinds {
		st, ok := sch.Lookup(field)
		if !ok {
			t.Fatalf("Lookup(%q) missing", field)
		}
		if st.Kind != want {
			t.Errorf("%s: kind = %v, want %v", field, st.Kind, want)
		}
	}

	id, _ := sch.Lookup("id")
	if id.Min != 1 || id.Max != 2 {
		t.Errorf("id bounds = [%d,%d], want [1,2]", id.Min, id.Max)
	}
	if id.IntWidth() != WidthUint8 {
		t.Errorf("id width = %v, want uint8", id.IntWidth())
	}

	name, _ := sch.Lookup("name")
	if name.Size != 3 {
		t.Errorf("name size = %d, want 3", name.Size)
	}
}

func TestInfer_Exclusions(t *testing.T) {
	src := &memSource{
		header: []string{"id", "internal", "name"},
		rows:   [][]string{{"1", "x", "Ann"}},
	}

	sch, err := Infer(src, map[string]bool{"internal": true})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if got := sch.Fields(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("Fields() = %v", got)
	}
	if _, ok := sch.Lookup("internal"); ok {
		t.Error("excluded field leaked into schema")
	}
}

func TestInfer_AllExcluded(t *testing.T) {
	src := &memSource{header: []string{"a"}, rows: nil}
	if _, err := Infer(src, map[string]bool{"a": true}); err == nil {
		t.Error("expected error when every column is excluded")
	}
}

func TestInfer_EmptyColumnStaysInteger(t *testing.T) {
	src := &memSource{
		header: []string{"id", "blank"},
		rows:   [][]string{{"1", ""}, {"2", ""}},
	}

	sch, err := Infer(src, nil)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	blank, _ := sch.Lookup("blank")
	if blank.Kind != KindInteger {
		t.Errorf("all-empty column kind = %v, want the integer default", blank.Kind)
	}
	if blank.IntWidth() != WidthInt32 {
		t.Errorf("all-empty column width = %v, want the int32 default", blank.IntWidth())
	}
}

// Running the same scan twice yields identical bounds and widths.
func TestInfer_Idempotent(t *testing.T) {
	src := &memSource{
		header: []string{"n"},
		rows:   [][]string{{"-7"}, {"900"}, {"12"}},
	}

	first, err := Infer(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Infer(src, nil)
	if err != nil {
		t.Fatal(err)
	}

	a, _ := first.Lookup("n")
	b, _ := second.Lookup("n")
	if a.Min != b.Min || a.Max != b.Max || a.IntWidth() != b.IntWidth() {
		t.Errorf("scans disagree: %+v vs %+v", a, b)
	}
	if a.IntWidth() != WidthInt16 {
		t.Errorf("width = %v, want int16 for [-7,900]", a.IntWidth())
	}
}

func TestInfer_DuplicateHeaderMerges(t *testing.T) {
	src := &memSource{
		header: []string{"v", "v"},
		rows:   [][]string{{"1", "hello"}},
	}

	sch, err := Infer(src, nil)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if len(sch.Columns) != 1 {
		t.Fatalf("columns = %d, want 1 merged column", len(sch.Columns))
	}
	st, _ := sch.Lookup("v")
	if st.Kind != KindVarText {
		t.Errorf("merged kind = %v, want vartext", st.Kind)
	}
}

func TestInfer_MalformedValuesFallThrough(t *testing.T) {
	src := &memSource{
		header: []string{"when"},
		rows:   [][]string{{"2020-01-15"}, {"2020-99-99"}},
	}

	sch, err := Infer(src, nil)
	if err != nil {
		t.Fatalf("malformed value aborted inference: %v", err)
	}
	st, _ := sch.Lookup("when")
	if st.Kind != KindDate {
		t.Errorf("kind = %v, want date (bad value absorbed)", st.Kind)
	}
}
