package tableio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/perf-analysis/internal/anon"
)

func TestWriteReadSeparateColumnsRoundTrip(t *testing.T) {
	table := anon.NewTable(
		[]string{"alice", "bob"},
		[]float64{10.5, -3.25},
		[]float64{20.25, 44.5},
		[]string{"t0", "t1"},
	)

	var buf bytes.Buffer
	if err := Write(&buf, table); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Len() != table.Len() {
		t.Fatalf("round trip changed row count: got %d want %d", got.Len(), table.Len())
	}
	for i, row := range table.Rows {
		if got.Rows[i] != row {
			t.Fatalf("row %d round-tripped as %+v, want %+v", i, got.Rows[i], row)
		}
	}
}

func TestWriteReadCombinedColumnRoundTrip(t *testing.T) {
	ids := []string{"alice", "bob"}
	coords := []string{"20.25,10.5", "44.5,-3.25"}
	times := []string{"t0", "t1"}
	table, err := anon.ParseOneColumn(ids, coords, times)
	if err != nil {
		t.Fatalf("ParseOneColumn: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, table); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "lonlat") {
		t.Fatalf("combined-column output should use the lonlat header, got: %s", buf.String())
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, row := range table.Rows {
		if got.Rows[i] != row {
			t.Fatalf("row %d round-tripped as %+v, want %+v", i, got.Rows[i], row)
		}
	}
}

func TestReadEmptyInputIsAnError(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	if err == nil {
		t.Fatalf("expected error reading a completely empty CSV (no header)")
	}
}

func TestReadMalformedCoordinate(t *testing.T) {
	_, err := Read(strings.NewReader("id,lat,lon,time\na,not-a-number,20,t0\n"))
	if err == nil {
		t.Fatalf("expected error for malformed lat value")
	}
}

func TestWriteThenReadHeaderOnlyIsNotEmptyInput(t *testing.T) {
	table := anon.NewTable(nil, nil, nil, nil)
	var buf bytes.Buffer
	if err := Write(&buf, table); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read of header-only CSV should not error: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("expected zero rows, got %d", got.Len())
	}
}
