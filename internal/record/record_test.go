package record

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeSnapshotDegradesToEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "{not json", `{"a":1}`, "null"} {
		got := DecodeSnapshot([]byte(raw))
		if got == nil || len(got) != 0 {
			t.Fatalf("DecodeSnapshot(%q) = %v, want empty", raw, got)
		}
	}
}

func TestDecodeKeepsScalars(t *testing.T) {
	records, err := Decode([]byte(`[{"id":12,"name":"Ana","note":null},null,{"id":3.5}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected null entry dropped, got %d records", len(records))
	}
	if records[0].Text("id") != "12" || records[0].Text("name") != "Ana" || records[0].Text("note") != "" {
		t.Fatalf("unexpected first record %v", records[0])
	}
	if v, ok := records[1].Number("id"); !ok || v != 3.5 {
		t.Fatalf("unexpected number %v %v", v, ok)
	}
	if records[0].Or("note", "-") != "-" {
		t.Fatalf("expected placeholder for null field")
	}
}

func TestSortBy(t *testing.T) {
	records := []Record{{"id": 10}, {"id": 2}, {"id": "7"}}
	SortBy(records, "id", false)
	got := []string{records[0].Text("id"), records[1].Text("id"), records[2].Text("id")}
	if diff := cmp.Diff([]string{"2", "7", "10"}, got); diff != "" {
		t.Fatalf("ascending order mismatch (-want +got):\n%s", diff)
	}
	SortBy(records, "id", true)
	got = []string{records[0].Text("id"), records[1].Text("id"), records[2].Text("id")}
	if diff := cmp.Diff([]string{"10", "7", "2"}, got); diff != "" {
		t.Fatalf("descending order mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeNil(t *testing.T) {
	raw, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected empty array, got %s", raw)
	}
}
