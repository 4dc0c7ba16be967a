package chunk

import (
	"bytes"
	"strings"
	"testing"
)

func TestRecordsRoundTrip(t *testing.T) {
	a := NewAssigner()
	chunks, err := a.Assign("report", []string{"warming is unequivocal", "sea level is rising"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteRecords(&buf, chunks); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadRecords(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(chunks) {
		t.Fatalf("expected %d records, got %d", len(chunks), len(got))
	}
	for i := range chunks {
		if got[i] != chunks[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, got[i], chunks[i])
		}
	}
}

func TestReadRecordsSkipsBlankLines(t *testing.T) {
	in := `{"id":"a_0","source":"a","text":"x","chunk_index":0,"total_chunks_in_document":1}` + "\n\n"
	got, err := ReadRecords(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a_0" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestReadRecordsMalformedLine(t *testing.T) {
	in := `{"id":"a_0"}` + "\n" + `not json` + "\n"
	if _, err := ReadRecords(strings.NewReader(in)); err == nil {
		t.Fatal("expected parse error")
	}
}
