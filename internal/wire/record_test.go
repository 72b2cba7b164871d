package wire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	want := Record{ReqType: ReqPut, ID: "42", Key: "k", Value: "v", Table: "own"}
	if err := w.WriteRecord(want); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	r := NewReader(&buf)
	got, err := r.ReadRecord()
	if err != nil && err != io.EOF {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got != want {
		t.Errorf("ReadRecord = %+v, want %+v", got, want)
	}
}

func TestWriteRecordTerminatesWithNewline(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteRecord(Record{ReqType: ReqAck}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("encoded record missing trailing newline: %q", buf.String())
	}
}

func TestReaderReadsMultipleRecordsInSequence(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteRecord(Record{ReqType: ReqGet, Key: "a"})
	w.WriteRecord(Record{ReqType: ReqGet, Key: "b"})

	r := NewReader(&buf)
	first, err := r.ReadRecord()
	if err != nil {
		t.Fatalf("first ReadRecord: %v", err)
	}
	if first.Key != "a" {
		t.Errorf("first.Key = %q, want a", first.Key)
	}

	second, err := r.ReadRecord()
	if err != nil && err != io.EOF {
		t.Fatalf("second ReadRecord: %v", err)
	}
	if second.Key != "b" {
		t.Errorf("second.Key = %q, want b", second.Key)
	}
}

func TestReaderReturnsEOFOnClosedStream(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.ReadRecord()
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadRecord on empty stream = %v, want io.EOF", err)
	}
}

func TestRecordOmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteRecord(Record{ReqType: ReqConnect})

	encoded := buf.String()
	for _, field := range []string{"\"id\"", "\"key\"", "\"value\"", "\"message\"", "\"table\""} {
		if strings.Contains(encoded, field) {
			t.Errorf("expected %s to be omitted from %q", field, encoded)
		}
	}
}
