package main

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/dreamware/ringkv/internal/wire"
)

func TestParseCommandGet(t *testing.T) {
	rec, err := parseCommand("get foo")
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	if rec.ReqType != wire.ReqGet || rec.Key != "foo" {
		t.Errorf("rec = %+v, want get(foo)", rec)
	}
}

func TestParseCommandPutSplitsKeyAndValueOnce(t *testing.T) {
	rec, err := parseCommand("put foo bar baz")
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	if rec.Key != "foo" || rec.Value != "bar baz" {
		t.Errorf("rec = %+v, want key=foo value=\"bar baz\"", rec)
	}
}

func TestParseCommandUpdate(t *testing.T) {
	rec, err := parseCommand("update foo bar")
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	if rec.ReqType != wire.ReqUpdate || rec.Key != "foo" || rec.Value != "bar" {
		t.Errorf("rec = %+v, want update(foo, bar)", rec)
	}
}

func TestParseCommandDelete(t *testing.T) {
	rec, err := parseCommand("delete foo")
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	if rec.ReqType != wire.ReqDelete || rec.Key != "foo" {
		t.Errorf("rec = %+v, want delete(foo)", rec)
	}
}

func TestParseCommandRejectsMissingArguments(t *testing.T) {
	for _, line := range []string{"get", "put foo", "update foo", "delete"} {
		if _, err := parseCommand(line); err == nil {
			t.Errorf("parseCommand(%q) should have failed", line)
		}
	}
}

func TestParseCommandRejectsUnrecognizedVerb(t *testing.T) {
	if _, err := parseCommand("frobnicate foo"); err == nil {
		t.Error("expected error for unrecognized command")
	}
}

func TestParseCommandIsCaseInsensitiveOnVerb(t *testing.T) {
	rec, err := parseCommand("GET foo")
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}
	if rec.ReqType != wire.ReqGet {
		t.Errorf("rec = %+v, want get", rec)
	}
}

func TestReplIssuesOneRequestPerLineAndPrintsReplies(t *testing.T) {
	client, server := net.Pipe()

	go func() {
		r := wire.NewReader(server)
		w := wire.NewWriter(server)
		for i := 0; i < 2; i++ {
			req, err := r.ReadRecord()
			if err != nil {
				return
			}
			switch req.ReqType {
			case wire.ReqGet:
				w.WriteRecord(wire.Record{ReqType: "data", Message: "bar"})
			case wire.ReqPut:
				w.WriteRecord(wire.Record{ReqType: wire.ReqAck, Message: "put_success"})
			}
		}
		server.Close()
	}()

	var out bytes.Buffer
	in := strings.NewReader("get foo\nput foo bar\n")

	r := wire.NewReader(client)
	w := wire.NewWriter(client)

	if err := repl(in, &out, r, w); err != nil {
		t.Fatalf("repl: %v", err)
	}
	client.Close()

	want := "bar\nput_success\n"
	if out.String() != want {
		t.Errorf("repl output = %q, want %q", out.String(), want)
	}
}

func TestReplReportsParseErrorsWithoutStopping(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		r := wire.NewReader(server)
		w := wire.NewWriter(server)
		req, _ := r.ReadRecord()
		if req.ReqType == wire.ReqGet {
			w.WriteRecord(wire.Record{ReqType: "data", Message: "bar"})
		}
		server.Close()
	}()

	var out bytes.Buffer
	in := strings.NewReader("bogus\nget foo\n")

	r := wire.NewReader(client)
	w := wire.NewWriter(client)

	if err := repl(in, &out, r, w); err != nil {
		t.Fatalf("repl: %v", err)
	}
	client.Close()

	if !strings.Contains(out.String(), "unrecognized command") {
		t.Errorf("expected a parse-error line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "bar") {
		t.Errorf("expected the valid get to still run, got %q", out.String())
	}
}
