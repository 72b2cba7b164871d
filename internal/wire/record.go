// Package wire defines the line-delimited request/response format spoken
// over every TCP connection and the codec that reads and writes it.
//
// A Record is a single JSON object terminated by a newline. Every field is
// optional; which ones are populated depends on ReqType. This mirrors the
// teacher's httpClient/PostJSON shape in spirit (one small struct, one
// encode path, one decode path) but moves the framing from HTTP
// request/response pairs onto a persistent stream of records.
package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// ErrMalformed wraps any error returned because a line on the wire could
// not be decoded as a Record, as distinct from the stream simply ending.
// Callers that need to reply with an error ack rather than closing the
// connection should check for it with errors.Is.
var ErrMalformed = errors.New("wire: malformed record")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request type strings carried in Record.ReqType.
const (
	ReqConnect  = "connect"
	ReqRegister = "register"
	ReqGet      = "get"
	ReqPut      = "put"
	ReqUpdate   = "update"
	ReqDelete   = "delete"
	ReqAck       = "ack"
	ReqError     = "error"
	ReqHeartbeat = "heartbeat"
)

// Record is one line of the wire protocol: a request, a reply, or a
// control message, depending on ReqType. Fields that don't apply to a
// given ReqType are left at their zero value and omitted on the wire.
type Record struct {
	ReqType string `json:"req_type,omitempty"`
	ID      string `json:"id,omitempty"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
	Table   string `json:"table,omitempty"`
}

// Reader reads Records from a stream, one JSON object per line.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r for reading newline-delimited Records.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadRecord blocks for the next line and decodes it as a Record. It
// returns io.EOF when the underlying stream is closed with no more data.
func (r *Reader) ReadRecord() (Record, error) {
	line, err := r.br.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return Record{}, err
	}
	var rec Record
	if unmarshalErr := json.Unmarshal(line, &rec); unmarshalErr != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, unmarshalErr)
	}
	return rec, err
}

// DecodeRecord decodes a single Record from a standalone buffer, for
// transports like UDP that deliver whole messages rather than a stream.
func DecodeRecord(b []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("wire: decode record: %w", err)
	}
	return rec, nil
}

// EncodeRecord encodes a single Record for a standalone-message
// transport like UDP. No trailing newline is appended.
func EncodeRecord(rec Record) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("wire: encode record: %w", err)
	}
	return b, nil
}

// Writer writes Records to a stream, one JSON object per line.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for writing newline-delimited Records.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRecord encodes rec as JSON and appends a trailing newline.
func (w *Writer) WriteRecord(rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("wire: encode record: %w", err)
	}
	b = append(b, '\n')
	_, err = w.w.Write(b)
	return err
}
