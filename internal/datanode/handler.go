// Package datanode implements a data node's side of the wire protocol: one
// request in, one reply out, against the node's local tables.
package datanode

import (
	"io"
	"net"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dreamware/ringkv/internal/store"
	"github.com/dreamware/ringkv/internal/wire"
)

// OperationStats counts operations served by a Handler, broken down by
// type and outcome. Every field is updated with an atomic add, so it may
// be read at any time with atomic.LoadUint64.
type OperationStats struct {
	Gets      uint64
	Puts      uint64
	Updates   uint64
	Deletes   uint64
	KeyMisses uint64
	Unknown   uint64
}

// Handler serves node requests against a store.NodeStore.
type Handler struct {
	store *store.NodeStore
	log   *zap.Logger
	Stats OperationStats
}

// NewHandler returns a Handler backed by s.
func NewHandler(s *store.NodeStore, log *zap.Logger) *Handler {
	return &Handler{store: s, log: log}
}

// ServeConn reads exactly one request record from conn, executes it, writes
// exactly one reply record, and closes conn. It never returns an error to
// the caller: transport failures are logged and the connection is simply
// dropped, matching the fire-and-forget nature of a node RPC.
func (h *Handler) ServeConn(conn net.Conn) {
	defer conn.Close()

	r := wire.NewReader(conn)
	rec, err := r.ReadRecord()
	if err != nil {
		if err != io.EOF {
			h.log.Debug("datanode: failed to read request", zap.Error(err))
		}
		return
	}

	reply := h.safeExecute(rec)

	w := wire.NewWriter(conn)
	if err := w.WriteRecord(reply); err != nil {
		h.log.Debug("datanode: failed to write reply", zap.Error(err))
	}
}

// safeExecute runs execute, converting any panic into ack("error") rather
// than letting it escape and kill the accept loop.
func (h *Handler) safeExecute(rec wire.Record) (reply wire.Record) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("datanode: recovered from panic serving request", zap.Any("panic", r))
			reply = ack("error")
		}
	}()
	return h.execute(rec)
}

func (h *Handler) execute(rec wire.Record) wire.Record {
	tag := store.ParseTag(rec.Table)
	table := h.store.Table(tag)

	switch rec.ReqType {
	case wire.ReqGet:
		atomic.AddUint64(&h.Stats.Gets, 1)
		value, err := table.Get(rec.Key)
		if err != nil {
			atomic.AddUint64(&h.Stats.KeyMisses, 1)
			return ack("key_error")
		}
		return wire.Record{ReqType: "data", Message: value}

	case wire.ReqPut:
		atomic.AddUint64(&h.Stats.Puts, 1)
		table.Put(rec.Key, rec.Value)
		return ack("put_success")

	case wire.ReqUpdate:
		atomic.AddUint64(&h.Stats.Updates, 1)
		if !table.Update(rec.Key, rec.Value) {
			atomic.AddUint64(&h.Stats.KeyMisses, 1)
			return ack("key_error")
		}
		return ack("update_success")

	case wire.ReqDelete:
		atomic.AddUint64(&h.Stats.Deletes, 1)
		if !table.Delete(rec.Key) {
			atomic.AddUint64(&h.Stats.KeyMisses, 1)
			return ack("key_error")
		}
		return ack("delete_success")

	default:
		atomic.AddUint64(&h.Stats.Unknown, 1)
		return ack("unknown_request")
	}
}

func ack(message string) wire.Record {
	return wire.Record{ReqType: wire.ReqAck, Message: message}
}
