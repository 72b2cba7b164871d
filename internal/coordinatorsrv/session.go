// Package coordinatorsrv implements the coordinator's per-connection
// session state machine: accept, identify the caller, then either
// register a data node or serve a client's get/put/update/delete stream
// until it disconnects.
package coordinatorsrv

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/ringkv/internal/cache"
	"github.com/dreamware/ringkv/internal/metrics"
	"github.com/dreamware/ringkv/internal/ring"
	"github.com/dreamware/ringkv/internal/ringspace"
	"github.com/dreamware/ringkv/internal/store"
	"github.com/dreamware/ringkv/internal/wire"
)

// Session identity markers carried in the first record's ID field.
const (
	idClient      = "client"
	idSlaveServer = "slave_server"
)

// Server holds the state shared by every session: the placement ring and
// the result cache.
type Server struct {
	ring  *ring.Ring
	cache *cache.Cache
	log   *zap.Logger

	// Dial opens a connection to a data node, overridable in tests.
	Dial func(addr string) (net.Conn, error)
}

// NewServer builds a Server over r and c, both expected to live for the
// lifetime of the coordinator process.
func NewServer(r *ring.Ring, c *cache.Cache, log *zap.Logger) *Server {
	return &Server{
		ring:  r,
		cache: c,
		log:   log,
		Dial:  func(addr string) (net.Conn, error) { return net.Dial("tcp", addr) },
	}
}

// HandleConn drives one accepted connection through the session state
// machine to completion, closing conn on every exit path. A panic while
// serving the connection is recovered and logged, so it does not reach
// the caller's accept loop or worker.
func (s *Server) HandleConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("coordinatorsrv: recovered from panic serving connection", zap.Any("panic", p))
		}
	}()

	w := wire.NewWriter(conn)
	r := wire.NewReader(conn)

	if err := w.WriteRecord(wire.Record{ReqType: wire.ReqAck, Message: "connected"}); err != nil {
		s.log.Debug("coordinatorsrv: failed to send connected ack", zap.Error(err))
		return
	}

	rec, err := r.ReadRecord()
	if err != nil {
		if err != io.EOF {
			s.log.Debug("coordinatorsrv: failed to read identification record", zap.Error(err))
		}
		return
	}

	switch rec.ID {
	case idClient:
		if err := w.WriteRecord(wire.Record{ReqType: wire.ReqAck, Message: "ready_to_serve"}); err != nil {
			s.log.Debug("coordinatorsrv: failed to send ready_to_serve ack", zap.Error(err))
			return
		}
		s.serveClient(r, w)
	case idSlaveServer:
		s.register(rec, conn, w)
	default:
		s.log.Debug("coordinatorsrv: closing connection with unrecognized identity", zap.String("id", rec.ID))
	}
}

// register inserts a data node into the ring under its declared identity,
// or the connection's peer address if none was given.
func (s *Server) register(rec wire.Record, conn net.Conn, w *wire.Writer) {
	identity := rec.Message
	if identity == "" {
		identity = conn.RemoteAddr().String()
	}

	position := ringspace.Hash(identity)
	s.ring.Insert(position, identity)
	s.log.Debug("coordinatorsrv: registered node", zap.String("identity", identity), zap.Int("position", position))

	if err := w.WriteRecord(wire.Record{ReqType: wire.ReqAck, Message: "registration_successful"}); err != nil {
		s.log.Debug("coordinatorsrv: failed to send registration_successful ack", zap.Error(err))
	}
}

// serveClient loops reading one request record, executing it, and writing
// one reply record, until the client disconnects. A line that fails to
// decode gets ack("parse_error") and the session stays open; only EOF or
// a transport-level read failure ends it.
func (s *Server) serveClient(r *wire.Reader, w *wire.Writer) {
	for {
		rec, err := r.ReadRecord()
		if err != nil {
			if errors.Is(err, wire.ErrMalformed) {
				s.log.Debug("coordinatorsrv: dropping malformed request", zap.Error(err))
				if err := w.WriteRecord(ack("parse_error")); err != nil {
					s.log.Debug("coordinatorsrv: failed to write parse_error ack", zap.Error(err))
					return
				}
				continue
			}
			return
		}

		start := time.Now()
		reply := s.executeRequest(rec)
		metrics.ObserveRequest(rec.ReqType, reply.Message, start)
		s.log.Debug("coordinatorsrv: served request",
			zap.String("req_type", rec.ReqType), zap.String("key", rec.Key), zap.String("outcome", reply.Message))

		if err := w.WriteRecord(reply); err != nil {
			s.log.Debug("coordinatorsrv: failed to write reply", zap.Error(err))
			return
		}
	}
}

func (s *Server) executeRequest(rec wire.Record) wire.Record {
	switch rec.ReqType {
	case wire.ReqGet:
		return s.handleGet(rec.Key)
	case wire.ReqPut:
		return s.handlePut(rec.Key, rec.Value)
	case wire.ReqUpdate:
		return s.handleUpdate(rec.Key, rec.Value)
	case wire.ReqDelete:
		return s.handleDelete(rec.Key)
	default:
		return ack("unknown_request")
	}
}

func (s *Server) handleGet(key string) wire.Record {
	if v, ok := s.cache.Get(key); ok {
		return wire.Record{ReqType: "data", Message: v}
	}

	primary, ok := s.ring.Successor(ringspace.Hash(key))
	if !ok {
		return ack("no_servers_available")
	}

	reply, err := s.callNode(primary.Identity, wire.Record{ReqType: wire.ReqGet, Key: key, Table: string(store.TagOwn)})
	if err != nil || reply.ReqType != "data" {
		return ack("key_error")
	}

	s.cache.Put(key, reply.Message)
	return wire.Record{ReqType: "data", Message: reply.Message}
}

func (s *Server) handlePut(key, value string) wire.Record {
	primary, replica, ok := s.placementPair(key)
	if !ok {
		return ack("insufficient_servers")
	}

	primaryOK := s.nodeOpSucceeded(primary.Identity, wire.Record{ReqType: wire.ReqPut, Key: key, Value: value, Table: string(store.TagOwn)}, "put_success")
	replicaOK := s.nodeOpSucceeded(replica.Identity, wire.Record{ReqType: wire.ReqPut, Key: key, Value: value, Table: string(store.TagPrev)}, "put_success")

	if primaryOK && replicaOK {
		return ack("put_success")
	}
	return ack("put_failed")
}

func (s *Server) handleUpdate(key, value string) wire.Record {
	primary, replica, ok := s.placementPair(key)
	if !ok {
		return ack("insufficient_servers")
	}

	primaryOK := s.nodeOpSucceeded(primary.Identity, wire.Record{ReqType: wire.ReqUpdate, Key: key, Value: value, Table: string(store.TagOwn)}, "update_success")
	replicaOK := s.nodeOpSucceeded(replica.Identity, wire.Record{ReqType: wire.ReqUpdate, Key: key, Value: value, Table: string(store.TagPrev)}, "update_success")

	if primaryOK && replicaOK {
		s.cache.Remove(key)
		return ack("update_success")
	}
	return ack("update_failed")
}

func (s *Server) handleDelete(key string) wire.Record {
	primary, replica, ok := s.placementPair(key)
	if !ok {
		return ack("insufficient_servers")
	}

	primaryOK := s.nodeOpSucceeded(primary.Identity, wire.Record{ReqType: wire.ReqDelete, Key: key, Table: string(store.TagOwn)}, "delete_success")
	replicaOK := s.nodeOpSucceeded(replica.Identity, wire.Record{ReqType: wire.ReqDelete, Key: key, Table: string(store.TagPrev)}, "delete_success")

	if primaryOK && replicaOK {
		s.cache.Remove(key)
		return ack("delete_success")
	}
	return ack("delete_failed")
}

// placementPair resolves the primary (successor) and replica (predecessor)
// nodes for key. ok is false if the ring can't produce both.
func (s *Server) placementPair(key string) (primary, replica ring.Element, ok bool) {
	h := ringspace.Hash(key)
	primary, primaryOK := s.ring.Successor(h)
	replica, replicaOK := s.ring.Predecessor(h)
	return primary, replica, primaryOK && replicaOK
}

// nodeOpSucceeded dials identity, issues req, and reports whether the
// reply was the expected success ack. Any dial, write, or read failure
// counts as a failed operation, not a crash.
func (s *Server) nodeOpSucceeded(identity string, req wire.Record, wantMessage string) bool {
	reply, err := s.callNode(identity, req)
	if err != nil {
		return false
	}
	return reply.ReqType == wire.ReqAck && reply.Message == wantMessage
}

// callNode opens a short-lived connection to identity, sends req, and
// returns its single reply record. The write and read must finish within
// nodeCallTimeout; expiry is returned as an error like any I/O failure.
func (s *Server) callNode(identity string, req wire.Record) (wire.Record, error) {
	const nodeCallTimeout = 2 * time.Second

	conn, err := s.Dial(identity)
	if err != nil {
		return wire.Record{}, fmt.Errorf("coordinatorsrv: dial %s: %w", identity, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(nodeCallTimeout)); err != nil {
		return wire.Record{}, fmt.Errorf("coordinatorsrv: set deadline for %s: %w", identity, err)
	}

	if err := wire.NewWriter(conn).WriteRecord(req); err != nil {
		return wire.Record{}, fmt.Errorf("coordinatorsrv: write to %s: %w", identity, err)
	}
	reply, err := wire.NewReader(conn).ReadRecord()
	if err != nil {
		return wire.Record{}, fmt.Errorf("coordinatorsrv: read from %s: %w", identity, err)
	}
	return reply, nil
}

func ack(message string) wire.Record {
	return wire.Record{ReqType: wire.ReqAck, Message: message}
}
