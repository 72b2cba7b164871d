// Package wire is the only place in the tree that knows the byte-level
// shape of a request or reply.
//
// Every connection — client-to-coordinator, coordinator-to-node,
// node-to-coordinator registration — exchanges a stream of newline-
// terminated JSON objects. A Reader/Writer pair wraps one net.Conn and
// hides the framing from callers; internal/coordinatorsrv and
// internal/datanode only ever see a Record go in or out.
//
// The encoding is github.com/json-iterator/go in its standard-library-
// compatible mode rather than encoding/json: it is a drop-in decoder, so
// there's no behavioral difference to document, only a faster one on the
// request/response hot path.
package wire
