// Package heartbeat implements the two halves of node liveness detection:
// a beacon sender run by every data node, and a beacon monitor plus sweep
// timer run by the coordinator.
//
// The monitor never marks a node unhealthy by itself; it only counts
// datagrams. Every T_sweep interval, any identity whose counter is still
// zero is declared dead and removed from the ring. Surviving identities
// have their counters reset to zero for the next interval. A node that
// wants back in must re-register, not merely resume beaconing.
package heartbeat

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dreamware/ringkv/internal/ring"
	"github.com/dreamware/ringkv/internal/ringspace"
	"github.com/dreamware/ringkv/internal/wire"
)

// Port is the fixed UDP port the coordinator listens on for beacons.
const Port = 3769

// SweepInterval is the fixed cadence at which the monitor evaluates and
// resets beacon counters.
const SweepInterval = 30 * time.Second

var (
	heartbeatsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordinator_heartbeats_total",
		Help: "Total number of heartbeat datagrams received by the coordinator.",
	})
	nodeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordinator_node_failures_total",
		Help: "Total number of nodes removed from the ring by the sweep timer.",
	})
)

func init() {
	prometheus.MustRegister(heartbeatsTotal, nodeFailuresTotal)
}

// Monitor counts heartbeat datagrams per node identity and periodically
// sweeps silent nodes out of a ring.
type Monitor struct {
	log  *zap.Logger
	ring *ring.Ring

	mu       sync.Mutex
	counters map[string]int

	conn *net.UDPConn
}

// NewMonitor returns a Monitor that will remove silent identities from r.
func NewMonitor(r *ring.Ring, log *zap.Logger) *Monitor {
	return &Monitor{
		log:      log,
		ring:     r,
		counters: make(map[string]int),
	}
}

// ListenAndServe opens the fixed UDP port and blocks, receiving beacons
// until ctx is canceled. It is intended to run in its own goroutine
// alongside Sweep.
func (m *Monitor) ListenAndServe(ctx context.Context) error {
	addr := &net.UDPAddr{Port: Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("heartbeat: listen udp :%d: %w", Port, err)
	}
	m.conn = conn

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 4096)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.log.Warn("heartbeat: read failed", zap.Error(err))
			continue
		}
		m.handleDatagram(buf[:n])
	}
}

func (m *Monitor) handleDatagram(b []byte) {
	rec, err := wire.DecodeRecord(b)
	if err != nil {
		m.log.Debug("heartbeat: dropping malformed datagram", zap.Error(err))
		return
	}
	if rec.ReqType != wire.ReqHeartbeat {
		return
	}
	m.Observe(rec.Message)
}

// Observe records one beacon from identity. Exported so tests and a
// future in-process transport can drive it without a real socket.
func (m *Monitor) Observe(identity string) {
	if identity == "" {
		return
	}
	m.mu.Lock()
	m.counters[identity]++
	m.mu.Unlock()
	heartbeatsTotal.Inc()
}

// Sweep runs the sweep timer until ctx is canceled: every SweepInterval,
// every identity with a zero counter is removed from the ring, and every
// surviving identity's counter is reset to zero.
func (m *Monitor) Sweep(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweepOnce()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) sweepOnce() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Map iteration order is random; sort identities first so sweep
	// removals are logged in a stable, reproducible order.
	silent := make([]string, 0)
	for identity, count := range m.counters {
		if count == 0 {
			silent = append(silent, identity)
		}
	}
	slices.Sort(silent)

	for _, identity := range silent {
		position := ringspace.Hash(identity)
		m.ring.Remove(position)
		delete(m.counters, identity)
		nodeFailuresTotal.Inc()
		m.log.Warn("heartbeat: node removed for silence", zap.String("identity", identity))
	}
	for identity := range m.counters {
		m.counters[identity] = 0
	}
}

// Forget drops identity's counter without touching the ring, used when a
// node is removed through an explicit path (e.g. operator shutdown)
// rather than sweep-detected silence.
func (m *Monitor) Forget(identity string) {
	m.mu.Lock()
	delete(m.counters, identity)
	m.mu.Unlock()
}

// Close releases the monitor's listening socket, if open.
func (m *Monitor) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}
