package heartbeat

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/ringkv/internal/wire"
)

// BeatInterval is the fixed cadence at which a node sends beacons.
const BeatInterval = 5 * time.Second

// Sender emits periodic beacon datagrams announcing a node's identity to
// the coordinator's heartbeat monitor.
type Sender struct {
	identity      string
	coordinatorAd string
	log           *zap.Logger
}

// NewSender returns a Sender that announces identity to the coordinator
// reachable at coordinatorAddr (host:udpPort).
func NewSender(identity, coordinatorAddr string, log *zap.Logger) *Sender {
	return &Sender{identity: identity, coordinatorAd: coordinatorAddr, log: log}
}

// Run sends one beacon immediately and then one every BeatInterval until
// ctx is canceled. Send failures are logged and tolerated; there are no
// retries, per the beacon's best-effort delivery contract.
func (s *Sender) Run(ctx context.Context) {
	conn, err := net.Dial("udp", s.coordinatorAd)
	if err != nil {
		s.log.Warn("heartbeat: failed to dial coordinator beacon endpoint", zap.Error(err))
		return
	}
	defer conn.Close()

	s.beat(conn)

	ticker := time.NewTicker(BeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.beat(conn)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) beat(conn net.Conn) {
	b, err := wire.EncodeRecord(wire.Record{ReqType: wire.ReqHeartbeat, Message: s.identity})
	if err != nil {
		s.log.Warn("heartbeat: failed to encode beacon", zap.Error(err))
		return
	}
	if _, err := conn.Write(b); err != nil {
		s.log.Debug("heartbeat: beacon send failed, will retry next interval", zap.Error(err))
	}
}

// CoordinatorBeaconAddr builds the host:port a node dials to reach the
// coordinator's heartbeat listener, given the coordinator's published
// host (without port).
func CoordinatorBeaconAddr(coordinatorHost string) string {
	return fmt.Sprintf("%s:%d", coordinatorHost, Port)
}
