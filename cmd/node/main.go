// Command node runs a single data node: it registers with the
// coordinator, serves get/put/update/delete requests against its own and
// prev tables, and beacons its liveness to the coordinator over UDP.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/dreamware/ringkv/internal/clusterconfig"
	"github.com/dreamware/ringkv/internal/datanode"
	"github.com/dreamware/ringkv/internal/heartbeat"
	"github.com/dreamware/ringkv/internal/logging"
	"github.com/dreamware/ringkv/internal/store"
	"github.com/dreamware/ringkv/internal/wire"
)

var cli struct {
	IP   string `arg:"" help:"IP address to bind this node's listener to."`
	Port string `arg:"" help:"Port to bind this node's listener to."`

	ConfigFile string `default:"cs_config.txt" help:"Path to read the coordinator's address from."`
	Identity   string `help:"Identity to register under. Defaults to <ip>:<port>."`
	LogLevel   string `default:"info" help:"Log level: debug, info, warn, or error."`
}

func main() {
	kong.Parse(&cli)

	log, err := logging.New(cli.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "node:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Error("node exiting with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger) error {
	addr := net.JoinHostPort(cli.IP, cli.Port)
	identity := cli.Identity
	if identity == "" {
		identity = addr
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("node: listen on %s: %w", addr, err)
	}
	defer listener.Close()

	coordinator, err := clusterconfig.Read(cli.ConfigFile)
	if err != nil {
		return err
	}

	if err := registerWithCoordinator(coordinator.Addr(), identity); err != nil {
		return err
	}

	handler := datanode.NewHandler(store.NewNodeStore(), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := heartbeat.NewSender(identity, heartbeat.CoordinatorBeaconAddr(coordinator.IP), log)
	go sender.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go handler.ServeConn(conn)
		}
	}()

	log.Info("node listening", zap.String("addr", addr), zap.String("identity", identity))
	<-stop
	log.Info("node shutting down")

	cancel()
	listener.Close()
	<-acceptDone

	log.Info("node stopped")
	return nil
}

// registerWithCoordinator dials the coordinator, identifies as a data
// node, and waits for registration_successful before returning.
func registerWithCoordinator(coordinatorAddr, identity string) error {
	conn, err := net.Dial("tcp", coordinatorAddr)
	if err != nil {
		return fmt.Errorf("node: dial coordinator at %s: %w", coordinatorAddr, err)
	}
	defer conn.Close()

	r := wire.NewReader(conn)
	w := wire.NewWriter(conn)

	if _, err := r.ReadRecord(); err != nil {
		return fmt.Errorf("node: reading connected ack: %w", err)
	}

	if err := w.WriteRecord(wire.Record{ID: "slave_server", Message: identity}); err != nil {
		return fmt.Errorf("node: sending registration: %w", err)
	}

	reply, err := r.ReadRecord()
	if err != nil {
		return fmt.Errorf("node: reading registration reply: %w", err)
	}
	if reply.Message != "registration_successful" {
		return fmt.Errorf("node: registration rejected: %q", reply.Message)
	}
	return nil
}
