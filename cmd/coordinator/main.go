// Command coordinator runs the cluster's single coordinator process: it
// accepts node registrations and client sessions over TCP, tracks node
// liveness over UDP heartbeats, and routes client get/put/update/delete
// requests to the data nodes holding each key.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/dreamware/ringkv/internal/cache"
	"github.com/dreamware/ringkv/internal/clusterconfig"
	"github.com/dreamware/ringkv/internal/coordinatorsrv"
	"github.com/dreamware/ringkv/internal/heartbeat"
	"github.com/dreamware/ringkv/internal/logging"
	"github.com/dreamware/ringkv/internal/ring"
)

// cli is the coordinator's command-line surface: an IP and port to bind,
// plus the worker-pool size, the config file path, and the log level.
var cli struct {
	IP   string `arg:"" help:"IP address to bind the coordinator's listener to."`
	Port string `arg:"" help:"Port to bind the coordinator's listener to."`

	Workers    int    `default:"10" help:"Size of the bounded worker pool serving client sessions."`
	ConfigFile string `default:"cs_config.txt" help:"Path to publish the coordinator's address to."`
	LogLevel   string `default:"info" help:"Log level: debug, info, warn, or error."`
}

func main() {
	kong.Parse(&cli)

	log, err := logging.New(cli.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "coordinator:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Error("coordinator exiting with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger) error {
	addr := net.JoinHostPort(cli.IP, cli.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("coordinator: listen on %s: %w", addr, err)
	}
	defer listener.Close()

	if err := clusterconfig.Publish(cli.ConfigFile, clusterconfig.Endpoint{IP: cli.IP, Port: cli.Port}); err != nil {
		return err
	}

	r := ring.New()
	srv := coordinatorsrv.NewServer(r, cache.New(), log)

	monitor := heartbeat.NewMonitor(r, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		if err := monitor.ListenAndServe(ctx); err != nil {
			log.Warn("coordinator: heartbeat listener stopped", zap.Error(err))
		}
	}()
	go func() {
		defer background.Done()
		monitor.Sweep(ctx)
	}()

	connections := make(chan net.Conn)
	var workers sync.WaitGroup
	workers.Add(cli.Workers)
	for i := 0; i < cli.Workers; i++ {
		go func() {
			defer workers.Done()
			for conn := range connections {
				srv.HandleConn(conn)
			}
		}()
	}

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
			connections <- conn
		}
	}()

	log.Info("coordinator listening", zap.String("addr", addr), zap.Int("workers", cli.Workers))
	<-stop
	log.Info("coordinator shutting down")

	listener.Close()
	<-acceptDone
	close(connections)
	workers.Wait()

	cancel()
	monitor.Close()
	background.Wait()

	log.Info("coordinator stopped")
	return nil
}
