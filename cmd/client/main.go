// Command client is an interactive line-oriented client for the key-value
// cluster. It reads the coordinator's address from the published config
// file and accepts "get", "put", "update", and "delete" commands on
// stdin, printing one reply line per command on stdout.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dreamware/ringkv/internal/clusterconfig"
	"github.com/dreamware/ringkv/internal/wire"
)

var cli struct {
	ConfigFile string `default:"cs_config.txt" help:"Path to read the coordinator's address from."`
}

func main() {
	kong.Parse(&cli)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "client:", err)
		os.Exit(1)
	}
}

func run() error {
	coordinator, err := clusterconfig.Read(cli.ConfigFile)
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", coordinator.Addr())
	if err != nil {
		return fmt.Errorf("client: dial coordinator at %s: %w", coordinator.Addr(), err)
	}
	defer conn.Close()

	r := wire.NewReader(conn)
	w := wire.NewWriter(conn)

	if _, err := r.ReadRecord(); err != nil {
		return fmt.Errorf("client: reading connected ack: %w", err)
	}
	if err := w.WriteRecord(wire.Record{ID: "client"}); err != nil {
		return fmt.Errorf("client: sending identification: %w", err)
	}
	ready, err := r.ReadRecord()
	if err != nil {
		return fmt.Errorf("client: reading ready ack: %w", err)
	}
	if ready.Message != "ready_to_serve" {
		return fmt.Errorf("client: coordinator refused session: %q", ready.Message)
	}

	return repl(os.Stdin, os.Stdout, r, w)
}

// repl reads one command per line from in, issues the corresponding
// request over the session, and writes one reply description per line
// to out. Blank lines are skipped; unrecognized commands are reported,
// not fatal.
func repl(in io.Reader, out io.Writer, r *wire.Reader, w *wire.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		req, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		if err := w.WriteRecord(req); err != nil {
			return fmt.Errorf("client: sending request: %w", err)
		}
		reply, err := r.ReadRecord()
		if err != nil {
			return fmt.Errorf("client: reading reply: %w", err)
		}
		fmt.Fprintln(out, reply.Message)
	}
	return scanner.Err()
}

func parseCommand(line string) (wire.Record, error) {
	fields := strings.SplitN(line, " ", 3)
	switch strings.ToLower(fields[0]) {
	case "get":
		if len(fields) != 2 {
			return wire.Record{}, fmt.Errorf("usage: get <key>")
		}
		return wire.Record{ReqType: wire.ReqGet, Key: fields[1]}, nil
	case "put":
		if len(fields) != 3 {
			return wire.Record{}, fmt.Errorf("usage: put <key> <value>")
		}
		return wire.Record{ReqType: wire.ReqPut, Key: fields[1], Value: fields[2]}, nil
	case "update":
		if len(fields) != 3 {
			return wire.Record{}, fmt.Errorf("usage: update <key> <value>")
		}
		return wire.Record{ReqType: wire.ReqUpdate, Key: fields[1], Value: fields[2]}, nil
	case "delete":
		if len(fields) != 2 {
			return wire.Record{}, fmt.Errorf("usage: delete <key>")
		}
		return wire.Record{ReqType: wire.ReqDelete, Key: fields[1]}, nil
	default:
		return wire.Record{}, fmt.Errorf("unrecognized command %q (expected get, put, update, or delete)", fields[0])
	}
}

