// Package clusterconfig owns the one file nodes and clients use to find
// the coordinator: two lines, the coordinator's IP and its port.
package clusterconfig

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FileName is the well-known shared file the coordinator publishes its
// address to.
const FileName = "cs_config.txt"

// Endpoint is the coordinator's published address.
type Endpoint struct {
	IP   string
	Port string
}

// Addr returns the "ip:port" form used to dial the coordinator.
func (e Endpoint) Addr() string {
	return e.IP + ":" + e.Port
}

// Publish writes ep to path as two lines: IP, then port. Called once by
// the coordinator at startup.
func Publish(path string, ep Endpoint) error {
	content := ep.IP + "\n" + ep.Port + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("clusterconfig: publish %s: %w", path, err)
	}
	return nil
}

// Read loads the coordinator's published endpoint from path. Called by
// nodes and clients to discover the coordinator.
func Read(path string) (Endpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Endpoint{}, fmt.Errorf("clusterconfig: read %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return Endpoint{}, fmt.Errorf("clusterconfig: read %s: %w", path, err)
	}
	if len(lines) < 2 {
		return Endpoint{}, fmt.Errorf("clusterconfig: %s: expected 2 lines, got %d", path, len(lines))
	}
	return Endpoint{IP: lines[0], Port: lines[1]}, nil
}
