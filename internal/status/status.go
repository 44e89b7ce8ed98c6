// Package status runs a small local HTTP endpoint reporting the
// daemon's last transfer outcome, and advertises it over mDNS/DNS-SD
// so a phone or laptop on the same LAN can find it without typing in
// an IP — a LAN-debugging convenience, never part of the radio wire
// protocol, grounded on the teacher's src/dns_sd.go announcement of
// its KISS-over-TCP service.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/brutella/dnssd"
)

// ServiceType is the DNS-SD service type this daemon announces.
const ServiceType = "_nrf24xfer._tcp"

// Info is the last transfer's outcome, as reported over HTTP.
type Info struct {
	Mode      string    `json:"mode"`
	FileID    uint16    `json:"file_id"`
	Bytes     int       `json:"bytes"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Server serves the last Info as JSON at "/".
type Server struct {
	mu   sync.Mutex
	last Info
}

// NewServer returns an empty Server.
func NewServer() *Server {
	return &Server{}
}

// SetLast records the latest transfer outcome.
func (s *Server) SetLast(info Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = info
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	info := s.last
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

// Listen binds an ephemeral local port and starts serving in the
// background until ctx is cancelled. It returns the chosen port so
// the caller can pass it to Announce.
func (s *Server) Listen(ctx context.Context) (port int, err error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("status: listening: %w", err)
	}

	srv := &http.Server{Handler: s}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		_ = srv.Serve(ln)
	}()

	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Announce publishes this daemon as ServiceType on port via DNS-SD,
// matching src/dns_sd.go's NewService/NewResponder/Add/Respond
// sequence. The returned responder runs until ctx is cancelled.
func Announce(ctx context.Context, name string, port int) error {
	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("status: creating dns-sd service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("status: creating dns-sd responder: %w", err)
	}

	if _, err := responder.Add(svc); err != nil {
		return fmt.Errorf("status: adding dns-sd service: %w", err)
	}

	go func() {
		_ = responder.Respond(ctx)
	}()

	return nil
}
