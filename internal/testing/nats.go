package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// NewNATSServerAndConn starts an embedded NATS server on a random port and
// connects to it. Both are closed when the test ends.
func NewNATSServerAndConn(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	s := RunNATSServer(t, &server.Options{})
	return s, Connect(t, s)
}

// RunNATSServer starts an embedded NATS server with opts, listening on a
// random localhost port. The server is shut down when the test ends.
func RunNATSServer(t *testing.T, opts *server.Options) *server.Server {
	t.Helper()

	opts.Host = "localhost"
	opts.Port = server.RANDOM_PORT
	opts.NoLog = true
	opts.NoSigs = true

	s, err := server.NewServer(opts)
	if err != nil {
		t.Fatal(err)
	}

	go s.Start()

	if !s.ReadyForConnections(5 * time.Second) {
		s.Shutdown()
		t.Fatal("NATS server not ready in time")
	}

	t.Cleanup(func() {
		s.Shutdown()
		s.WaitForShutdown()
	})
	return s
}

// Connect opens a connection to s that is closed when the test ends.
func Connect(t *testing.T, s *server.Server, options ...nats.Option) *nats.Conn {
	t.Helper()

	c, err := nats.Connect(fmt.Sprintf("nats://%s", s.Addr().String()), append([]nats.Option{nats.Name(t.Name())}, options...)...)
	if err != nil {
		t.Fatalf("error connecting to the server: %s", err)
	}
	t.Cleanup(c.Close)
	return c
}
