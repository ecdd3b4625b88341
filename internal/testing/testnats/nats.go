// Package testnats starts a throwaway NATS server for publisher tests.
package testnats

import (
	"context"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	shared     *Server
	sharedOnce sync.Once
	sharedErr  error
)

type Server struct {
	Container testcontainers.Container
	URL       string
}

// Setup returns a NATS server shared by every test in the package, starting
// it on first use. Tests are skipped in short mode.
func Setup(t *testing.T) *Server {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping NATS container test in short mode")
	}

	sharedOnce.Do(func() {
		shared, sharedErr = start(context.Background())
	})
	require.NoError(t, sharedErr)
	return shared
}

func start(ctx context.Context) (*Server, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "4222")
	if err != nil {
		return nil, err
	}

	return &Server{
		Container: container,
		URL:       "nats://" + host + ":" + port.Port(),
	}, nil
}

// Subscribe connects a plain client and buffers every message on subject.
func (s *Server) Subscribe(t *testing.T, subject string) <-chan *nats.Msg {
	t.Helper()

	conn, err := nats.Connect(s.URL)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	msgs := make(chan *nats.Msg, 16)
	_, err = conn.ChanSubscribe(subject, msgs)
	require.NoError(t, err)
	require.NoError(t, conn.Flush())
	return msgs
}
