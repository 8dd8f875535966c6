package bridge

import (
	"bufio"
	"context"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/logging"
)

// Bridge is the Director's control socket for an external operator tool.
//
// It accepts local stream connections and reads line-based text commands,
// one goroutine per connection. Every command is logged and acknowledged
// back to the operator.
type Bridge struct {
	logger *logging.Logger
	path   string

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	started bool
}

// New creates a Bridge. Unset options use defaults: the derived control
// socket path and a no-op logger.
func New(opts ...Option) *Bridge {
	cfg := newConfig(opts)
	return &Bridge{
		logger: cfg.logger,
		path:   cfg.path,
		conns:  make(map[net.Conn]struct{}),
	}
}

// SocketPath returns the path the bridge listens on.
func (b *Bridge) SocketPath() string {
	return b.path
}

// Start begins listening. It returns immediately; connections are served
// in background goroutines. Call Stop to shut down.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return errors.New("bridge: already started")
	}

	// A previous run may have left the socket file behind.
	_ = os.Remove(b.path)

	ln, err := net.Listen("unix", b.path)
	if err != nil {
		return errors.Wrap(err, "failed to listen on control socket")
	}

	ctx, cancel := context.WithCancel(ctx)
	b.ctx = ctx
	b.cancel = cancel
	b.listener = ln
	b.started = true

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.acceptLoop()
	}()

	b.logger.Info("control bridge listening", "path", b.path)
	return nil
}

// Stop closes the listener and every open connection, then waits for all
// goroutines to finish. It is safe to call multiple times.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.cancel()
	b.listener.Close()
	for conn := range b.conns {
		conn.Close()
	}
	b.mu.Unlock()

	b.wg.Wait()

	b.mu.Lock()
	b.started = false
	b.mu.Unlock()

	_ = os.Remove(b.path)
}

// acceptLoop hands each inbound connection its own goroutine.
func (b *Bridge) acceptLoop() {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			if b.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			b.logger.Warn("control accept failed", "error", err)
			continue
		}

		b.track(conn)
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.serve(conn)
		}()
	}
}

// serve reads command lines until the operator disconnects.
func (b *Bridge) serve(conn net.Conn) {
	defer func() {
		b.untrack(conn)
		conn.Close()
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		b.logger.Info("control command", "command", line)
		if _, err := conn.Write([]byte(b.handle(line) + "\n")); err != nil {
			return
		}
	}
}

// handle produces the reply for one command line.
//
// TODO: dispatch parsed commands into Director operations once the
// command set is settled; for now every line is echoed back acknowledged.
func (b *Bridge) handle(line string) string {
	return "ack " + line
}

func (b *Bridge) track(conn net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[conn] = struct{}{}
}

func (b *Bridge) untrack(conn net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, conn)
}
