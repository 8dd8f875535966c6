package bridge

import (
	"bufio"
	"context"
	"net"
	"strings"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/wire"
)

// Client is the operator side of the control bridge, used by the ctl
// subcommand. Each Send opens a fresh connection.
type Client struct {
	path   string
	dialer net.Dialer
}

// NewClient creates a Client for the bridge at path. An empty path uses
// the derived default.
func NewClient(path string) *Client {
	if path == "" {
		path = wire.BridgeSocketPath()
	}
	return &Client{path: path}
}

// Send writes one command line to the Director and returns its
// acknowledgment.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "empty control command")
	}
	if strings.ContainsRune(command, '\n') {
		return "", errors.Wrap(errors.ErrInvalidInput, "control command must be a single line")
	}

	conn, err := c.dialer.DialContext(ctx, "unix", c.path)
	if err != nil {
		return "", errors.Wrap(err, "failed to dial control bridge")
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		return "", errors.Wrap(err, "write control command")
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "read control reply")
	}
	return strings.TrimSuffix(reply, "\n"), nil
}
