package wire

import (
	"fmt"
	"os"
	"path/filepath"
)

// BrokerSocketPath resolves the broker's listening socket: a fixed name
// under the invoking user's home directory, or a pid-qualified file
// under the shared temp directory when no home is available. The
// Director resolves it once and hands the result to every child, so a
// pid-qualified fallback never diverges between processes.
func BrokerSocketPath() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".postoffice-broker.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("postoffice-broker.%d.sock", os.Getpid()))
}

// BridgeSocketPath resolves the Director's control-bridge socket the
// same way as the broker's.
func BridgeSocketPath() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".postoffice-bridge.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("postoffice-bridge.%d.sock", os.Getpid()))
}
