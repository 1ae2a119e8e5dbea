package service

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// SocketPath derives the unix socket address for a workspace. Hashing the
// absolute workspace path keeps distinct projects on distinct sockets while
// repeated launches in the same project reuse the same address.
func SocketPath(workspace string) string {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		abs = workspace
	}
	sum := sha256.Sum256([]byte(abs))
	name := "memory-lane-" + hex.EncodeToString(sum[:8]) + ".sock"
	return filepath.Join(os.TempDir(), name)
}
