// Package tokenstore persists the single bearer token the client holds between runs.
package tokenstore

import "fmt"

// Key is the fixed name the token is stored under in every backend.
const Key = "authToken"

// Store defines the token storage operations.
// Get reports ok=false when no token is held; absence is not an error.
type Store interface {
	Get() (token string, ok bool, err error)
	Set(token string) error
	Clear() error
}

// Open returns the store configured by kind ("file", "keyring" or "memory").
func Open(kind, dataDir string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(dataDir), nil
	case "keyring":
		return NewKeyringStore(), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q (want file, keyring or memory)", kind)
	}
}
