// Package storage provides the durable client-side key-value store backing
// persisted credentials and the dark-mode preference flag.
package storage

import "errors"

// Namespaced keys used by the application. Plain entries, no schema
// versioning.
const (
	KeyAuth     = "anatomy-game.auth"
	KeyDarkMode = "anatomy-game.dark-mode"
)

// ErrKeyNotFound is returned when a key has no stored value.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a durable string key-value store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}
