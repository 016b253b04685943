package store

import (
	"fmt"
	"strings"
)

// KV is the durable key-value string store backing client-side state.
// A missing key is reported with ok == false and a nil error.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Keys are the storage keys of one install. Chat history and context
// selection live under separate keys so either can be reset on its own.
type Keys struct {
	ChatHistory      string
	ContextSelection string
	Session          string
}

func NewKeys(namespace string) Keys {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = "workspace"
	}
	return Keys{
		ChatHistory:      ns + ":chat-history",
		ContextSelection: ns + ":context-selection",
		Session:          ns + ":session",
	}
}

// Options selects and configures a KV driver.
type Options struct {
	Driver   string
	Path     string
	RedisURL string
}

// Open builds the KV driver named by opts.Driver.
func Open(opts Options) (KV, error) {
	switch opts.Driver {
	case "", DriverFile:
		return NewFileStore(opts.Path)
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		return NewRedisStore(opts.RedisURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", opts.Driver)
	}
}
