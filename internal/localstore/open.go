package localstore

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Options struct {
	Driver   string
	Path     string
	RedisURL string
}

// Open returns the durable KV backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLiteKV(opts.Path)
	case DriverRedis:
		return NewRedisKV(ctx, opts.RedisURL)
	case DriverMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown local store driver %q", opts.Driver)
	}
}
