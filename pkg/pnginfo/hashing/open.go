package hashing

import (
	"context"
	"fmt"
	"strings"
)

// OpenStore builds a Store from a cache setting:
//
//	""  or "memory"          in-process cache
//	"sqlite:<path>"          SQLite file (":memory:" allowed)
//	"redis://host:port/db"   shared Redis cache
func OpenStore(ctx context.Context, setting string) (Store, error) {
	switch {
	case setting == "" || setting == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(setting, "sqlite:"):
		return NewSQLiteStore(strings.TrimPrefix(setting, "sqlite:"))
	case strings.HasPrefix(setting, "redis://"), strings.HasPrefix(setting, "rediss://"):
		return DialRedis(ctx, setting)
	default:
		return nil, fmt.Errorf("unsupported hash cache %q", setting)
	}
}
