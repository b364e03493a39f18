package stats

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	File     string
	RedisURL string
	MongoURI string
	MongoDB  string
}

// Open returns the configured store. An empty backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.File == "" {
			opts.File = "stats.json"
		}
		return NewFileStore(opts.File)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL, DefaultRedisPrefix)
	case BackendMongo:
		if opts.MongoDB == "" {
			opts.MongoDB = "overlay3d"
		}
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDB)
	default:
		return nil, fmt.Errorf("unknown stats backend %q (want file, redis or mongo)", opts.Backend)
	}
}
