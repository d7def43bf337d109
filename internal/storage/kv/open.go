package kv

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/salon-admin/internal/config"
)

// Open создаёт хранилище по настройкам cfg.Storage.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	const op = "kv.Open"
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("%s: storage.file_path is required for file driver", op)
		}
		return OpenFile(cfg.FilePath)
	case "redis":
		return InitRedis(ctx, cfg.RedisConnection, cfg.Prefix)
	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Driver)
	}
}
