// Package cache decorates the credential store with Redis-backed role lookups.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	"github.com/oksasatya/teamsync/internal/domain/repository"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

const roleKeyPrefix = "role:"

// RoleCache serves FindRoleByName from Redis and everything else from the wrapped store.
// Roles are seeded once, so entries only expire by TTL.
type RoleCache struct {
	repository.CredentialStore
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRoleCache(store repository.CredentialStore, rdb redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *RoleCache {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &RoleCache{CredentialStore: store, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *RoleCache) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	key := roleKeyPrefix + name
	var r entity.Role
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, key, &r)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("role cache read failed")
	}
	if ok {
		return &r, nil
	}

	role, err := c.CredentialStore.FindRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := helpers.RedisSetJSON(ctx, c.rdb, key, role, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("role cache write failed")
	}
	return role, nil
}

// InTx keeps the cache in front of the transactional store.
func (c *RoleCache) InTx(ctx context.Context, fn func(tx repository.CredentialStore) error) error {
	return c.CredentialStore.InTx(ctx, func(tx repository.CredentialStore) error {
		return fn(&RoleCache{CredentialStore: tx, rdb: c.rdb, ttl: c.ttl, logger: c.logger})
	})
}
