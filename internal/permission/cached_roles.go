package permission

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/orgauth/internal/cache"
	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// DefaultRoleCacheTTL acota cuánto tarda en verse un cambio de permisos de un rol.
const DefaultRoleCacheTTL = 30 * time.Second

// CachedRoles envuelve un RoleLookup con un cache TTL y colapsa lookups
// concurrentes del mismo rol en uno solo (singleflight).
// Los ErrNotFound no se cachean. Un cambio en los permisos de un rol se ve
// recién cuando vence la entrada (ttl).
type CachedRoles struct {
	next  RoleLookup
	cache cache.Client
	ttl   time.Duration
	sf    singleflight.Group
}

// NewCachedRoles crea el wrapper. ttl <= 0 usa DefaultRoleCacheTTL.
func NewCachedRoles(next RoleLookup, c cache.Client, ttl time.Duration) *CachedRoles {
	if ttl <= 0 {
		ttl = DefaultRoleCacheTTL
	}
	return &CachedRoles{next: next, cache: c, ttl: ttl}
}

func roleCacheKey(id string) string { return "role:" + id }

// GetByID implementa RoleLookup.
func (c *CachedRoles) GetByID(ctx context.Context, id string) (*repository.Role, error) {
	key := roleCacheKey(id)
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var role repository.Role
		if err := json.Unmarshal([]byte(raw), &role); err == nil {
			return &role, nil
		}
		_ = c.cache.Delete(ctx, key)
	} else if !cache.IsNotFound(err) {
		logger.From(ctx).Warn("role cache read failed",
			logger.Component("permission.cache"), logger.Err(err))
	}

	v, err, _ := c.sf.Do(id, func() (any, error) {
		// Double-check: otro vuelo pudo haber llenado el cache
		if raw, err := c.cache.Get(ctx, key); err == nil {
			var role repository.Role
			if err := json.Unmarshal([]byte(raw), &role); err == nil {
				return &role, nil
			}
		}
		role, err := c.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(role); err == nil {
			if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
				logger.From(ctx).Warn("role cache write failed",
					logger.Component("permission.cache"), logger.Err(err))
			}
		}
		return role, nil
	})
	if err != nil {
		return nil, err
	}
	role := *v.(*repository.Role)
	return &role, nil
}
