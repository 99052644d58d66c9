package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCacheTTL matches the medium TTL used for directory responses
	DefaultCacheTTL = 4 * time.Hour

	fetchTimeout = 15 * time.Second
)

// CachedDirectory serves directory records from the remote cache, filling
// it from the wrapped directory on a miss. Concurrent misses for the same
// fid share one upstream request. Cache failures never fail a lookup.
type CachedDirectory struct {
	next   ports.Directory
	cache  ports.Cache
	ttl    time.Duration
	logger logrus.FieldLogger
	group  singleflight.Group
}

// NewCachedDirectory wraps next with cache
func NewCachedDirectory(next ports.Directory, cache ports.Cache, ttl time.Duration, logger logrus.FieldLogger) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDirectory{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(fid core.FID) string {
	return "neynar:user:" + fid.String()
}

// GetUser returns the cached record for fid or fetches it
func (d *CachedDirectory) GetUser(ctx context.Context, fid core.FID) (*core.DirectoryUser, error) {
	key := cacheKey(fid)
	log := d.logger.WithField("fid", fid)

	raw, found, err := d.cache.Get(ctx, key)
	switch {
	case err != nil:
		log.WithError(err).Warn("directory cache read failed")
	case found:
		var user core.DirectoryUser
		if err := json.Unmarshal([]byte(raw), &user); err == nil && user.FID == fid {
			return &user, nil
		}
		log.Warn("discarding malformed directory cache entry")
	}

	// The shared fetch outlives any single caller; each caller still
	// stops waiting when its own context ends.
	ch := d.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		user, err := d.next.GetUser(fetchCtx, fid)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("fid %s: %w", fid, core.ErrUserNotFound)
		}

		payload, err := json.Marshal(user)
		if err == nil {
			err = d.cache.Set(fetchCtx, key, string(payload), d.ttl)
		}
		if err != nil {
			log.WithError(err).Warn("directory cache write failed")
		}

		return user, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		user := *res.Val.(*core.DirectoryUser)
		return &user, nil
	}
}

// Invalidate drops the cached record for fid
func (d *CachedDirectory) Invalidate(ctx context.Context, fid core.FID) error {
	return d.cache.Delete(ctx, cacheKey(fid))
}
