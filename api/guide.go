package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dvrdeck-cli/dvrdeck/filesystem"
	"github.com/dvrdeck-cli/dvrdeck/key"
	"github.com/dvrdeck-cli/dvrdeck/log"
	"github.com/dvrdeck-cli/dvrdeck/where"
	"github.com/metafates/gache"
	"github.com/spf13/viper"
)

var (
	guideCacher     *gache.Cache[*GuideResponse]
	guideCacherOnce sync.Once
)

// guideCache returns the disk-backed guide snapshot cache, created on first
// use so the configured lifetime is in effect.
func guideCache() *gache.Cache[*GuideResponse] {
	guideCacherOnce.Do(func() {
		minutes := viper.GetInt(key.ServerGuideRefresh)
		if minutes <= 0 {
			minutes = 60
		}

		guideCacher = gache.New[*GuideResponse](&gache.Options{
			Path:       where.GuideCache(),
			Lifetime:   time.Duration(minutes) * time.Minute,
			FileSystem: &filesystem.GacheFs{},
		})
	})
	return guideCacher
}

// Guide fetches the electronic program guide via GET /api/guide, serving a
// cached snapshot while it is fresh. forceRefresh bypasses and rewrites the
// cache unconditionally.
func (c *Client) Guide(ctx context.Context, forceRefresh bool) ([]GuideChannel, error) {
	if !forceRefresh {
		cached, expired, err := guideCache().Get()
		if err == nil && !expired && cached != nil {
			return cached.Channels, nil
		}
	}

	resp, err := request[GuideResponse](ctx, c, call{
		method:   http.MethodGet,
		endpoint: "/api/guide",
	})
	if err != nil {
		return nil, err
	}

	if cacheErr := guideCache().Set(&resp); cacheErr != nil {
		log.Warnf("api: caching guide snapshot failed: %v", cacheErr)
	}

	return resp.Channels, nil
}
