package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"codegen/internal/domain/entity"
)

var _ CodeGenerator = (*CachedGenerator)(nil)

// CachedGenerator memoizes successful generations for identical requests.
type CachedGenerator struct {
	next  CodeGenerator
	cache *ttlcache.Cache[string, entity.GenerationResult]
}

func NewCachedGenerator(next CodeGenerator, ttl time.Duration, capacity uint64) *CachedGenerator {
	opts := []ttlcache.Option[string, entity.GenerationResult]{
		ttlcache.WithTTL[string, entity.GenerationResult](ttl),
		ttlcache.WithDisableTouchOnHit[string, entity.GenerationResult](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, entity.GenerationResult](capacity))
	}
	c := ttlcache.New[string, entity.GenerationResult](opts...)
	go c.Start()
	return &CachedGenerator{next: next, cache: c}
}

func (g *CachedGenerator) Generate(ctx context.Context, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	key := cacheKey(req)
	if item := g.cache.Get(key); item != nil {
		res := item.Value()
		return &res, nil
	}
	res, err := g.next.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	g.cache.Set(key, *res, ttlcache.DefaultTTL)
	return res, nil
}

func (g *CachedGenerator) Len() int {
	return g.cache.Len()
}

// Close stops the expiry loop.
func (g *CachedGenerator) Close() {
	g.cache.Stop()
}

func cacheKey(req entity.GenerationRequest) string {
	return strings.Join([]string{string(req.Language), string(req.Mode), strings.TrimSpace(req.Description)}, "|")
}
