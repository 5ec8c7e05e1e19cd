// AngelaMos | 2026
// views.go

package productview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/metrics"
	"github.com/carterperez-dev/storefront/internal/product"
)

const (
	FeaturedKey    = "featured_products"
	BestSellersKey = "best_seller_products"
)

const instrumentationScope = "github.com/carterperez-dev/storefront/productview"

// Source is the authoritative store the views are computed from.
type Source interface {
	FindByFlag(ctx context.Context, flag product.Flag) ([]product.Product, error)
}

type view struct {
	name string
	key  string
	flag product.Flag
}

var (
	featuredView    = view{name: "featured", key: FeaturedKey, flag: product.FlagFeatured}
	bestSellersView = view{name: "best_sellers", key: BestSellersKey, flag: product.FlagBestSeller}
)

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Registry
	Timeout time.Duration
}

// Views is a read-through cache of the featured and best-seller product
// lists. Entries never expire; they are recomputed on relevant writes.
type Views struct {
	rdb     redis.Cmdable
	source  Source
	logger  *slog.Logger
	metrics *metrics.Registry
	timeout time.Duration
}

func New(rdb redis.Cmdable, source Source, opts Options) *Views {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Views{
		rdb:     rdb,
		source:  source,
		logger:  logger,
		metrics: opts.Metrics,
		timeout: opts.Timeout,
	}
}

func (v *Views) Featured(ctx context.Context) ([]byte, error) {
	return v.read(ctx, featuredView)
}

func (v *Views) BestSellers(ctx context.Context) ([]byte, error) {
	return v.read(ctx, bestSellersView)
}

func (v *Views) InvalidateFeatured(ctx context.Context) error {
	return v.invalidate(ctx, featuredView)
}

func (v *Views) InvalidateBestSellers(ctx context.Context) error {
	return v.invalidate(ctx, bestSellersView)
}

// Clear drops both views. The next read of each recomputes it.
func (v *Views) Clear(ctx context.Context) error {
	ctx, cancel := v.bound(ctx)
	defer cancel()

	if err := v.rdb.Del(ctx, FeaturedKey, BestSellersKey).Err(); err != nil {
		return core.Upstream("clear product views", err)
	}

	v.logger.Info("product_view.cleared")
	return nil
}

func (v *Views) read(ctx context.Context, vw view) ([]byte, error) {
	cached, err := v.get(ctx, vw.key)
	if err == nil {
		v.metrics.ObserveCache(vw.name, metrics.CacheHit)
		return cached, nil
	}

	if !errors.Is(err, redis.Nil) {
		v.metrics.ObserveCache(vw.name, metrics.CacheError)
		v.logger.Warn("product_view.cache_degraded",
			"view", vw.name,
			"error", err,
		)
		raw, _, loadErr := v.load(ctx, vw)
		return raw, loadErr
	}

	v.metrics.ObserveCache(vw.name, metrics.CacheMiss)

	raw, _, err := v.load(ctx, vw)
	if err != nil {
		return nil, err
	}

	if err := v.set(ctx, vw.key, raw); err != nil {
		v.logger.Warn("product_view.cache_degraded",
			"view", vw.name,
			"error", err,
		)
	}

	return raw, nil
}

// invalidate recomputes vw and overwrites its key. When the recompute
// cannot be stored the key is deleted instead, so the next read goes to
// the repository. An error means the old value may still be served.
func (v *Views) invalidate(ctx context.Context, vw view) error {
	ctx, span := core.StartSpan(ctx, instrumentationScope, "productview.recompute",
		attribute.String("view", vw.name),
	)
	defer span.End()

	raw, count, err := v.load(ctx, vw)
	if err == nil {
		err = v.set(ctx, vw.key, raw)
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return v.drop(ctx, vw, err)
	}

	core.AddSpanEvent(ctx, "product_view.invalidated",
		attribute.String("view", vw.name),
		attribute.Int("count", count),
	)
	v.metrics.ObserveInvalidation(vw.name)
	v.logger.Info("product_view.invalidated",
		"view", vw.name,
		"count", count,
	)
	return nil
}

func (v *Views) drop(ctx context.Context, vw view, cause error) error {
	delCtx, cancel := v.bound(context.WithoutCancel(ctx))
	defer cancel()

	if err := v.rdb.Del(delCtx, vw.key).Err(); err != nil {
		return fmt.Errorf("recompute %s view: %w (drop: %w)",
			vw.name, cause, core.Upstream("drop product view", err))
	}

	core.AddSpanEvent(ctx, "product_view.dropped", attribute.String("view", vw.name))
	v.logger.Warn("product_view.dropped",
		"view", vw.name,
		"error", cause,
	)
	return nil
}

func (v *Views) load(ctx context.Context, vw view) ([]byte, int, error) {
	products, err := v.source.FindByFlag(ctx, vw.flag)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s view: %w", vw.name, err)
	}
	if products == nil {
		products = []product.Product{}
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return nil, 0, fmt.Errorf("encode %s view: %w", vw.name, err)
	}

	return raw, len(products), nil
}

func (v *Views) get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := v.bound(ctx)
	defer cancel()

	raw, err := v.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, redis.Nil
	}
	if err != nil {
		return nil, core.Upstream("read product view", err)
	}
	return raw, nil
}

func (v *Views) set(ctx context.Context, key string, raw []byte) error {
	ctx, cancel := v.bound(ctx)
	defer cancel()

	if err := v.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return core.Upstream("write product view", err)
	}
	return nil
}

func (v *Views) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.timeout)
}

var _ product.ViewReader = (*Views)(nil)
