// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/health"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

// ProductCache drops every cached product view so the next read
// recomputes it from the database.
type ProductCache interface {
	Clear(ctx context.Context) error
}

// DependencyChecker reports the state of the backing stores.
type DependencyChecker interface {
	Checks(ctx context.Context) []health.HealthCheck
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	Checker    DependencyChecker
	Cache      ProductCache
	Logger     *slog.Logger
}

// Handler is the store operator's console: pool and runtime numbers plus
// the product cache reset.
type Handler struct {
	cfg    HandlerConfig
	logger *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cfg: cfg, logger: logger}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator, adminOnly)

		r.Get("/stats", h.SystemStats)
		r.Get("/stats/db", h.DatabaseStats)
		r.Get("/stats/redis", h.RedisStats)
		r.Get("/stats/runtime", h.RuntimeStats)

		r.Delete("/cache/products", h.ClearProductCache)
	})
}

// ClearProductCache removes the featured and best-seller views. The
// next public read of each repopulates it.
func (h *Handler) ClearProductCache(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Cache == nil {
		core.InternalServerError(w, errors.New("product cache not configured"))
		return
	}

	if err := h.cfg.Cache.Clear(r.Context()); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.logger.Info("admin.product_cache_cleared",
		"user_id", middleware.GetUserID(r.Context()),
	)

	core.OK(w, map[string]string{"message": "Product cache cleared"})
}

func (h *Handler) SystemStats(w http.ResponseWriter, r *http.Request) {
	var checks []health.HealthCheck
	if h.cfg.Checker != nil {
		checks = h.cfg.Checker.Checks(r.Context())
	}

	core.OK(w, SystemStatsResponse{
		Dependencies: checks,
		Database:     h.databaseStats(),
		Redis:        h.redisStats(),
		Runtime:      readRuntimeStats(),
	})
}

func (h *Handler) DatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.databaseStats())
}

func (h *Handler) RedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.redisStats())
}

func (h *Handler) RuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) databaseStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}
	s := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpen:      s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration.String(),
		Recycled:     s.MaxIdleClosed + s.MaxIdleTimeClosed + s.MaxLifetimeClosed,
	}
}

func (h *Handler) redisStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}
	s := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
	}
}

func readRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeStats{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapBytes:  m.HeapAlloc,
		SysBytes:   m.Sys,
		GCCycles:   m.NumGC,
	}
}

type SystemStatsResponse struct {
	Dependencies []health.HealthCheck `json:"dependencies"`
	Database     *DBPoolStats         `json:"database,omitempty"`
	Redis        *RedisPoolStats      `json:"redis,omitempty"`
	Runtime      RuntimeStats         `json:"runtime"`
}

type DBPoolStats struct {
	MaxOpen      int    `json:"max_open"`
	Open         int    `json:"open"`
	InUse        int    `json:"in_use"`
	Idle         int    `json:"idle"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
	Recycled     int64  `json:"recycled"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	HeapBytes  uint64 `json:"heap_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	GCCycles   uint32 `json:"gc_cycles"`
}
