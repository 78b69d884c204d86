package http

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/programme-lv/classroom/dashboard"
	"golang.org/x/sync/singleflight"
)

type DashboardHttpHandler struct {
	srvc    *dashboard.DashboardSrvc
	cache   *cache.Cache
	sfGroup singleflight.Group
}

// NewDashboardHttpHandler caches each identity's payload for ttl.
func NewDashboardHttpHandler(srvc *dashboard.DashboardSrvc, ttl time.Duration) *DashboardHttpHandler {
	return &DashboardHttpHandler{
		srvc:  srvc,
		cache: cache.New(ttl, 10*ttl),
	}
}

func (h *DashboardHttpHandler) RegisterRoutes(r chi.Router) {
	r.Post("/assistants/api/dashboard/counts/", h.AssistantCounts)
	r.Post("/teachers/api/dashboard/counts/", h.TeacherCounts)
	r.Post("/students/api/dashboard/summary/", h.StudentSummary)
	r.Post("/students/api/exercises/full/", h.StudentExercises)
}

// cached serves key from the cache or runs load once for all concurrent
// callers. Errors are not cached.
func (h *DashboardHttpHandler) cached(ctx context.Context, key string, load func(ctx context.Context) (any, error)) (any, error) {
	if v, found := h.cache.Get(key); found {
		return v, nil
	}
	v, err, _ := h.sfGroup.Do(key, func() (any, error) {
		if v, found := h.cache.Get(key); found {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		h.cache.SetDefault(key, v)
		return v, nil
	})
	return v, err
}
