package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/database"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
)

type healthResponse struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
	healthy  bool
}

func (h healthResponse) StatusCode() int {
	if h.healthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func (h healthResponse) Message() string {
	if h.healthy {
		return "service is healthy"
	}
	return "service is degraded"
}

func status(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}

// health pings PostgreSQL and Redis.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := database.Ping(ctx, a.dbConn)
	if dbErr != nil {
		slog.WarnContext(ctx, "health check database failed", "error", dbErr)
	}

	cacheErr := a.cacheConn.Ping(ctx).Err()
	if cacheErr != nil {
		slog.WarnContext(ctx, "health check redis failed", "error", cacheErr)
	}

	return healthResponse{
		Database: status(dbErr),
		Cache:    status(cacheErr),
		healthy:  dbErr == nil && cacheErr == nil,
	}, nil
}
