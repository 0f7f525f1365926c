// Package ops serves the operator's read-only HTTP view of the bot.
package ops

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/loathers/cagebot/internal/adapter/metrics/inmemory"
	"github.com/loathers/cagebot/internal/app/status"
)

type Handler struct {
	Status  *status.UseCase
	Metrics *inmemory.Recorder
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())
	s.GET("/ops/status", h.status)
	s.GET("/ops/metrics", h.metrics)
}

// status reports the cage snapshot without touching the game session, so
// it stays responsive while a long run holds the exclusivity gate.
func (h Handler) status(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Status.Snapshot())
}

func (h Handler) metrics(_ context.Context, ctx *app.RequestContext) {
	if h.Metrics == nil {
		ctx.JSON(consts.StatusOK, inmemory.Snapshot{})
		return
	}
	ctx.JSON(consts.StatusOK, h.Metrics.Snapshot())
}
