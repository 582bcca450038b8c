package api

import (
	"context"
	"net/http"
	"time"

	domrepo "TradeDeck/internal/domain/repository"

	"github.com/labstack/echo/v4"
)

// Router wires all API handlers onto one Echo instance.
type Router struct {
	market     *MarketHandler
	plans      *PlansHandler
	watchlists *WatchlistsHandler
	indicators *IndicatorsHandler
	store      domrepo.CandleStore
	stream     domrepo.MarketStream
}

func NewRouter(
	market *MarketHandler,
	plans *PlansHandler,
	watchlists *WatchlistsHandler,
	indicators *IndicatorsHandler,
	store domrepo.CandleStore,
	stream domrepo.MarketStream,
) *Router {
	return &Router{
		market:     market,
		plans:      plans,
		watchlists: watchlists,
		indicators: indicators,
		store:      store,
		stream:     stream,
	}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.market.RegisterRoutes(e)
	r.plans.RegisterRoutes(e)
	r.watchlists.RegisterRoutes(e)
	r.indicators.RegisterRoutes(e)
	e.GET("/healthz", r.Health)
}

func (r *Router) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := map[string]interface{}{
		"status":           "ok",
		"stream_connected": r.stream != nil && r.stream.IsConnected(),
	}
	code := http.StatusOK
	if r.store != nil {
		if err := r.store.Health(ctx); err != nil {
			resp["status"] = "degraded"
			resp["storage"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, resp)
}
