package api

import (
	models "TradeDeck/internal/domain/models"
	"TradeDeck/internal/usecase"
	xhttp "TradeDeck/pkg/http"
	xlogger "TradeDeck/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WatchlistsHandler serves watchlist CRUD.
type WatchlistsHandler struct {
	logger *xlogger.Logger
	lists  *usecase.WatchlistUseCase
}

func NewWatchlistsHandler(logger *xlogger.Logger, lists *usecase.WatchlistUseCase) *WatchlistsHandler {
	return &WatchlistsHandler{logger: logger, lists: lists}
}

func (h *WatchlistsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/watchlists")
	g.GET("", h.List)
	g.PUT("/:name", h.Upsert)
	g.GET("/:name", h.Get)
	g.DELETE("/:name", h.Delete)
}

func (h *WatchlistsHandler) List(c echo.Context) error {
	lists, err := h.lists.List(c.Request().Context())
	if err != nil {
		h.logger.Error("watchlist list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, lists, int64(len(lists)))
}

func (h *WatchlistsHandler) Upsert(c echo.Context) error {
	req := &models.WatchlistUpsertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	w, err := h.lists.Upsert(c.Request().Context(), req.Name, req.Symbols)
	if err != nil {
		h.logger.Error("watchlist upsert error", xlogger.String("name", req.Name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, w)
}

func (h *WatchlistsHandler) Get(c echo.Context) error {
	name := c.Param("name")
	w, err := h.lists.Get(c.Request().Context(), name)
	if err != nil {
		h.logger.Error("watchlist get error", xlogger.String("name", name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if w == nil {
		return xhttp.NotFoundResponse(c, "watchlist not found")
	}
	return xhttp.SuccessResponse(c, w)
}

func (h *WatchlistsHandler) Delete(c echo.Context) error {
	name := c.Param("name")
	if err := h.lists.Delete(c.Request().Context(), name); err != nil {
		h.logger.Error("watchlist delete error", xlogger.String("name", name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
