package api

import (
	"strings"

	models "TradeDeck/internal/domain/models"
	domrepo "TradeDeck/internal/domain/repository"
	"TradeDeck/internal/usecase"
	xhttp "TradeDeck/pkg/http"
	xlogger "TradeDeck/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IndicatorsHandler serves indicator config CRUD and series evaluation.
type IndicatorsHandler struct {
	logger     *xlogger.Logger
	indicators *usecase.IndicatorUseCase
}

func NewIndicatorsHandler(logger *xlogger.Logger, indicators *usecase.IndicatorUseCase) *IndicatorsHandler {
	return &IndicatorsHandler{logger: logger, indicators: indicators}
}

func (h *IndicatorsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/indicators")
	g.GET("", h.List)
	g.POST("", h.Upsert)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/series", h.Series)
}

func (h *IndicatorsHandler) List(c echo.Context) error {
	configs, err := h.indicators.List(c.Request().Context())
	if err != nil {
		h.logger.Error("indicator list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, configs, int64(len(configs)))
}

func (h *IndicatorsHandler) Upsert(c echo.Context) error {
	req := &models.IndicatorUpsertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg, err := h.indicators.Upsert(c.Request().Context(), &models.IndicatorConfig{
		ID:        req.ID,
		Name:      req.Name,
		Kind:      req.Kind,
		Period:    req.Period,
		Color:     req.Color,
		LineWidth: req.LineWidth,
	})
	if err != nil {
		h.logger.Error("indicator upsert error", xlogger.String("name", req.Name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if req.ID == "" {
		return xhttp.CreatedResponse(c, cfg)
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *IndicatorsHandler) Get(c echo.Context) error {
	id := c.Param("id")
	cfg, err := h.indicators.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("indicator get error", xlogger.String("id", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if cfg == nil {
		return xhttp.NotFoundResponse(c, "indicator not found")
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *IndicatorsHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.indicators.Delete(c.Request().Context(), id); err != nil {
		h.logger.Error("indicator delete error", xlogger.String("id", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *IndicatorsHandler) Series(c echo.Context) error {
	req := &models.IndicatorSeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.indicators.Series(c.Request().Context(),
		req.ID, strings.ToUpper(req.Symbol), domrepo.NormalizeTimeframe(req.TF), req.N)
	if err != nil {
		h.logger.Error("indicator series error",
			xlogger.String("id", req.ID), xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}
