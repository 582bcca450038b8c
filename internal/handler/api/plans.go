package api

import (
	"strings"

	models "TradeDeck/internal/domain/models"
	"TradeDeck/internal/usecase"
	xhttp "TradeDeck/pkg/http"
	xlogger "TradeDeck/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PlansHandler serves AI trade plans.
type PlansHandler struct {
	logger *xlogger.Logger
	plans  *usecase.PlanService
}

func NewPlansHandler(logger *xlogger.Logger, plans *usecase.PlanService) *PlansHandler {
	return &PlansHandler{logger: logger, plans: plans}
}

func (h *PlansHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/plan", h.Plan)
}

func (h *PlansHandler) Plan(c echo.Context) error {
	req := &models.PlanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	plan, err := h.plans.GetPlan(c.Request().Context(), strings.ToUpper(req.Symbol), req.Refresh)
	if err != nil {
		h.logger.Error("plan usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, plan)
}
