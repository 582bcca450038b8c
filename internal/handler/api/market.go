package api

import (
	"strings"
	"time"

	models "TradeDeck/internal/domain/models"
	domrepo "TradeDeck/internal/domain/repository"
	"TradeDeck/internal/usecase"
	xhttp "TradeDeck/pkg/http"
	xlogger "TradeDeck/pkg/logger"
	"TradeDeck/pkg/util"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves quotes and candles.
type MarketHandler struct {
	logger  *xlogger.Logger
	board   *usecase.QuoteBoard
	candles *usecase.CandlesUseCase
	lists   *usecase.WatchlistUseCase
}

func NewMarketHandler(logger *xlogger.Logger, board *usecase.QuoteBoard, candles *usecase.CandlesUseCase, lists *usecase.WatchlistUseCase) *MarketHandler {
	return &MarketHandler{logger: logger, board: board, candles: candles, lists: lists}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/quote", h.Quote)
	g.GET("/quotes", h.Quotes)
	g.GET("/candles", h.Candles)
}

func (h *MarketHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q, err := h.board.Get(c.Request().Context(), strings.ToUpper(req.Symbol))
	if err != nil {
		h.logger.Error("quote lookup error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if q == nil {
		return xhttp.NotFoundResponse(c, "no quote for symbol")
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *MarketHandler) Quotes(c echo.Context) error {
	req := &models.QuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if req.Watchlist != "" {
		res, err := h.lists.Quotes(ctx, req.Watchlist)
		if err != nil {
			h.logger.Error("watchlist quotes error", xlogger.String("watchlist", req.Watchlist), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.SuccessResponse(c, res)
	}

	var symbols []string
	for _, s := range strings.Split(req.Symbols, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return xhttp.BadRequestResponse(c, "symbols or watchlist required")
	}
	res, err := h.board.GetMany(ctx, symbols)
	if err != nil {
		h.logger.Error("quotes lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tf := domrepo.NormalizeTimeframe(req.TF)
	now := time.Now().UTC()
	to := util.ParseTimeDefault(req.To, now)
	from := util.ParseTimeDefault(req.From, to.Add(-time.Duration(req.Limit)*tf.Duration()))
	from, to = util.AlignFromTo(from, to, string(tf))

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:      strings.ToUpper(req.Symbol),
		From:        from,
		To:          to,
		Timeframe:   tf,
		Limit:       req.Limit,
		IncludeLive: req.To == "", // live bar only when the window ends now
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, res)
}
