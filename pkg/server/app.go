package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TradeDeck/internal/handler/api"
	"TradeDeck/internal/jobs"
	"TradeDeck/internal/usecase"
	pkgch "TradeDeck/pkg/clickhouse"
	"TradeDeck/pkg/config"
	xhttp "TradeDeck/pkg/http"
	pkgkafka "TradeDeck/pkg/kafka"
	applogger "TradeDeck/pkg/logger"
	"TradeDeck/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	collector  *usecase.TickCollector
	board      *usecase.QuoteBoard
	proc       *usecase.BarProcessor
	consumer   *pkgkafka.Consumer
	sink       *usecase.KafkaCandlesHandler
	jobQueue   *queue.RedisQueue
	scheduler  *jobs.Scheduler
	chClient   *pkgch.Client
	router     *api.Router
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	collector *usecase.TickCollector,
	board *usecase.QuoteBoard,
	proc *usecase.BarProcessor,
	consumer *pkgkafka.Consumer,
	sink *usecase.KafkaCandlesHandler,
	jobQueue *queue.RedisQueue,
	scheduler *jobs.Scheduler,
	chClient *pkgch.Client,
	router *api.Router,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		board:     board,
		proc:      proc,
		consumer:  consumer,
		sink:      sink,
		jobQueue:  jobQueue,
		scheduler: scheduler,
		chClient:  chClient,
		router:    router,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	// warm the quote board so watchlists show change vs previous close
	// before the first tick arrives
	if a.board != nil {
		go a.board.Seed(ctx, a.cfg.Polygon.Symbols)
	}

	if err := a.collector.Start(ctx); err != nil {
		l.Error("collector start error", applogger.Error(err))
		return err
	}
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Polygon.Symbols))

	// when bars route through Kafka, a consumer drains them into ClickHouse
	if a.consumer != nil && a.sink != nil {
		a.consumer.RegisterHandler(a.sink)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka candles sink started", applogger.String("topic", a.sink.Topic()))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Error("job queue start error", applogger.Error(err))
		} else {
			a.jobQueue.StartRetryProcessor()
		}
	}
	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			l.Error("scheduler start error", applogger.Error(err))
		}
	}

	a.httpServer = xhttp.NewServer(a.router,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// stop taking ticks first so open bars flush before stores close
	if err := a.collector.Shutdown(shutdownCtx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			l.Warn("scheduler stop error", applogger.Error(err))
		}
	}
	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// closes the bar publisher and candle store
	if a.proc != nil {
		a.proc.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
