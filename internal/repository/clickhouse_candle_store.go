package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeDeck/internal/domain/models"
	domrepo "TradeDeck/internal/domain/repository"
	pkgch "TradeDeck/pkg/clickhouse"
	applogger "TradeDeck/pkg/logger"
)

// CHCandleStore persists OHLCV bars in ClickHouse, one table per
// timeframe. Tables use ReplacingMergeTree keyed by (symbol, bucket) so
// re-inserted bars (backfill overlap, shutdown flush) dedupe on merge.
type CHCandleStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func candleTable(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1m, domrepo.TF5m, domrepo.TF1h, domrepo.TF1d:
		return "tradedeck.candles_" + string(tf), nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

// Init ensures the database and per-timeframe tables exist. Idempotent.
func (s *CHCandleStore) Init(ctx context.Context) error {
	stmts := []string{`CREATE DATABASE IF NOT EXISTS tradedeck`}
	for _, tf := range domrepo.All() {
		table, _ := candleTable(tf)
		stmts = append(stmts, fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s (
                bucket     DateTime,
                symbol     LowCardinality(String),
                open       Float64,
                high       Float64,
                low        Float64,
                close      Float64,
                vol        Float64,
                inserted   DateTime DEFAULT now()
            ) ENGINE = ReplacingMergeTree(inserted)
            PARTITION BY toYYYYMM(bucket)
            ORDER BY (symbol, bucket)
        `, table))
	}
	return s.client.InitSchema(ctx, stmts)
}

func (s *CHCandleStore) Insert(ctx context.Context, c *models.Candle) error {
	return s.InsertBatch(ctx, []*models.Candle{c})
}

// InsertBatch inserts bars grouped per timeframe with multi-row VALUES,
// chunked to keep statements bounded.
func (s *CHCandleStore) InsertBatch(ctx context.Context, cs []*models.Candle) error {
	if len(cs) == 0 {
		return nil
	}

	byTF := make(map[domrepo.Timeframe][]*models.Candle)
	for _, c := range cs {
		if c == nil || c.Symbol == "" {
			continue
		}
		byTF[domrepo.Timeframe(c.Timeframe)] = append(byTF[domrepo.Timeframe(c.Timeframe)], c)
	}

	const chunkSize = 2000
	for tf, group := range byTF {
		table, err := candleTable(tf)
		if err != nil {
			if s.l != nil {
				s.l.Warn("dropping bars with unknown timeframe",
					applogger.String("tf", string(tf)),
					applogger.Int("count", len(group)))
			}
			continue
		}
		for start := 0; start < len(group); start += chunkSize {
			end := start + chunkSize
			if end > len(group) {
				end = len(group)
			}
			values := make([]string, 0, end-start)
			args := make([]interface{}, 0, (end-start)*7)
			for _, c := range group[start:end] {
				values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
				args = append(args, c.Bucket, c.Symbol, c.Open, c.High, c.Low, c.Close, c.Volume)
			}
			q := fmt.Sprintf(
				"INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES %s",
				table, strings.Join(values, ","))
			if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
				return fmt.Errorf("insert candles %s: %w", tf, err)
			}
		}
	}
	return nil
}

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := candleTable(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s FINAL
        WHERE symbol = ? AND bucket >= ? AND bucket <= ?
        ORDER BY bucket ASC
    `, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		c := models.Candle{Timeframe: string(tf)}
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_candles",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration", time.Since(start)))
	}
	return out, nil
}

// GetLatestNCandles returns up to n most recent bars in ascending bucket
// order.
func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	table, err := candleTable(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, n)
	for rows.Next() {
		c := models.Candle{Timeframe: string(tf)}
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *CHCandleStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHCandleStore) Close() error {
	return nil // pool owned by pkg client
}

var _ domrepo.CandleStore = (*CHCandleStore)(nil)
