package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeDeck/internal/domain/models"
	drepo "TradeDeck/internal/domain/repository"
)

// WatchlistUseCase manages named symbol lists and keeps the live stream
// subscribed to whatever the lists reference.
type WatchlistUseCase struct {
	store     drepo.WatchlistStore
	collector *TickCollector
	board     *QuoteBoard
}

func NewWatchlistUseCase(store drepo.WatchlistStore, collector *TickCollector, board *QuoteBoard) *WatchlistUseCase {
	return &WatchlistUseCase{store: store, collector: collector, board: board}
}

// Upsert saves a watchlist and subscribes any symbols the stream does not
// carry yet. Symbols are normalized to upper case and deduplicated.
func (uc *WatchlistUseCase) Upsert(ctx context.Context, name string, symbols []string) (*models.Watchlist, error) {
	if name == "" {
		return nil, fmt.Errorf("watchlist name required")
	}

	seen := make(map[string]struct{}, len(symbols))
	clean := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		clean = append(clean, s)
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("watchlist needs at least one symbol")
	}

	w := &models.Watchlist{Name: name, Symbols: clean, UpdatedAt: time.Now().UTC()}
	if err := uc.store.Put(ctx, w); err != nil {
		return nil, fmt.Errorf("save watchlist: %w", err)
	}

	if uc.collector != nil {
		if err := uc.collector.Watch(ctx, clean); err != nil {
			// list is saved; live updates catch up on the next reconnect
			return w, nil
		}
	}
	return w, nil
}

func (uc *WatchlistUseCase) Get(ctx context.Context, name string) (*models.Watchlist, error) {
	return uc.store.Get(ctx, name)
}

func (uc *WatchlistUseCase) List(ctx context.Context) ([]models.Watchlist, error) {
	return uc.store.List(ctx)
}

func (uc *WatchlistUseCase) Delete(ctx context.Context, name string) error {
	return uc.store.Delete(ctx, name)
}

// Quotes resolves the latest quote for every symbol on the list.
func (uc *WatchlistUseCase) Quotes(ctx context.Context, name string) (map[string]models.Quote, error) {
	w, err := uc.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("watchlist %q not found", name)
	}
	return uc.board.GetMany(ctx, w.Symbols)
}

// Symbols returns the union of all watched symbols, for jobs that iterate
// the whole universe (backfill, seeding).
func (uc *WatchlistUseCase) Symbols(ctx context.Context) ([]string, error) {
	lists, err := uc.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, w := range lists {
		for _, s := range w.Symbols {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out, nil
}
