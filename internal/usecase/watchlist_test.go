package usecase

import (
	"context"
	"sync"
	"testing"

	"TradeDeck/internal/domain/models"
)

type memWatchlistStore struct {
	mu    sync.Mutex
	lists map[string]models.Watchlist
}

func newMemWatchlistStore() *memWatchlistStore {
	return &memWatchlistStore{lists: make(map[string]models.Watchlist)}
}

func (s *memWatchlistStore) Put(_ context.Context, w *models.Watchlist) error {
	s.mu.Lock()
	s.lists[w.Name] = *w
	s.mu.Unlock()
	return nil
}

func (s *memWatchlistStore) Get(_ context.Context, name string) (*models.Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.lists[name]; ok {
		return &w, nil
	}
	return nil, nil
}

func (s *memWatchlistStore) List(_ context.Context) ([]models.Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Watchlist, 0, len(s.lists))
	for _, w := range s.lists {
		out = append(out, w)
	}
	return out, nil
}

func (s *memWatchlistStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.lists, name)
	s.mu.Unlock()
	return nil
}

func TestWatchlistUpsertNormalizesSymbols(t *testing.T) {
	store := newMemWatchlistStore()
	uc := NewWatchlistUseCase(store, nil, nil)

	w, err := uc.Upsert(context.Background(), "tech", []string{" aapl", "MSFT", "msft ", "", "nvda"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(w.Symbols) != len(want) {
		t.Fatalf("expected %v, got %v", want, w.Symbols)
	}
	for i, sym := range want {
		if w.Symbols[i] != sym {
			t.Fatalf("expected %v, got %v", want, w.Symbols)
		}
	}
}

func TestWatchlistUpsertRejectsEmpty(t *testing.T) {
	uc := NewWatchlistUseCase(newMemWatchlistStore(), nil, nil)

	if _, err := uc.Upsert(context.Background(), "", []string{"AAPL"}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := uc.Upsert(context.Background(), "x", []string{" ", ""}); err == nil {
		t.Fatalf("expected error for empty symbol set")
	}
}

func TestWatchlistSymbolsUnion(t *testing.T) {
	store := newMemWatchlistStore()
	uc := NewWatchlistUseCase(store, nil, nil)

	if _, err := uc.Upsert(context.Background(), "tech", []string{"AAPL", "MSFT"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := uc.Upsert(context.Background(), "etf", []string{"SPY", "AAPL"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	symbols, err := uc.Symbols(context.Background())
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	if len(symbols) != 3 {
		t.Fatalf("expected 3 unique symbols, got %v", symbols)
	}
}

func TestWatchlistDelete(t *testing.T) {
	store := newMemWatchlistStore()
	uc := NewWatchlistUseCase(store, nil, nil)

	if _, err := uc.Upsert(context.Background(), "tech", []string{"AAPL"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := uc.Delete(context.Background(), "tech"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	w, err := uc.Get(context.Background(), "tech")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w != nil {
		t.Fatalf("expected nil after delete, got %+v", w)
	}
}
