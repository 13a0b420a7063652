package orderbook

import (
	"sort"
	"sync"
)

// Books indexes books by market ticker.
type Books struct {
	mu    sync.RWMutex
	depth int
	books map[string]*Book
}

// NewBooks returns an empty index; every book it creates uses depth.
func NewBooks(depth int) *Books {
	return &Books{depth: depth, books: make(map[string]*Book)}
}

// Book returns the book for ticker, creating it when absent.
func (s *Books) Book(ticker string) *Book {
	s.mu.RLock()
	b, ok := s.books[ticker]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.books[ticker]; ok {
		return b
	}
	b = NewBook(ticker, s.depth)
	s.books[ticker] = b
	return b
}

// Lookup returns the book for ticker without creating one.
func (s *Books) Lookup(ticker string) (*Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[ticker]
	return b, ok
}

// Tickers lists the known markets in lexical order.
func (s *Books) Tickers() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.books))
	for ticker := range s.books {
		out = append(out, ticker)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// ResetAll clears every book, e.g. after a reconnect voided all subscriptions.
func (s *Books) ResetAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		b.Reset()
	}
}

// Remove forgets ticker.
func (s *Books) Remove(ticker string) {
	s.mu.Lock()
	delete(s.books, ticker)
	s.mu.Unlock()
}
