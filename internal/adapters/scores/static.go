package scores

import (
	"context"
	"sync"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// Static es un ResultProvider en memoria para tests y modo dry-run.
type Static struct {
	mu      sync.RWMutex
	results map[string]domain.GameResult
}

// NewStatic crea un provider vacío.
func NewStatic() *Static {
	return &Static{results: make(map[string]domain.GameResult)}
}

// Add registra (o reemplaza) el resultado de un evento.
func (s *Static) Add(result domain.GameResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.EventID] = result
}

// FetchResults implementa ports.ResultProvider.
func (s *Static) FetchResults(_ context.Context, eventIDs []string) (map[string]domain.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.GameResult, len(eventIDs))
	for _, id := range eventIDs {
		if r, ok := s.results[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}
