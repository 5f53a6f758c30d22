package ports

import (
	"context"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// ResultProvider entrega resultados finales de eventos ya fetcheados.
// El core solo liquida los que vienen con IsFinal=true.
type ResultProvider interface {
	// FetchResults devuelve los resultados disponibles para los eventos
	// dados, indexados por event id. Un evento ausente del mapa todavía
	// no tiene resultado: es un outcome esperado, no un error.
	FetchResults(ctx context.Context, eventIDs []string) (map[string]domain.GameResult, error)
}
