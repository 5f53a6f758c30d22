package ports

import (
	"context"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// SettlementStore aplica decisiones de grading de forma idempotente.
type SettlementStore interface {
	// Apply ejecuta, en una sola transacción por leg: insert-if-absent del
	// SettlementEvent por fingerprint, y si la fila era nueva, la mutación
	// de la leg (y de la apuesta si quedó completa) más el audit Settle.
	// Si el fingerprint ya existía no toca nada y devuelve Inserted=false:
	// ese es el hit de idempotencia, no un error.
	Apply(ctx context.Context, event domain.SettlementEvent, leg domain.Leg, legStatus domain.Status) (domain.SettlementApplied, error)
}
