package ports

import (
	"context"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// BetStore persiste apuestas y sus legs en el ledger canónico.
type BetStore interface {
	// InsertBet inserta la apuesta con sus legs y el audit Create en una
	// transacción: nunca queda comiteada una apuesta sin su registro.
	// Una violación de unicidad — mismo (owner, raw_slip_hash) o la misma
	// tupla estructural — surge como domain.ErrDuplicateSlip.
	InsertBet(ctx context.Context, bet domain.Bet, audit domain.AuditLogEntry) error

	// GetBet devuelve la apuesta con sus legs.
	GetBet(ctx context.Context, id string) (domain.Bet, error)

	// FindNearby devuelve las apuestas del owner en el mismo sportsbook con
	// stake y cuota idénticos cuyo placed_at cae dentro de [from, to].
	// El matching fino de selección lo hace el caller.
	FindNearby(ctx context.Context, ownerID, sportsbook string, stake, odds float64, from, to time.Time) ([]domain.Bet, error)

	// PendingLegs devuelve las legs sin liquidar de apuestas pendientes
	// que pasan el filtro.
	PendingLegs(ctx context.Context, filter domain.ReconcileFilter) ([]domain.Leg, error)

	// UpdateBetStatus fija estado y payout por primary key, sin condición
	// de estado previo, y comitea el audit Override en la misma
	// transacción. Solo lo usa el path de override; el settlement normal
	// pasa por SettlementStore.Apply.
	UpdateBetStatus(ctx context.Context, betID string, status domain.Status, payout float64, audit domain.AuditLogEntry) error
}
