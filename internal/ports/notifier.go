package ports

import (
	"context"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// Notifier reporta el resumen de un ciclo de reconciliación.
type Notifier interface {
	Notify(ctx context.Context, report domain.ReconcileReport) error
}
