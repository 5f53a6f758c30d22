package ports

import (
	"context"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// AuditStore es el registro durable de acciones. Append-only: no expone
// update ni delete, nunca.
type AuditStore interface {
	// AppendAudit inserta la entrada. No es best-effort: si falla, la
	// operación que la dispara también falla.
	AppendAudit(ctx context.Context, entry domain.AuditLogEntry) error

	// AuditTrail devuelve las entradas de una apuesta, más viejas primero.
	AuditTrail(ctx context.Context, subjectBetID string) ([]domain.AuditLogEntry, error)
}
