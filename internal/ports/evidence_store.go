package ports

import (
	"context"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// EvidenceStore persiste el texto crudo de los slips, append-only.
type EvidenceStore interface {
	// InsertEvidence inserta el item de forma atómica. Si ya existe una
	// fila para (owner, content_hash) falla con DuplicateEvidenceError
	// llevando el id existente; nunca hay escrituras parciales visibles.
	InsertEvidence(ctx context.Context, item domain.EvidenceItem) error

	// GetEvidence busca un item por owner e id.
	GetEvidence(ctx context.Context, ownerID, id string) (domain.EvidenceItem, error)
}
