package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// InsertEvidence inserta el item con un write consciente de conflictos:
// si (owner, content_hash) ya existe, recupera el id existente y falla con
// DuplicateEvidenceError. Rechazo duro, no warning — y todo-o-nada: nunca
// queda visible una escritura parcial.
func (s *SQLiteStore) InsertEvidence(ctx context.Context, item domain.EvidenceItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence (id, owner_id, raw_content, content_hash, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.OwnerID, item.RawContent, item.ContentHash, item.Source, fmtTime(item.CreatedAt),
	)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("storage.InsertEvidence: %w", err)
	}

	var existingID string
	lookupErr := s.db.QueryRowContext(ctx,
		`SELECT id FROM evidence WHERE owner_id = ? AND content_hash = ?`,
		item.OwnerID, item.ContentHash,
	).Scan(&existingID)
	if lookupErr != nil {
		return fmt.Errorf("storage.InsertEvidence: lookup existing: %w", lookupErr)
	}
	return &domain.DuplicateEvidenceError{ExistingID: existingID}
}

// GetEvidence busca un item por owner e id.
func (s *SQLiteStore) GetEvidence(ctx context.Context, ownerID, id string) (domain.EvidenceItem, error) {
	var item domain.EvidenceItem
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, raw_content, content_hash, source, created_at
		FROM evidence WHERE owner_id = ? AND id = ?`,
		ownerID, id,
	).Scan(&item.ID, &item.OwnerID, &item.RawContent, &item.ContentHash, &item.Source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EvidenceItem{}, fmt.Errorf("storage.GetEvidence: %s: not found", id)
	}
	if err != nil {
		return domain.EvidenceItem{}, fmt.Errorf("storage.GetEvidence: %w", err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.EvidenceItem{}, fmt.Errorf("storage.GetEvidence: %w", err)
	}
	return item, nil
}
