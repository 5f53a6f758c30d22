package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// AppendAudit inserta una entrada del audit log. No hay update ni delete
// para esta tabla: el schema no los necesita y este adapter no los expone.
func (s *SQLiteStore) AppendAudit(ctx context.Context, entry domain.AuditLogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.AppendAudit: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := appendAuditTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("storage.AppendAudit: %w", err)
	}
	return tx.Commit()
}

// AuditTrail devuelve las entradas de una apuesta, más viejas primero.
func (s *SQLiteStore) AuditTrail(ctx context.Context, subjectBetID string) ([]domain.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, subject_bet_id, metadata, created_at
		FROM audit_log WHERE subject_bet_id = ? ORDER BY created_at, rowid`,
		subjectBetID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.AuditTrail: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		var action, metadata, createdAt string
		if err := rows.Scan(&e.ID, &action, &e.SubjectBetID, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("storage.AuditTrail: scan: %w", err)
		}
		e.Action = domain.AuditAction(action)
		var parseErr error
		if e.CreatedAt, parseErr = parseTime(createdAt); parseErr != nil {
			return nil, fmt.Errorf("storage.AuditTrail: %w", parseErr)
		}
		if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
			return nil, fmt.Errorf("storage.AuditTrail: metadata of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// appendAuditTx inserta la entrada dentro de una transacción existente.
func appendAuditTx(ctx context.Context, tx *sql.Tx, entry domain.AuditLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, subject_bet_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Action), entry.SubjectBetID, string(metadata), fmtTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
