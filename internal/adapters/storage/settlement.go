package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
	"github.com/google/uuid"
)

// Apply aplica una decisión de grading de forma idempotente, todo en una
// transacción por leg:
//
//  1. Insert-if-absent del settlement event por fingerprint.
//  2. Se inspecciona el row count: 0 filas = el fingerprint ya existía, la
//     liquidación ya se aplicó antes — no se toca nada más y se reporta
//     Inserted=false. Esto convierte el "¿ya hice esto?" de un
//     read-then-write con carrera en un único write condicional atómico.
//  3. Si la fila era nueva: se liquida la leg, se deriva el estado de la
//     apuesta si todas sus legs quedaron terminales, y se escribe el audit
//     Settle. Commit independiente del resto del batch.
//
// Bajo escritores concurrentes sobre la misma leg, exactamente uno gana el
// insert; el resto observa el hit de idempotencia sin efectos.
func (s *SQLiteStore) Apply(ctx context.Context, event domain.SettlementEvent, leg domain.Leg, legStatus domain.Status) (domain.SettlementApplied, error) {
	var applied domain.SettlementApplied

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		snapshot, err := json.Marshal(event.Result)
		if err != nil {
			return fmt.Errorf("marshal result snapshot: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO settlement_events (id, fingerprint, event_id, result, computed, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(fingerprint) DO NOTHING`,
			event.ID, event.Fingerprint, event.EventID, string(snapshot),
			event.Computed, fmtTime(event.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert settlement event: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if inserted == 0 {
			// Idempotency hit: esta liquidación exacta ya se aplicó.
			return nil
		}
		applied.Inserted = true

		if _, err := tx.ExecContext(ctx,
			`UPDATE legs SET status = ? WHERE id = ? AND status = 'PENDING'`,
			string(legStatus), leg.ID,
		); err != nil {
			return fmt.Errorf("settle leg %s: %w", leg.ID, err)
		}

		legs, err := s.legsOfBet(ctx, tx, leg.BetID)
		if err != nil {
			return fmt.Errorf("load legs of %s: %w", leg.BetID, err)
		}
		betStatus, done := domain.ResolveBetStatus(legs)
		if !done {
			// Quedan legs pendientes (parlay a medio liquidar): la apuesta
			// sigue PENDING y no se audita todavía.
			return nil
		}

		var bet domain.Bet
		if err := tx.QueryRowContext(ctx,
			`SELECT id, stake, decimal_odds FROM bets WHERE id = ?`, leg.BetID,
		).Scan(&bet.ID, &bet.Stake, &bet.DecimalOdds); err != nil {
			return fmt.Errorf("load bet %s: %w", leg.BetID, err)
		}
		// Las legs con su estado final entran al cálculo: una leg pushed
		// dentro de un parlay baja su cuota a 1.0.
		bet.Legs = legs
		payout := bet.PayoutFor(betStatus)

		// Update condicional por pk: solo Pending → terminal. Un estado ya
		// terminal jamás se pisa por esta vía (eso es territorio de override).
		res, err = tx.ExecContext(ctx,
			`UPDATE bets SET status = ?, payout = ? WHERE id = ? AND status = 'PENDING'`,
			string(betStatus), payout, leg.BetID,
		)
		if err != nil {
			return fmt.Errorf("settle bet %s: %w", leg.BetID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		applied.BetSettled = true
		applied.BetStatus = betStatus
		applied.Payout = payout

		// Audit en la misma transacción: si no se puede registrar el
		// Settle, la liquidación entera se revierte.
		entry := domain.AuditLogEntry{
			ID:           uuid.NewString(),
			Action:       domain.AuditSettle,
			SubjectBetID: leg.BetID,
			Metadata:     domain.SettleMetadata(event.Result, time.Now().UTC(), event.ID),
			CreatedAt:    time.Now().UTC(),
		}
		return appendAuditTx(ctx, tx, entry)
	})
	if err != nil {
		return domain.SettlementApplied{}, fmt.Errorf("storage.Apply: %w", err)
	}
	return applied, nil
}
