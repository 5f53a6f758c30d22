package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// InsertBet inserta la apuesta, sus legs y el audit Create en una sola
// transacción: sin audit no hay apuesta, y viceversa. Cualquiera de las dos
// constraints de unicidad — hash del slip o tupla estructural — surge como
// domain.ErrDuplicateSlip: outcome terminal y esperado para el reenvío del
// mismo texto, no un error de servidor.
func (s *SQLiteStore) InsertBet(ctx context.Context, bet domain.Bet, audit domain.AuditLogEntry) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bets
				(id, owner_id, account_id, evidence_id, sportsbook, placed_at,
				 description, selection, stake, decimal_odds, status,
				 raw_slip_hash, dedupe_fingerprint, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bet.ID, bet.OwnerID, bet.AccountID, nullable(bet.EvidenceID), bet.Sportsbook,
			fmtTime(bet.PlacedAt), bet.Description, bet.Selection, bet.Stake,
			bet.DecimalOdds, string(bet.Status), bet.RawSlipHash,
			bet.DedupeFingerprint, fmtTime(bet.CreatedAt),
		)
		if err != nil {
			return err
		}

		for _, leg := range bet.Legs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO legs (id, bet_id, leg_index, event_id, sport_key, market, side, line, decimal_odds, selection, status)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				leg.ID, bet.ID, leg.Index, leg.EventID, leg.SportKey,
				string(leg.Market), string(leg.Side), leg.Line, leg.DecimalOdds,
				leg.Selection, string(leg.Status),
			); err != nil {
				return err
			}
		}
		return appendAuditTx(ctx, tx, audit)
	})
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("storage.InsertBet: %w", domain.ErrDuplicateSlip)
	}
	return fmt.Errorf("storage.InsertBet: %w", err)
}

// GetBet devuelve la apuesta con sus legs ordenadas.
func (s *SQLiteStore) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	var bet domain.Bet
	var placedAt, createdAt, status string
	var evidenceID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, account_id, evidence_id, sportsbook, placed_at,
		       description, selection, stake, decimal_odds, payout, status,
		       raw_slip_hash, dedupe_fingerprint, created_at
		FROM bets WHERE id = ?`, id,
	).Scan(&bet.ID, &bet.OwnerID, &bet.AccountID, &evidenceID, &bet.Sportsbook,
		&placedAt, &bet.Description, &bet.Selection, &bet.Stake, &bet.DecimalOdds,
		&bet.Payout, &status, &bet.RawSlipHash, &bet.DedupeFingerprint, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %s: not found", id)
	}
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %w", err)
	}
	bet.EvidenceID = evidenceID.String
	if bet.PlacedAt, err = parseTime(placedAt); err != nil {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %w", err)
	}
	if bet.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %w", err)
	}
	bet.Status = domain.Status(status)

	legs, err := s.legsOfBet(ctx, s.db, bet.ID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("storage.GetBet: %w", err)
	}
	bet.Legs = legs
	return bet, nil
}

// FindNearby devuelve apuestas del owner con sportsbook, stake y cuota
// idénticos dentro de la ventana [from, to]. Sin legs: alcanza para el
// matching de selección y para mostrarle el candidato al usuario.
func (s *SQLiteStore) FindNearby(ctx context.Context, ownerID, sportsbook string, stake, odds float64, from, to time.Time) ([]domain.Bet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, account_id, sportsbook, placed_at, description,
		       selection, stake, decimal_odds, status, raw_slip_hash, dedupe_fingerprint
		FROM bets
		WHERE owner_id = ? AND sportsbook = ? AND stake = ? AND decimal_odds = ?
		  AND placed_at BETWEEN ? AND ?
		ORDER BY placed_at`,
		ownerID, sportsbook, stake, odds, fmtTime(from), fmtTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.FindNearby: %w", err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		var b domain.Bet
		var placedAt, status string
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.AccountID, &b.Sportsbook,
			&placedAt, &b.Description, &b.Selection, &b.Stake, &b.DecimalOdds,
			&status, &b.RawSlipHash, &b.DedupeFingerprint); err != nil {
			return nil, fmt.Errorf("storage.FindNearby: scan: %w", err)
		}
		if b.PlacedAt, err = parseTime(placedAt); err != nil {
			return nil, fmt.Errorf("storage.FindNearby: %w", err)
		}
		b.Status = domain.Status(status)
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// PendingLegs devuelve las legs pendientes de apuestas pendientes que pasan
// el filtro. Campos vacíos del filtro no acotan.
func (s *SQLiteStore) PendingLegs(ctx context.Context, filter domain.ReconcileFilter) ([]domain.Leg, error) {
	query := `
		SELECT l.id, l.bet_id, l.leg_index, l.event_id, l.sport_key,
		       l.market, l.side, l.line, l.decimal_odds, l.selection, l.status
		FROM legs l
		JOIN bets b ON b.id = l.bet_id
		WHERE l.status = 'PENDING' AND b.status = 'PENDING'`
	var args []any
	if filter.OwnerID != "" {
		query += ` AND b.owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.SportKey != "" {
		query += ` AND l.sport_key = ?`
		args = append(args, filter.SportKey)
	}
	if filter.EventID != "" {
		query += ` AND l.event_id = ?`
		args = append(args, filter.EventID)
	}
	query += ` ORDER BY l.bet_id, l.leg_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.PendingLegs: %w", err)
	}
	defer rows.Close()
	return scanLegs(rows)
}

// UpdateBetStatus fija estado y payout por primary key, junto con el audit
// Override en la misma transacción: un cambio de estado sin registro no
// puede quedar comiteado. Solo lo usa el path de override; el settlement
// normal pasa por Apply.
func (s *SQLiteStore) UpdateBetStatus(ctx context.Context, betID string, status domain.Status, payout float64, audit domain.AuditLogEntry) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE bets SET status = ?, payout = ? WHERE id = ?`,
			string(status), payout, betID,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%s: not found", betID)
		}
		return appendAuditTx(ctx, tx, audit)
	})
	if err != nil {
		return fmt.Errorf("storage.UpdateBetStatus: %w", err)
	}
	return nil
}

// queryer abstrae *sql.DB y *sql.Tx para las lecturas compartidas.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// legsOfBet lee las legs de una apuesta, ordenadas por índice.
func (s *SQLiteStore) legsOfBet(ctx context.Context, q queryer, betID string) ([]domain.Leg, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, bet_id, leg_index, event_id, sport_key, market, side, line, decimal_odds, selection, status
		FROM legs WHERE bet_id = ? ORDER BY leg_index`, betID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLegs(rows)
}

// scanLegs materializa filas de legs.
func scanLegs(rows *sql.Rows) ([]domain.Leg, error) {
	var legs []domain.Leg
	for rows.Next() {
		var l domain.Leg
		var market, side, status string
		if err := rows.Scan(&l.ID, &l.BetID, &l.Index, &l.EventID, &l.SportKey,
			&market, &side, &l.Line, &l.DecimalOdds, &l.Selection, &status); err != nil {
			return nil, fmt.Errorf("scan leg: %w", err)
		}
		l.Market = domain.MarketType(market)
		l.Side = domain.Side(side)
		l.Status = domain.Status(status)
		legs = append(legs, l)
	}
	return legs, rows.Err()
}

// nullable mapea string vacío a NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
