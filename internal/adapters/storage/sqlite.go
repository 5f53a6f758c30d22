package storage

// sqlite.go — persistencia del ledger sobre SQLite (pure Go, sin CGo).
//
// Estrategia:
//   - Cuatro tablas durables: evidence, bets(+legs), settlement_events,
//     audit_log. Las constraints de unicidad viven en el schema: la
//     corrección bajo retries y escritores concurrentes sale de ahí, no de
//     locks del lado del cliente.
//   - Toda mutación es un write condicional de una sola fila (insert-if-
//     absent, o update por primary key). Nada de transacciones multi-fila
//     entre apuestas no relacionadas.
//   - Los timestamps se guardan como texto UTC de ancho fijo: comparables
//     lexicográficamente en los BETWEEN de las queries.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
-- Texto crudo de slips, inmutable, único por (owner, hash del contenido)
CREATE TABLE IF NOT EXISTS evidence (
    id           TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    raw_content  TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL,
    UNIQUE (owner_id, content_hash)
);

-- Ledger canónico de apuestas
CREATE TABLE IF NOT EXISTS bets (
    id                 TEXT PRIMARY KEY,
    owner_id           TEXT NOT NULL,
    account_id         TEXT NOT NULL,
    evidence_id        TEXT,                -- referencia débil, sin FK: la evidencia vive aparte
    sportsbook         TEXT NOT NULL DEFAULT '',
    placed_at          TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    selection          TEXT NOT NULL,
    stake              REAL NOT NULL CHECK (stake > 0),
    decimal_odds       REAL NOT NULL,
    payout             REAL,
    status             TEXT NOT NULL DEFAULT 'PENDING',
    raw_slip_hash      TEXT NOT NULL,
    dedupe_fingerprint TEXT NOT NULL,
    created_at         TEXT NOT NULL,
    UNIQUE (owner_id, raw_slip_hash),
    UNIQUE (owner_id, account_id, description, placed_at, stake, selection)
);

-- Legs: pertenecen a su apuesta, no la sobreviven
CREATE TABLE IF NOT EXISTS legs (
    id           TEXT PRIMARY KEY,
    bet_id       TEXT NOT NULL REFERENCES bets(id) ON DELETE CASCADE,
    leg_index    INTEGER NOT NULL,
    event_id     TEXT NOT NULL,
    sport_key    TEXT NOT NULL DEFAULT '',
    market       TEXT NOT NULL,
    side         TEXT NOT NULL DEFAULT '',
    line         REAL,
    decimal_odds REAL NOT NULL DEFAULT 0,
    selection    TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'PENDING',
    UNIQUE (bet_id, leg_index)
);

-- Registro de idempotencia: la existencia de la fila es la prueba de que
-- esa decisión de grading ya se aplicó. Append-only.
CREATE TABLE IF NOT EXISTS settlement_events (
    id          TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL UNIQUE,
    event_id    TEXT NOT NULL,
    result      TEXT NOT NULL,   -- snapshot JSON de los scores usados
    computed    REAL NOT NULL,
    created_at  TEXT NOT NULL
);

-- Audit log: append-only, referencia a la apuesta solo por id
CREATE TABLE IF NOT EXISTS audit_log (
    id             TEXT PRIMARY KEY,
    action         TEXT NOT NULL,
    subject_bet_id TEXT NOT NULL,
    metadata       TEXT NOT NULL,
    created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bets_owner_placed  ON bets(owner_id, sportsbook, placed_at);
CREATE INDEX IF NOT EXISTS idx_legs_bet           ON legs(bet_id);
CREATE INDEX IF NOT EXISTS idx_legs_status        ON legs(status);
CREATE INDEX IF NOT EXISTS idx_audit_subject      ON audit_log(subject_bet_id, created_at);
`

// timeLayout es UTC de ancho fijo: el orden lexicográfico coincide con el
// cronológico, así los BETWEEN sobre placed_at funcionan sin parsear.
const timeLayout = "2006-01-02T15:04:05.000Z"

// SQLiteStore implementa los ports de persistencia del ledger sobre SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base en la ruta dada y aplica el schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// isUniqueViolation detecta violaciones de constraint UNIQUE del driver.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// fmtTime serializa un timestamp al layout de la base.
func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime deserializa un timestamp del layout de la base. Una fila con un
// timestamp ilegible es corrupción de datos, no un zero value silencioso.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// inTx ejecuta fn dentro de una transacción, con rollback en error.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
