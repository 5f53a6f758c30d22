package domain

import "time"

// GameResult es el resultado final de un evento, provisto ya fetcheado por
// el proveedor de scores. El core solo liquida cuando IsFinal es true.
type GameResult struct {
	EventID   string `json:"event_id"`
	SportKey  string `json:"sport_key"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	IsFinal   bool   `json:"is_final"`
}

// SettlementEvent es el registro de idempotencia de una decisión de grading.
// La existencia de la fila ES la prueba de que esta liquidación exacta ya se
// aplicó: fingerprint único global, append-only, nunca se actualiza.
type SettlementEvent struct {
	ID          string
	Fingerprint string
	EventID     string
	Result      GameResult // snapshot de los scores usados para liquidar
	Computed    float64    // margen o total derivado en el grading
	CreatedAt   time.Time
}

// SettlementApplied es el resultado de aplicar una liquidación sobre una leg.
type SettlementApplied struct {
	// Inserted indica si el SettlementEvent era nuevo. false = idempotency
	// hit: la mutación ya se aplicó antes y esta pasada no tocó nada.
	Inserted bool
	// BetSettled indica si esta leg era la última pendiente y la apuesta
	// completa quedó liquidada.
	BetSettled bool
	BetStatus  Status
	Payout     float64
}

// ReconcileFilter acota qué legs pendientes procesa un ciclo.
// Campos vacíos no filtran.
type ReconcileFilter struct {
	OwnerID  string
	SportKey string
	EventID  string
}

// LegFailure es el error aislado de una leg dentro de un batch.
type LegFailure struct {
	LegID string
	BetID string
	Err   string
}

// ReconcileReport resume un ciclo de reconciliación. Solo contadores,
// apto para mostrarse directamente; nunca expone fingerprints.
type ReconcileReport struct {
	ProcessedLegs    int
	InsertedEvents   int
	SkippedIdempotent int
	MissingResults   int
	UnsettledLegs    int
	Failed           []LegFailure
}

// Merge acumula los contadores de otro reporte parcial (workers paralelos).
func (r *ReconcileReport) Merge(other ReconcileReport) {
	r.ProcessedLegs += other.ProcessedLegs
	r.InsertedEvents += other.InsertedEvents
	r.SkippedIdempotent += other.SkippedIdempotent
	r.MissingResults += other.MissingResults
	r.UnsettledLegs += other.UnsettledLegs
	r.Failed = append(r.Failed, other.Failed...)
}
