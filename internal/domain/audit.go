package domain

import "time"

// AuditAction es el tipo de acción registrada en el audit log.
type AuditAction string

const (
	AuditCreate   AuditAction = "CREATE"
	AuditSettle   AuditAction = "SETTLE"
	AuditOverride AuditAction = "OVERRIDE"
)

// AuditLogEntry registra toda acción que cambia estado: create, settle,
// override. Append-only: no existe API de update ni delete para esta
// entidad, y el borrado de una apuesta jamás cascadea sobre su historial.
type AuditLogEntry struct {
	ID           string
	Action       AuditAction
	SubjectBetID string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// CreateMetadata arma la metadata estándar de una acción Create.
func CreateMetadata(evidenceID, parserVersion string) map[string]any {
	m := map[string]any{}
	if evidenceID != "" {
		m["evidence_id"] = evidenceID
	}
	if parserVersion != "" {
		m["parser_version"] = parserVersion
	}
	return m
}

// SettleMetadata arma la metadata estándar de una acción Settle.
func SettleMetadata(result GameResult, settledAt time.Time, sourceID string) map[string]any {
	return map[string]any{
		"result":     result,
		"settled_at": settledAt.UTC().Format(time.RFC3339),
		"source_id":  sourceID,
	}
}

// OverrideMetadata arma la metadata estándar de una acción Override.
func OverrideMetadata(reason string, oldValue, newValue Status, actorID string) map[string]any {
	return map[string]any{
		"reason":    reason,
		"old_value": string(oldValue),
		"new_value": string(newValue),
		"actor_id":  actorID,
	}
}
