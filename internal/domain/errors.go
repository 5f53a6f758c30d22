package domain

import (
	"errors"
	"fmt"
)

// Taxonomía de fallos del core. Los callers clasifican con errors.Is /
// errors.As; ninguno de estos se reintenta tal cual.
var (
	// ErrDuplicateEvidence: texto crudo idéntico ya almacenado para este
	// owner. El caller muestra el registro existente, no reintenta.
	ErrDuplicateEvidence = errors.New("duplicate evidence")

	// ErrDuplicateSlip: el texto (o la entrada estructural equivalente) ya
	// está en el ledger. Terminal: reenviar el mismo payload siempre falla.
	ErrDuplicateSlip = errors.New("duplicate slip")

	// ErrInvalidEntry: validación estructural fallida (stake <= 0, cuota
	// inválida, legs vacías). El caller corrige el input.
	ErrInvalidEntry = errors.New("invalid ledger entry")
)

// DuplicateEvidenceError lleva el id del registro existente para diagnóstico.
type DuplicateEvidenceError struct {
	ExistingID string
}

func (e *DuplicateEvidenceError) Error() string {
	return fmt.Sprintf("duplicate evidence: already stored as %s", e.ExistingID)
}

func (e *DuplicateEvidenceError) Unwrap() error { return ErrDuplicateEvidence }

// Razones por las que una leg queda sin liquidar. No son fallos del engine:
// la leg sigue pendiente y se reintenta en un ciclo posterior.
const (
	ReasonMissingSide       = "missing_side"
	ReasonMissingLine       = "missing_line"
	ReasonUnsupportedMarket = "unsupported_market"
)

// UnsettledError indica que el grading no pudo producir un resultado.
type UnsettledError struct {
	Reason string
}

func (e *UnsettledError) Error() string {
	return "unsettled: " + e.Reason
}
