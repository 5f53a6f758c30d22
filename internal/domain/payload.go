package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConfidenceThreshold es el umbral por debajo del cual el caller debe pedir
// confirmación explícita del usuario antes de llamar a CreateBet. El core no
// bloquea por confianza, solo define el umbral que el caller debe honrar.
const ConfidenceThreshold = 0.9

var validate = validator.New()

// FieldSet es el conjunto explícito de campos que el parser sí extrajo.
// Evita presence-checks ad hoc sobre zero values.
type FieldSet map[string]struct{}

// NewFieldSet construye un FieldSet a partir de nombres de campo.
func NewFieldSet(fields ...string) FieldSet {
	fs := make(FieldSet, len(fields))
	for _, f := range fields {
		fs[f] = struct{}{}
	}
	return fs
}

// Has devuelve true si el parser extrajo el campo.
func (fs FieldSet) Has(field string) bool {
	_, ok := fs[field]
	return ok
}

// StructuredBetPayload es lo que entrega el parser externo (LLM o export).
// Campos tipados más un FieldSet explícito de presencia; Missing enumera lo
// que el parser no pudo extraer.
type StructuredBetPayload struct {
	Sportsbook    string     `validate:"required"`
	PlacedAt      time.Time  `validate:"required"`
	Stake         float64    `validate:"gt=0"`
	AmericanPrice int        // informativo; el grading y el payout usan decimal
	DecimalOdds   float64    `validate:"gt=1"`
	Market        MarketType `validate:"required"`
	Selection     string     `validate:"required"`
	EventName     string
	EventID       string `validate:"required"`
	SportKey      string
	Confidence    float64 `validate:"gte=0,lte=1"`
	Missing       []string
	Present       FieldSet
	Legs          []LegInput `validate:"omitempty,dive"` // vacío = apuesta simple derivada de los campos de arriba
}

// NeedsConfirmation devuelve true si el caller debe pedir confirmación
// humana antes de persistir: confianza baja o campos faltantes.
func (p StructuredBetPayload) NeedsConfirmation() bool {
	return p.Confidence < ConfidenceThreshold || len(p.Missing) > 0
}

// BetInput es el input validado del write path del ledger.
type BetInput struct {
	OwnerID     string `validate:"required"`
	AccountID   string `validate:"required"`
	EvidenceID  string
	Sportsbook  string    `validate:"required"`
	PlacedAt    time.Time `validate:"required"`
	Description string
	Selection   string  `validate:"required"`
	Stake       float64 `validate:"gt=0"`
	DecimalOdds float64 `validate:"gt=1"`
	// RawText es el texto que originó la apuesta. Vacío para entradas
	// estructurales puras: el hash se calcula sobre los campos canónicos.
	RawText string
	Legs    []LegInput `validate:"min=1,dive"`
}

// LegInput es una selección dentro del input.
type LegInput struct {
	EventID     string     `validate:"required"`
	SportKey    string
	Market      MarketType `validate:"required"`
	Side        Side
	Line        *float64
	DecimalOdds float64 `validate:"gt=1"`
	Selection   string  `validate:"required"`
}

// ValidateBetInput valida el input estructural. Cualquier violación se
// reporta como ErrInvalidEntry con el detalle del validador.
func ValidateBetInput(in BetInput) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}

// ValidatePayload valida el payload del parser antes de convertirlo en un
// BetInput. Un payload inválido es ErrInvalidEntry; baja confianza o campos
// faltantes NO son inválidos, esos pasan por NeedsConfirmation.
func ValidatePayload(p StructuredBetPayload) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}

// ToBetInput convierte el payload del parser en un BetInput para el owner y
// cuenta dados. Si el payload no trae legs explícitas, sintetiza la única
// leg de una apuesta simple.
func (p StructuredBetPayload) ToBetInput(ownerID, accountID, evidenceID, rawText string) BetInput {
	legs := p.Legs
	if len(legs) == 0 {
		legs = []LegInput{{
			EventID:     p.EventID,
			SportKey:    p.SportKey,
			Market:      p.Market,
			DecimalOdds: p.DecimalOdds,
			Selection:   p.Selection,
		}}
	}
	return BetInput{
		OwnerID:     ownerID,
		AccountID:   accountID,
		EvidenceID:  evidenceID,
		Sportsbook:  p.Sportsbook,
		PlacedAt:    p.PlacedAt,
		Description: p.EventName,
		Selection:   p.Selection,
		Stake:       p.Stake,
		DecimalOdds: p.DecimalOdds,
		RawText:     rawText,
		Legs:        legs,
	}
}
