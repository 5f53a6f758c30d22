package domain

import "time"

// Status es el estado de una apuesta o de una leg individual.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusWon     Status = "WON"
	StatusLost    Status = "LOST"
	StatusPushed  Status = "PUSHED"
)

// Terminal devuelve true si el estado ya no puede cambiar por settlement
// automático. Solo un override explícito (auditado) puede revertirlo.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusPushed
}

// MarketType es el tipo de mercado de una leg.
type MarketType string

const (
	MarketMoneyline MarketType = "MONEYLINE"
	MarketSpread    MarketType = "SPREAD"
	MarketTotal     MarketType = "TOTAL"
)

// Side es el lado apostado dentro del mercado.
type Side string

const (
	SideHome  Side = "HOME"
	SideAway  Side = "AWAY"
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// Bet es una apuesta registrada en el ledger: una leg para apuestas simples,
// varias para parlays. Las legs pertenecen a la apuesta; la evidencia no.
type Bet struct {
	ID          string
	OwnerID     string
	AccountID   string
	EvidenceID  string // referencia débil a EvidenceItem, puede estar vacía
	Sportsbook  string
	PlacedAt    time.Time
	Description string
	Selection   string
	Stake       float64
	DecimalOdds float64
	Payout      *float64 // nil hasta que se liquida
	Status      Status

	RawSlipHash       string
	DedupeFingerprint string

	Legs      []Leg
	CreatedAt time.Time
}

// Leg es una selección individual dentro de una apuesta.
type Leg struct {
	ID          string
	BetID       string
	Index       int
	EventID     string
	SportKey    string
	Market      MarketType
	Side        Side     // vacío si el parser no lo identificó
	Line        *float64 // nil para moneyline o si falta
	DecimalOdds float64  // cuota individual; el producto da la cuota combinada
	Selection   string
	Status      Status
}

// ResolveBetStatus deriva el estado de la apuesta a partir de sus legs.
// Devuelve (StatusPending, false) mientras quede alguna leg sin liquidar.
// Regla: cualquier leg perdida pierde el parlay; todas pushed → pushed;
// el resto gana.
func ResolveBetStatus(legs []Leg) (Status, bool) {
	if len(legs) == 0 {
		return StatusPending, false
	}
	allPushed := true
	for _, l := range legs {
		if !l.Status.Terminal() {
			return StatusPending, false
		}
		if l.Status == StatusLost {
			return StatusLost, true
		}
		if l.Status != StatusPushed {
			allPushed = false
		}
	}
	if allPushed {
		return StatusPushed, true
	}
	return StatusWon, true
}

// PayoutFor calcula el pago según el estado final de la apuesta.
// WON paga stake × cuota efectiva, PUSHED devuelve el stake, LOST paga 0.
func (b Bet) PayoutFor(status Status) float64 {
	switch status {
	case StatusWon:
		return b.Stake * b.effectiveOdds()
	case StatusPushed:
		return b.Stake
	default:
		return 0
	}
}

// effectiveOdds es la cuota que paga una apuesta ganada: el producto de las
// cuotas por leg, con cada leg pushed bajada a 1.0. Sin cuotas por leg se
// usa la cuota combinada registrada.
func (b Bet) effectiveOdds() float64 {
	if len(b.Legs) == 0 {
		return b.DecimalOdds
	}
	odds := 1.0
	for _, l := range b.Legs {
		if l.DecimalOdds <= 1 {
			return b.DecimalOdds
		}
		if l.Status == StatusPushed {
			continue
		}
		odds *= l.DecimalOdds
	}
	return odds
}
