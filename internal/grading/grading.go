package grading

// grading.go — cálculo puro de win/loss/push por leg.
//
// Dado el mismo (evento, score final, mercado, lado, línea, versión) el
// resultado es siempre el mismo: sin reloj, sin random, sin estado global.
// Lo que no se puede liquidar con certeza devuelve UnsettledError, nunca
// un resultado adivinado.

import (
	"fmt"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// Version es la versión vigente de la lógica de grading. Se pasa explícita
// en cada llamada (y entra al fingerprint); nunca es un singleton de proceso.
const Version = 1

// Outcome es el resultado de liquidar una leg.
type Outcome struct {
	Result domain.Status
	// Computed es el derivado usado para decidir: margen ajustado para
	// spread, margen crudo para moneyline, total de puntos para totals.
	Computed float64
}

// Grade liquida una leg contra un resultado final. Devuelve UnsettledError
// si falta el lado, la línea, o el mercado no está implementado en esta
// versión. El caller garantiza result.IsFinal; acá solo se defiende.
func Grade(leg domain.Leg, result domain.GameResult, version int) (Outcome, error) {
	if !result.IsFinal {
		return Outcome{}, fmt.Errorf("grading.Grade: result for %s is not final", result.EventID)
	}
	if version != Version {
		return Outcome{}, &domain.UnsettledError{Reason: domain.ReasonUnsupportedMarket}
	}

	switch leg.Market {
	case domain.MarketMoneyline:
		return gradeMoneyline(leg, result)
	case domain.MarketSpread:
		return gradeSpread(leg, result)
	case domain.MarketTotal:
		return gradeTotal(leg, result)
	default:
		return Outcome{}, &domain.UnsettledError{Reason: domain.ReasonUnsupportedMarket}
	}
}

// gradeMoneyline: gana el lado con más puntos. Requiere side explícito,
// nunca se infiere del texto libre. Empate = push.
func gradeMoneyline(leg domain.Leg, result domain.GameResult) (Outcome, error) {
	margin := float64(result.HomeScore - result.AwayScore)

	switch leg.Side {
	case domain.SideHome:
	case domain.SideAway:
		margin = -margin
	default:
		return Outcome{}, &domain.UnsettledError{Reason: domain.ReasonMissingSide}
	}

	return Outcome{Result: statusFromMargin(margin), Computed: margin}, nil
}

// gradeSpread: margen del equipo más la línea. line -4.5 con side HOME y
// 100-95 → 100 - 4.5 - 95 = 0.5 > 0, cubre. Exactamente la línea = push.
func gradeSpread(leg domain.Leg, result domain.GameResult) (Outcome, error) {
	if leg.Line == nil {
		return Outcome{}, &domain.UnsettledError{Reason: domain.ReasonMissingLine}
	}

	var adjusted float64
	switch leg.Side {
	case domain.SideHome:
		adjusted = float64(result.HomeScore) + *leg.Line - float64(result.AwayScore)
	case domain.SideAway:
		adjusted = float64(result.AwayScore) + *leg.Line - float64(result.HomeScore)
	default:
		return Outcome{}, &domain.UnsettledError{Reason: domain.ReasonMissingSide}
	}

	return Outcome{Result: statusFromMargin(adjusted), Computed: adjusted}, nil
}

// gradeTotal: suma de puntos contra la línea. Exactamente la línea = push.
func gradeTotal(leg domain.Leg, result domain.GameResult) (Outcome, error) {
	if leg.Line == nil {
		return Outcome{}, &domain.UnsettledError{Reason: domain.ReasonMissingLine}
	}

	total := float64(result.HomeScore + result.AwayScore)
	var margin float64
	switch leg.Side {
	case domain.SideOver:
		margin = total - *leg.Line
	case domain.SideUnder:
		margin = *leg.Line - total
	default:
		return Outcome{}, &domain.UnsettledError{Reason: domain.ReasonMissingSide}
	}

	return Outcome{Result: statusFromMargin(margin), Computed: total}, nil
}

// statusFromMargin traduce un margen a WON/LOST/PUSHED.
func statusFromMargin(margin float64) domain.Status {
	switch {
	case margin > 0:
		return domain.StatusWon
	case margin < 0:
		return domain.StatusLost
	default:
		return domain.StatusPushed
	}
}
