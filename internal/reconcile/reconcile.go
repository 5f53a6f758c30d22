package reconcile

// reconcile.go — ciclo batch de settlement sobre legs pendientes.
//
// Cada leg se procesa y comitea de forma independiente: una fila rota jamás
// aborta el batch, y una cancelación a mitad de camino solo trunca el ciclo
// (lo ya comiteado queda liquidado, el próximo ciclo retoma lo demás). El
// ciclo es seguro de invocar sin límite de frecuencia: para legs ya
// liquidadas cada pasada es un no-op por construcción del fingerprint.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
	"github.com/bockeljd/basement-bets-sub000/internal/fingerprint"
	"github.com/bockeljd/basement-bets-sub000/internal/grading"
	"github.com/bockeljd/basement-bets-sub000/internal/ports"
	"github.com/google/uuid"
)

// Config controla el comportamiento del ciclo.
type Config struct {
	GradingVersion int
	// Workers procesan legs en paralelo. Seguro sin coordinación: cada
	// write es idempotente por fingerprint. <= 1 procesa secuencial.
	Workers  int
	Interval time.Duration
	Filter   domain.ReconcileFilter
}

// DefaultConfig devuelve una configuración sensata.
func DefaultConfig() Config {
	return Config{
		GradingVersion: grading.Version,
		Workers:        1,
		Interval:       5 * time.Minute,
	}
}

// Cycle orquesta pasadas de reconciliación.
type Cycle struct {
	cfg         Config
	bets        ports.BetStore
	settlements ports.SettlementStore
	results     ports.ResultProvider
	notifier    ports.Notifier
}

// New crea un Cycle con todas las dependencias inyectadas.
func New(cfg Config, bets ports.BetStore, settlements ports.SettlementStore, results ports.ResultProvider, notifier ports.Notifier) *Cycle {
	if cfg.GradingVersion == 0 {
		cfg.GradingVersion = grading.Version
	}
	return &Cycle{cfg: cfg, bets: bets, settlements: settlements, results: results, notifier: notifier}
}

// Run ejecuta pasadas periódicas hasta que el contexto se cancele.
func (c *Cycle) Run(ctx context.Context) error {
	slog.Info("reconciler starting",
		"interval", c.cfg.Interval,
		"workers", c.cfg.Workers,
		"grading_version", c.cfg.GradingVersion,
	)

	if err := c.runPass(ctx); err != nil {
		slog.Error("reconcile pass failed", "err", err)
	}

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return nil
		case <-ticker.C:
			if err := c.runPass(ctx); err != nil {
				slog.Error("reconcile pass failed", "err", err)
			}
		}
	}
}

// runPass corre una pasada completa y la notifica.
func (c *Cycle) runPass(ctx context.Context) error {
	start := time.Now()

	report, err := c.RunOnce(ctx, c.cfg.Filter)
	if err != nil {
		return err
	}

	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("reconcile pass complete",
		"processed", report.ProcessedLegs,
		"inserted", report.InsertedEvents,
		"skipped_idempotent", report.SkippedIdempotent,
		"missing_results", report.MissingResults,
		"unsettled", report.UnsettledLegs,
		"failed", len(report.Failed),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// RunOnce ejecuta exactamente una pasada sobre las legs que pasan el filtro.
func (c *Cycle) RunOnce(ctx context.Context, filter domain.ReconcileFilter) (domain.ReconcileReport, error) {
	legs, err := c.bets.PendingLegs(ctx, filter)
	if err != nil {
		return domain.ReconcileReport{}, fmt.Errorf("reconcile.RunOnce: fetch pending legs: %w", err)
	}
	if len(legs) == 0 {
		return domain.ReconcileReport{}, nil
	}

	results, err := c.results.FetchResults(ctx, eventIDs(legs))
	if err != nil {
		return domain.ReconcileReport{}, fmt.Errorf("reconcile.RunOnce: fetch results: %w", err)
	}

	if c.cfg.Workers > 1 {
		return c.settleConcurrent(ctx, legs, results), nil
	}

	var report domain.ReconcileReport
	for _, leg := range legs {
		select {
		case <-ctx.Done():
			// Cancelación: lo comiteado queda, el resto lo toma otra pasada.
			return report, nil
		default:
		}
		report.Merge(c.settleLeg(ctx, leg, results))
	}
	return report, nil
}

// settleLeg procesa una sola leg y devuelve el delta del reporte. Todo
// fallo queda aislado acá: se registra en Failed y el batch continúa.
func (c *Cycle) settleLeg(ctx context.Context, leg domain.Leg, results map[string]domain.GameResult) domain.ReconcileReport {
	report := domain.ReconcileReport{ProcessedLegs: 1}

	result, ok := results[leg.EventID]
	if !ok || !result.IsFinal {
		// Esperado, no error: el evento todavía no terminó.
		report.MissingResults = 1
		return report
	}

	outcome, err := grading.Grade(leg, result, c.cfg.GradingVersion)
	if err != nil {
		var unsettled *domain.UnsettledError
		if errors.As(err, &unsettled) {
			slog.Debug("leg unsettled",
				"leg", leg.ID,
				"event", leg.EventID,
				"reason", unsettled.Reason,
			)
			report.UnsettledLegs = 1
			return report
		}
		report.Failed = []domain.LegFailure{{LegID: leg.ID, BetID: leg.BetID, Err: err.Error()}}
		return report
	}

	event := domain.SettlementEvent{
		ID: uuid.NewString(),
		Fingerprint: fingerprint.Settlement(
			leg.EventID, result.HomeScore, result.AwayScore,
			leg.Market, leg.Side, leg.Line, c.cfg.GradingVersion,
		),
		EventID:   leg.EventID,
		Result:    result,
		Computed:  outcome.Computed,
		CreatedAt: time.Now().UTC(),
	}

	applied, err := c.settlements.Apply(ctx, event, leg, outcome.Result)
	if err != nil {
		slog.Warn("settlement failed", "leg", leg.ID, "err", err)
		report.Failed = []domain.LegFailure{{LegID: leg.ID, BetID: leg.BetID, Err: err.Error()}}
		return report
	}

	if !applied.Inserted {
		report.SkippedIdempotent = 1
		return report
	}

	report.InsertedEvents = 1
	if applied.BetSettled {
		slog.Info("bet settled",
			"bet", leg.BetID,
			"status", applied.BetStatus,
			"payout", applied.Payout,
		)
	}
	return report
}

// eventIDs devuelve los event ids únicos de las legs.
func eventIDs(legs []domain.Leg) []string {
	seen := make(map[string]struct{}, len(legs))
	ids := make([]string, 0, len(legs))
	for _, l := range legs {
		if _, ok := seen[l.EventID]; ok {
			continue
		}
		seen[l.EventID] = struct{}{}
		ids = append(ids, l.EventID)
	}
	return ids
}
