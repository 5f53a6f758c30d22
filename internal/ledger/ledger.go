package ledger

// ledger.go — write path del ledger: evidencia, dedupe y alta de apuestas.
//
// La corrección bajo retries y callers concurrentes sale de las constraints
// de unicidad del store, no de locks: acá solo se decide qué insertar y
// cómo clasificar los conflictos.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
	"github.com/bockeljd/basement-bets-sub000/internal/fingerprint"
	"github.com/bockeljd/basement-bets-sub000/internal/ports"
	"github.com/google/uuid"
)

// Store agrupa lo que el write path necesita de la persistencia.
type Store interface {
	ports.EvidenceStore
	ports.BetStore
	ports.AuditStore
}

// Service implementa las operaciones del write path.
type Service struct {
	store Store
	// ParserVersion se registra en la metadata del audit Create.
	parserVersion string
}

// New crea el servicio del ledger.
func New(store Store, parserVersion string) *Service {
	return &Service{store: store, parserVersion: parserVersion}
}

// SubmitEvidence normaliza y almacena texto crudo de un slip. El mismo
// texto normalizado para el mismo owner falla con DuplicateEvidenceError
// (lleva el id existente para diagnóstico); el caller no debe reintentar.
func (s *Service) SubmitEvidence(ctx context.Context, ownerID, rawText, source string) (domain.EvidenceItem, error) {
	if ownerID == "" || fingerprint.Normalize(rawText) == "" {
		return domain.EvidenceItem{}, fmt.Errorf("ledger.SubmitEvidence: %w: empty owner or text", domain.ErrInvalidEntry)
	}

	item := domain.EvidenceItem{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		RawContent:  rawText,
		ContentHash: fingerprint.ContentHash(rawText),
		Source:      source,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.InsertEvidence(ctx, item); err != nil {
		return domain.EvidenceItem{}, fmt.Errorf("ledger.SubmitEvidence: %w", err)
	}

	slog.Debug("evidence stored", "owner", ownerID, "id", item.ID, "source", source)
	return item, nil
}

// PlaceResult es la respuesta del write path en dos fases.
type PlaceResult struct {
	// Bet es la apuesta persistida, o nil si PossibleDuplicate pide
	// confirmación antes de escribir.
	Bet *domain.Bet
	// PossibleDuplicate no es un error: el caller debe presentar los
	// matches al usuario y obtener un "save anyway" explícito antes de
	// llamar a Create. Única pausa human-in-the-loop del core; intencional.
	PossibleDuplicate bool
	NearMatches       []domain.Bet
}

// Place valida el input y corre la detección de near-duplicados ANTES de
// intentar el insert. Con match: no persiste nada y devuelve el flag. Sin
// match: persiste vía Create.
func (s *Service) Place(ctx context.Context, in domain.BetInput) (PlaceResult, error) {
	if err := domain.ValidateBetInput(in); err != nil {
		return PlaceResult{}, fmt.Errorf("ledger.Place: %w", err)
	}

	matches, err := s.FindNearDuplicates(ctx, in)
	if err != nil {
		return PlaceResult{}, fmt.Errorf("ledger.Place: %w", err)
	}
	if len(matches) > 0 {
		slog.Info("possible duplicate flagged",
			"owner", in.OwnerID,
			"matches", len(matches),
		)
		return PlaceResult{PossibleDuplicate: true, NearMatches: matches}, nil
	}

	bet, err := s.Create(ctx, in)
	if err != nil {
		return PlaceResult{}, err
	}
	return PlaceResult{Bet: &bet}, nil
}

// Create es el path de confirmación: persiste sin re-aplicar el chequeo de
// near-duplicados — solo rigen el hash exacto y la unicidad estructural.
// El audit Create viaja en la misma transacción que el insert: si el audit
// no puede escribirse, la apuesta tampoco queda.
func (s *Service) Create(ctx context.Context, in domain.BetInput) (domain.Bet, error) {
	if err := domain.ValidateBetInput(in); err != nil {
		return domain.Bet{}, fmt.Errorf("ledger.Create: %w", err)
	}

	bet := s.buildBet(in)
	entry := domain.AuditLogEntry{
		ID:           uuid.NewString(),
		Action:       domain.AuditCreate,
		SubjectBetID: bet.ID,
		Metadata:     domain.CreateMetadata(bet.EvidenceID, s.parserVersion),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.InsertBet(ctx, bet, entry); err != nil {
		return domain.Bet{}, fmt.Errorf("ledger.Create: %w", err)
	}

	slog.Info("bet created",
		"owner", bet.OwnerID,
		"bet", bet.ID,
		"stake", bet.Stake,
		"legs", len(bet.Legs),
	)
	return bet, nil
}

// FindNearDuplicates busca apuestas existentes que matchean el fingerprint
// grueso del candidato: mismo sportsbook, stake y cuota, placed_at dentro
// de ±5 minutos, selección normalizada igual. Devuelve TODOS los matches;
// nunca elige uno solo ni auto-mergea. Los duplicados byte-idénticos se
// excluyen: esos los rechaza en seco la constraint del hash exacto.
func (s *Service) FindNearDuplicates(ctx context.Context, in domain.BetInput) ([]domain.Bet, error) {
	from := in.PlacedAt.Add(-fingerprint.NearDupeWindow)
	to := in.PlacedAt.Add(fingerprint.NearDupeWindow)

	nearby, err := s.store.FindNearby(ctx, in.OwnerID, in.Sportsbook, in.Stake, in.DecimalOdds, from, to)
	if err != nil {
		return nil, fmt.Errorf("find near duplicates: %w", err)
	}

	want := fingerprint.NormalizeSelection(in.Selection)
	exactHash := slipHashFor(in)
	var matches []domain.Bet
	for _, b := range nearby {
		if b.RawSlipHash == exactHash {
			continue
		}
		if fingerprint.NormalizeSelection(b.Selection) == want {
			matches = append(matches, b)
		}
	}
	return matches, nil
}

// Override es el único path que puede cambiar un estado terminal. Siempre
// audita con razón, valores viejo y nuevo, y actor.
func (s *Service) Override(ctx context.Context, betID string, newStatus domain.Status, reason, actorID string) (domain.Bet, error) {
	if reason == "" || actorID == "" {
		return domain.Bet{}, fmt.Errorf("ledger.Override: %w: reason and actor are required", domain.ErrInvalidEntry)
	}

	bet, err := s.store.GetBet(ctx, betID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("ledger.Override: %w", err)
	}
	oldStatus := bet.Status

	payout := bet.PayoutFor(newStatus)
	entry := domain.AuditLogEntry{
		ID:           uuid.NewString(),
		Action:       domain.AuditOverride,
		SubjectBetID: betID,
		Metadata:     domain.OverrideMetadata(reason, oldStatus, newStatus, actorID),
		CreatedAt:    time.Now().UTC(),
	}
	// Mutación y audit comitean juntos: un override sin registro no existe.
	if err := s.store.UpdateBetStatus(ctx, betID, newStatus, payout, entry); err != nil {
		return domain.Bet{}, fmt.Errorf("ledger.Override: %w", err)
	}

	slog.Warn("bet status overridden",
		"bet", betID,
		"old", oldStatus,
		"new", newStatus,
		"actor", actorID,
	)
	bet.Status = newStatus
	bet.Payout = &payout
	return bet, nil
}

// AuditTrail expone el historial de una apuesta para UIs de diagnóstico.
func (s *Service) AuditTrail(ctx context.Context, betID string) ([]domain.AuditLogEntry, error) {
	return s.store.AuditTrail(ctx, betID)
}

// Evidence recupera el texto crudo original de un slip, para revisar un
// rechazo por duplicado o re-parsear una entrada vieja.
func (s *Service) Evidence(ctx context.Context, ownerID, id string) (domain.EvidenceItem, error) {
	item, err := s.store.GetEvidence(ctx, ownerID, id)
	if err != nil {
		return domain.EvidenceItem{}, fmt.Errorf("ledger.Evidence: %w", err)
	}
	return item, nil
}

// slipHashFor calcula el hash exacto del input: sobre el texto de origen,
// o sobre los campos canónicos para entradas estructurales sin texto.
func slipHashFor(in domain.BetInput) string {
	if in.RawText != "" {
		return fingerprint.SlipHash(in.RawText)
	}
	return fingerprint.SlipHashFields(in.AccountID, in.Description, in.Selection, in.PlacedAt, in.Stake, in.DecimalOdds)
}

// buildBet materializa el input en una apuesta lista para insertar.
func (s *Service) buildBet(in domain.BetInput) domain.Bet {
	now := time.Now().UTC()
	slipHash := slipHashFor(in)

	bet := domain.Bet{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		AccountID:   in.AccountID,
		EvidenceID:  in.EvidenceID,
		Sportsbook:  in.Sportsbook,
		PlacedAt:    in.PlacedAt.UTC(),
		Description: in.Description,
		Selection:   in.Selection,
		Stake:       in.Stake,
		DecimalOdds: in.DecimalOdds,
		Status:      domain.StatusPending,
		RawSlipHash: slipHash,
		DedupeFingerprint: fingerprint.NearDupe(
			in.Sportsbook, in.PlacedAt, in.Stake, in.DecimalOdds, in.Selection,
		),
		CreatedAt: now,
	}

	for i, leg := range in.Legs {
		bet.Legs = append(bet.Legs, domain.Leg{
			ID:          uuid.NewString(),
			BetID:       bet.ID,
			Index:       i,
			EventID:     leg.EventID,
			SportKey:    leg.SportKey,
			Market:      leg.Market,
			Side:        leg.Side,
			Line:        leg.Line,
			DecimalOdds: leg.DecimalOdds,
			Selection:   leg.Selection,
			Status:      domain.StatusPending,
		})
	}
	return bet
}
