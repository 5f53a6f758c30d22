package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/adapters/storage"
	"github.com/bockeljd/basement-bets-sub000/internal/domain"
	"github.com/bockeljd/basement-bets-sub000/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*ledger.Service, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return ledger.New(store, "parser-v2"), store
}

func makeInput(rawText string) domain.BetInput {
	return domain.BetInput{
		OwnerID:     "user-1",
		AccountID:   "acct-1",
		Sportsbook:  "draftkings",
		PlacedAt:    time.Date(2025, 11, 2, 19, 2, 0, 0, time.UTC),
		Description: "Lakers vs Celtics",
		Selection:   "Lakers -4.5",
		Stake:       50,
		DecimalOdds: 1.91,
		RawText:     rawText,
		Legs: []domain.LegInput{{
			EventID:     "evt-1",
			SportKey:    "basketball_nba",
			Market:      domain.MarketSpread,
			Side:        domain.SideHome,
			Line:        ptr(-4.5),
			DecimalOdds: 1.91,
			Selection:   "Lakers -4.5",
		}},
	}
}

func ptr(f float64) *float64 { return &f }

func TestSubmitEvidence_SecondSubmissionIsDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	item, err := svc.SubmitEvidence(ctx, "user-1", "DK Slip #123\nLakers -4.5 $50", "manual")
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Len(t, item.ContentHash, 64)

	// Variante cosmética del mismo texto: mismo hash, rechazo con el id original.
	_, err = svc.SubmitEvidence(ctx, "user-1", "  dk slip #123 lakers -4.5 $50 ", "manual")
	var dup *domain.DuplicateEvidenceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, item.ID, dup.ExistingID)
}

func TestEvidence_RoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	item, err := svc.SubmitEvidence(ctx, "user-1", "DK Slip #123", "manual")
	require.NoError(t, err)

	got, err := svc.Evidence(ctx, "user-1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.RawContent, got.RawContent)
	assert.Equal(t, item.ContentHash, got.ContentHash)

	// Otro owner no ve la evidencia ajena.
	_, err = svc.Evidence(ctx, "user-2", item.ID)
	assert.Error(t, err)
}

func TestSubmitEvidence_RejectsEmptyText(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.SubmitEvidence(context.Background(), "user-1", "   \n ", "manual")
	assert.ErrorIs(t, err, domain.ErrInvalidEntry)
}

func TestPlace_FirstBetPersists(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Place(ctx, makeInput("slip text T"))
	require.NoError(t, err)
	assert.False(t, res.PossibleDuplicate)
	require.NotNil(t, res.Bet)
	assert.Equal(t, domain.StatusPending, res.Bet.Status)
	require.Len(t, res.Bet.Legs, 1)

	// El alta queda auditada.
	trail, err := svc.AuditTrail(ctx, res.Bet.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditCreate, trail[0].Action)
	assert.Equal(t, "parser-v2", trail[0].Metadata["parser_version"])
}

func TestPlace_IdenticalTextFailsDuplicateSlip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Place(ctx, makeInput("slip text T"))
	require.NoError(t, err)

	// Byte-idéntico: no es candidato a confirmación, es rechazo en seco.
	res, err := svc.Place(ctx, makeInput("slip text T"))
	assert.ErrorIs(t, err, domain.ErrDuplicateSlip)
	assert.Nil(t, res.Bet)
}

func TestPlace_NearDuplicateRequiresConfirmation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Place(ctx, makeInput("slip text T"))
	require.NoError(t, err)
	require.NotNil(t, first.Bet)

	// Un carácter distinto en el texto libre, mismo sportsbook, stake,
	// cuota y selección dentro de la ventana: flag, sin persistir.
	almost := makeInput("slip text U")
	almost.PlacedAt = almost.PlacedAt.Add(3 * time.Minute)
	res, err := svc.Place(ctx, almost)
	require.NoError(t, err)
	assert.True(t, res.PossibleDuplicate)
	assert.Nil(t, res.Bet)
	require.Len(t, res.NearMatches, 1)
	assert.Equal(t, first.Bet.ID, res.NearMatches[0].ID)

	// "Save anyway": el path de confirmación persiste sin re-chequear.
	bet, err := svc.Create(ctx, almost)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, bet.Status)
}

func TestPlace_OutsideWindowIsNotFlagged(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Place(ctx, makeInput("slip text T"))
	require.NoError(t, err)

	later := makeInput("slip text U")
	later.PlacedAt = later.PlacedAt.Add(20 * time.Minute)
	res, err := svc.Place(ctx, later)
	require.NoError(t, err)
	assert.False(t, res.PossibleDuplicate)
	require.NotNil(t, res.Bet)
}

func TestPlace_ValidationFailures(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	noStake := makeInput("x")
	noStake.Stake = 0
	_, err := svc.Place(ctx, noStake)
	assert.ErrorIs(t, err, domain.ErrInvalidEntry)

	badOdds := makeInput("y")
	badOdds.DecimalOdds = 1.0
	_, err = svc.Place(ctx, badOdds)
	assert.ErrorIs(t, err, domain.ErrInvalidEntry)

	noLegs := makeInput("z")
	noLegs.Legs = nil
	_, err = svc.Place(ctx, noLegs)
	assert.ErrorIs(t, err, domain.ErrInvalidEntry)
}

func TestCreate_StructuralEntryWithoutText(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	manual := makeInput("")
	bet, err := svc.Create(ctx, manual)
	require.NoError(t, err)
	assert.NotEmpty(t, bet.RawSlipHash)

	// La misma entrada estructural produce el mismo hash: duplicado.
	_, err = svc.Create(ctx, makeInput(""))
	assert.ErrorIs(t, err, domain.ErrDuplicateSlip)
}

func TestOverride_ChangesTerminalStatusWithAudit(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Place(ctx, makeInput("slip text T"))
	require.NoError(t, err)

	bet, err := svc.Override(ctx, res.Bet.ID, domain.StatusWon, "book graded it manually", "admin-7")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWon, bet.Status)
	require.NotNil(t, bet.Payout)
	assert.InDelta(t, 50*1.91, *bet.Payout, 0.0001)

	trail, err := svc.AuditTrail(ctx, res.Bet.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2) // CREATE + OVERRIDE
	last := trail[len(trail)-1]
	assert.Equal(t, domain.AuditOverride, last.Action)
	assert.Equal(t, string(domain.StatusPending), last.Metadata["old_value"])
	assert.Equal(t, string(domain.StatusWon), last.Metadata["new_value"])
	assert.Equal(t, "admin-7", last.Metadata["actor_id"])
}

func TestOverride_RequiresReasonAndActor(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Override(context.Background(), "bet-1", domain.StatusWon, "", "admin-7")
	assert.ErrorIs(t, err, domain.ErrInvalidEntry)
}
