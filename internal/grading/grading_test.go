package grading_test

import (
	"testing"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
	"github.com/bockeljd/basement-bets-sub000/internal/grading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func finalResult(home, away int) domain.GameResult {
	return domain.GameResult{
		EventID:   "evt-1",
		SportKey:  "basketball_nba",
		HomeScore: home,
		AwayScore: away,
		IsFinal:   true,
	}
}

func TestGrade_Moneyline(t *testing.T) {
	tests := []struct {
		name     string
		side     domain.Side
		home     int
		away     int
		want     domain.Status
		computed float64
	}{
		{"home wins", domain.SideHome, 100, 95, domain.StatusWon, 5},
		{"home loses", domain.SideHome, 95, 100, domain.StatusLost, -5},
		{"away wins", domain.SideAway, 95, 100, domain.StatusWon, 5},
		{"tie pushes", domain.SideHome, 100, 100, domain.StatusPushed, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leg := domain.Leg{Market: domain.MarketMoneyline, Side: tt.side}
			out, err := grading.Grade(leg, finalResult(tt.home, tt.away), grading.Version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Result)
			assert.InDelta(t, tt.computed, out.Computed, 0.0001)
		})
	}
}

func TestGrade_Spread(t *testing.T) {
	// 100-95 con HOME -4.5: margen ajustado 0.5, cubre
	leg := domain.Leg{Market: domain.MarketSpread, Side: domain.SideHome, Line: ptr(-4.5)}
	out, err := grading.Grade(leg, finalResult(100, 95), grading.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWon, out.Result)
	assert.InDelta(t, 0.5, out.Computed, 0.0001)

	// misma línea, 99-95: 4 < 4.5, no cubre
	out, err = grading.Grade(leg, finalResult(99, 95), grading.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLost, out.Result)

	// línea entera exacta: push
	even := domain.Leg{Market: domain.MarketSpread, Side: domain.SideHome, Line: ptr(-5.0)}
	out, err = grading.Grade(even, finalResult(100, 95), grading.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPushed, out.Result)

	// underdog AWAY +4.5 que pierde por 3: cubre
	dog := domain.Leg{Market: domain.MarketSpread, Side: domain.SideAway, Line: ptr(4.5)}
	out, err = grading.Grade(dog, finalResult(100, 97), grading.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWon, out.Result)
}

func TestGrade_Total(t *testing.T) {
	over := domain.Leg{Market: domain.MarketTotal, Side: domain.SideOver, Line: ptr(210.5)}
	out, err := grading.Grade(over, finalResult(110, 105), grading.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWon, out.Result)
	assert.InDelta(t, 215, out.Computed, 0.0001)

	under := domain.Leg{Market: domain.MarketTotal, Side: domain.SideUnder, Line: ptr(210.5)}
	out, err = grading.Grade(under, finalResult(110, 105), grading.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLost, out.Result)

	push := domain.Leg{Market: domain.MarketTotal, Side: domain.SideOver, Line: ptr(215.0)}
	out, err = grading.Grade(push, finalResult(110, 105), grading.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPushed, out.Result)
}

func TestGrade_UnsettledReasons(t *testing.T) {
	tests := []struct {
		name   string
		leg    domain.Leg
		reason string
	}{
		{"moneyline without side", domain.Leg{Market: domain.MarketMoneyline}, domain.ReasonMissingSide},
		{"spread without line", domain.Leg{Market: domain.MarketSpread, Side: domain.SideHome}, domain.ReasonMissingLine},
		{"spread without side", domain.Leg{Market: domain.MarketSpread, Line: ptr(-4.5)}, domain.ReasonMissingSide},
		{"total without line", domain.Leg{Market: domain.MarketTotal, Side: domain.SideOver}, domain.ReasonMissingLine},
		{"total without side", domain.Leg{Market: domain.MarketTotal, Line: ptr(210.5)}, domain.ReasonMissingSide},
		{"unknown market", domain.Leg{Market: "PLAYER_PROPS", Side: domain.SideOver, Line: ptr(25.5)}, domain.ReasonUnsupportedMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := grading.Grade(tt.leg, finalResult(100, 95), grading.Version)
			var unsettled *domain.UnsettledError
			require.ErrorAs(t, err, &unsettled)
			assert.Equal(t, tt.reason, unsettled.Reason)
		})
	}
}

func TestGrade_RejectsNonFinalResult(t *testing.T) {
	leg := domain.Leg{Market: domain.MarketMoneyline, Side: domain.SideHome}
	result := finalResult(50, 48)
	result.IsFinal = false

	_, err := grading.Grade(leg, result, grading.Version)
	assert.Error(t, err)
}

func TestGrade_Deterministic(t *testing.T) {
	// Mismas entradas, mismo resultado — sin reloj ni estado.
	leg := domain.Leg{Market: domain.MarketSpread, Side: domain.SideHome, Line: ptr(-4.5)}
	first, err := grading.Grade(leg, finalResult(100, 95), grading.Version)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		again, err := grading.Grade(leg, finalResult(100, 95), grading.Version)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGrade_UnknownVersionIsUnsupported(t *testing.T) {
	leg := domain.Leg{Market: domain.MarketMoneyline, Side: domain.SideHome}
	_, err := grading.Grade(leg, finalResult(100, 95), grading.Version+1)
	var unsettled *domain.UnsettledError
	require.ErrorAs(t, err, &unsettled)
	assert.Equal(t, domain.ReasonUnsupportedMarket, unsettled.Reason)
}
