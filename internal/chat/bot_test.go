package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maherbs/car-import-advisor/internal/costing"
	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/eligibility"
	"github.com/maherbs/car-import-advisor/internal/ranking"
	"github.com/maherbs/car-import-advisor/internal/rates"
	"github.com/maherbs/car-import-advisor/internal/scoring"
	"github.com/maherbs/car-import-advisor/internal/storage"
)

type stubSource struct {
	listings []domain.Listing
}

func (s *stubSource) ListCandidates(h storage.CandidateHints) ([]domain.Listing, error) {
	return s.listings, nil
}

func newTestBot(src Source) *Bot {
	tables := rates.Default()
	calc := costing.NewCalculator(tables, eligibility.New(tables))
	engine := scoring.NewEngine(scoring.ChatWeights(), scoring.DefaultBrandTables(), calc)
	engine.Year = 2025
	pipeline := ranking.New(engine, calc, nil)
	return NewBot(calc, pipeline, src, nil)
}

func TestBot_CostFlow(t *testing.T) {
	b := newTestBot(&stubSource{})

	r := b.Handle("", "combien coûte l'import d'une voiture ?")
	require.NotEmpty(t, r.SessionID)
	assert.Equal(t, StateCostPrice, r.State)
	sid := r.SessionID

	r = b.Handle(sid, "15000")
	assert.Equal(t, StateCostFuel, r.State)

	r = b.Handle(sid, "essence")
	assert.Equal(t, StateCostCC, r.State)

	r = b.Handle(sid, "1600")
	assert.Equal(t, StateCostAge, r.State)

	r = b.Handle(sid, "3 ans")
	assert.Equal(t, StateCostOrigin, r.State)

	r = b.Handle(sid, "Allemagne")
	assert.Equal(t, StateStart, r.State)
	require.NotNil(t, r.Comparison)
	assert.Equal(t, int64(102911), r.Comparison.Standard.FinalPrice)
	assert.Equal(t, domain.RegimeFCR, r.Comparison.Recommended)
	assert.Contains(t, r.Reply, "FCR")
}

func TestBot_CostFlow_ElectricSkipsDisplacement(t *testing.T) {
	b := newTestBot(&stubSource{})

	r := b.Handle("", "coût d'import")
	sid := r.SessionID
	b.Handle(sid, "18900")
	r = b.Handle(sid, "electrique")
	assert.Equal(t, StateCostAge, r.State)
}

func TestBot_CostFlow_MissingPriceRecovers(t *testing.T) {
	b := newTestBot(&stubSource{})

	r := b.Handle("", "taxe douane")
	sid := r.SessionID
	r = b.Handle(sid, "aucune idée")
	// Still waiting for a price, the state does not advance.
	assert.Equal(t, StateCostPrice, r.State)
	assert.Nil(t, r.Comparison)
}

func TestBot_SearchFlow(t *testing.T) {
	src := &stubSource{listings: []domain.Listing{
		{ID: "loc-1", Brand: "kia", Model: "picanto", Year: 2023, PriceTND: 62000, FuelType: domain.FuelEssence, EngineCC: 1200, Mileage: 15000, BodyStyle: "citadine", Country: "tunisie"},
		{ID: "loc-2", Brand: "peugeot", Model: "208", Year: 2022, PriceTND: 71000, FuelType: domain.FuelEssence, EngineCC: 1200, Mileage: 38000, BodyStyle: "citadine", Country: "tunisie"},
		{ID: "big", Brand: "bmw", Model: "x5", Year: 2019, PriceEUR: 38000, FuelType: domain.FuelDiesel, EngineCC: 2993, Mileage: 90000, BodyStyle: "suv", Country: "allemagne"},
	}}
	b := newTestBot(src)

	r := b.Handle("", "je cherche une voiture")
	sid := r.SessionID
	assert.Equal(t, StateSearchBudget, r.State)

	r = b.Handle(sid, "90k")
	assert.Equal(t, StateSearchFuel, r.State)

	r = b.Handle(sid, "peu importe")
	assert.Equal(t, StateSearchBody, r.State)

	r = b.Handle(sid, "citadine")
	assert.Equal(t, StateStart, r.State)
	require.NotEmpty(t, r.Recommendations)
	for _, rec := range r.Recommendations {
		assert.Equal(t, "citadine", rec.Listing.BodyStyle)
		assert.LessOrEqual(t, rec.EstimatedTotalTND, 90000.0)
	}
	assert.Contains(t, r.Reply, "suggestions")
}

func TestBot_SearchFlow_NoMatches(t *testing.T) {
	b := newTestBot(&stubSource{})

	r := b.Handle("", "chercher une voiture")
	sid := r.SessionID
	b.Handle(sid, "50000")
	b.Handle(sid, "diesel")
	r = b.Handle(sid, "peu importe")

	assert.Empty(t, r.Recommendations)
	assert.Contains(t, r.Reply, "Aucune voiture")
}

func TestBot_UnknownIntent(t *testing.T) {
	b := newTestBot(&stubSource{})

	r := b.Handle("", "quelle heure est-il ?")
	assert.Equal(t, StateStart, r.State)
	assert.Contains(t, r.Reply, "import")
}

func TestBot_SessionsAreIsolated(t *testing.T) {
	b := newTestBot(&stubSource{})

	r1 := b.Handle("", "coût d'import")
	r2 := b.Handle("", "je cherche une voiture")

	require.NotEqual(t, r1.SessionID, r2.SessionID)
	assert.Equal(t, StateCostPrice, r1.State)
	assert.Equal(t, StateSearchBudget, r2.State)
}

func TestBot_CompletedSessionsEvicted(t *testing.T) {
	b := newTestBot(&stubSource{})

	r := b.Handle("", "coût d'import")
	sid := r.SessionID
	b.Handle(sid, "15000")
	b.Handle(sid, "essence")
	b.Handle(sid, "1600")
	b.Handle(sid, "3")
	r = b.Handle(sid, "Allemagne")
	require.Equal(t, StateStart, r.State)

	b.mu.Lock()
	_, kept := b.sessions[sid]
	n := len(b.sessions)
	b.mu.Unlock()
	assert.False(t, kept, "completed session still in the map")
	assert.Zero(t, n)

	// An unanswered prompt keeps its session alive.
	r = b.Handle("", "je cherche une voiture")
	b.mu.Lock()
	_, kept = b.sessions[r.SessionID]
	b.mu.Unlock()
	assert.True(t, kept)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"15000", 15000, true},
		{"15k", 15000, true},
		{"90 k", 90000, true},
		{"12,5k", 12500, true},
		{"environ 3 ans", 3, true},
		{"aucune idée", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, tc.in)
		}
	}
}
