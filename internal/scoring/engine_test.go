package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maherbs/car-import-advisor/internal/costing"
	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/eligibility"
	"github.com/maherbs/car-import-advisor/internal/rates"
)

func newTestEngine(w Weights) *Engine {
	tables := rates.Default()
	calc := costing.NewCalculator(tables, eligibility.New(tables))
	e := NewEngine(w, DefaultBrandTables(), calc)
	e.Year = 2025
	return e
}

func TestWeightPresets_SumTo100(t *testing.T) {
	assert.InDelta(t, 100.0, DefaultWeights().Sum(), 1e-9)
	assert.InDelta(t, 100.0, ChatWeights().Sum(), 1e-9)
}

func TestScoreCar_LocalMatch(t *testing.T) {
	e := newTestEngine(DefaultWeights())

	l := domain.Listing{
		ID:        "vw-1",
		Brand:     "Volkswagen",
		Model:     "Golf",
		Year:      2023,
		PriceTND:  89000,
		FuelType:  domain.FuelEssence,
		EngineCC:  1400,
		Mileage:   45000,
		BodyStyle: "compacte",
		Country:   domain.LocalCountry,
	}
	f := domain.SearchFilters{
		BudgetTND: 100000,
		FuelType:  "essence",
		BodyStyle: "compacte",
	}

	rec := e.ScoreCar(l, f)

	require.Equal(t, 89000.0, rec.EstimatedTotalTND)
	assert.InDelta(t, 25.0, rec.Breakdown.PriceFit, 1e-9)       // 89% of budget, peak band
	assert.InDelta(t, 12.75, rec.Breakdown.Age, 1e-9)           // 2 years old
	assert.InDelta(t, 11.25, rec.Breakdown.Mileage, 1e-9)       // 45k km
	assert.InDelta(t, 9.6, rec.Breakdown.Reliability, 1e-9)     // vw 8.0/10 of 12
	assert.InDelta(t, 8.5, rec.Breakdown.Parts, 1e-9)           // vw 8.5/10 of 10
	assert.InDelta(t, 4.4, rec.Breakdown.FuelEfficiency, 1e-9)  // 1400cc essence
	assert.InDelta(t, 8.0, rec.Breakdown.Preference, 1e-9)      // fuel + body matched
	assert.InDelta(t, 5.0, rec.Breakdown.Practicality, 1e-9)    // local
	assert.Equal(t, 84.5, rec.Score)
	assert.Equal(t, "excellent", rec.Strength)
}

func TestScoreCar_TotalMatchesBreakdown(t *testing.T) {
	e := newTestEngine(DefaultWeights())
	f := domain.SearchFilters{BudgetTND: 90000}

	listings := []domain.Listing{
		{ID: "a", Brand: "toyota", Year: 2024, PriceTND: 75000, FuelType: domain.FuelHybrid, Country: domain.LocalCountry},
		{ID: "b", Brand: "bmw", Year: 2018, PriceEUR: 22000, FuelType: domain.FuelDiesel, EngineCC: 2993, Mileage: 140000, Country: "allemagne"},
		{ID: "c", Brand: "lada", Year: 2012, PriceTND: 18000, FuelType: domain.FuelEssence, EngineCC: 1600, Mileage: 230000, Country: domain.LocalCountry},
	}
	for _, l := range listings {
		rec := e.ScoreCar(l, f)
		assert.InDelta(t, rec.Breakdown.Sum(), rec.Score, 0.05, l.ID)
		assert.GreaterOrEqual(t, rec.Score, 0.0, l.ID)
		assert.LessOrEqual(t, rec.Score, 100.0, l.ID)
	}
}

func TestScoreCar_MissingPriceScoresNeutral(t *testing.T) {
	e := newTestEngine(DefaultWeights())

	l := domain.Listing{ID: "x", Brand: "audi", Year: 2021, FuelType: domain.FuelEssence, EngineCC: 1984, Country: "allemagne"}
	rec := e.ScoreCar(l, domain.SearchFilters{BudgetTND: 120000})

	assert.Equal(t, 0.0, rec.EstimatedTotalTND)
	assert.InDelta(t, 12.5, rec.Breakdown.PriceFit, 1e-9)
}

func TestStrengthLabel_Thresholds(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{92.0, "excellent"},
		{75.0, "excellent"},
		{74.9, "good"},
		{60.0, "good"},
		{59.9, "fair"},
		{45.0, "fair"},
		{44.9, "poor"},
		{0, "poor"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StrengthLabel(tc.total), "total=%v", tc.total)
	}
}

func TestPriceFitScore_PeaksBelowBudget(t *testing.T) {
	e := newTestEngine(DefaultWeights())
	budget := 100000.0

	peak := e.priceFitScore(80000, budget)
	assert.InDelta(t, 25.0, peak, 1e-9)

	// Every band outside 70..90% utilization scores strictly lower,
	// including cheaper cars: this is value matching, not cheapest-first.
	for _, est := range []float64{30000, 50000, 65000, 95000, 108000, 120000} {
		assert.Less(t, e.priceFitScore(est, budget), peak, "est=%v", est)
	}

	assert.Equal(t, 0.0, e.priceFitScore(120000, budget))
	assert.InDelta(t, 15.0, e.priceFitScore(80000, 0), 1e-9)   // no budget given
	assert.InDelta(t, 12.5, e.priceFitScore(0, budget), 1e-9)  // no estimate
}

func TestMileageScore_NonIncreasing(t *testing.T) {
	e := newTestEngine(DefaultWeights())

	prev := e.mileageScore(0)
	for _, km := range []int{10000, 30000, 50000, 90000, 140000, 190000, 260000} {
		cur := e.mileageScore(km)
		assert.LessOrEqual(t, cur, prev, "km=%d", km)
		prev = cur
	}
	assert.Equal(t, e.weights.Mileage, e.mileageScore(0))
}

func TestFuelEfficiencyScore_ElectrifiedNormalization(t *testing.T) {
	e := newTestEngine(DefaultWeights())
	ev := domain.Listing{FuelType: domain.FuelElectric}

	explicit := e.fuelEfficiencyScore(ev, domain.SearchFilters{FuelType: "electric"})
	noPref := e.fuelEfficiencyScore(ev, domain.SearchFilters{})
	anyPref := e.fuelEfficiencyScore(ev, domain.SearchFilters{FuelType: "any"})

	assert.InDelta(t, 8.0, explicit, 1e-9)
	assert.InDelta(t, 5.6, noPref, 1e-9)
	assert.Equal(t, noPref, anyPref)

	// Combustion cars are never normalized down.
	ice := domain.Listing{FuelType: domain.FuelEssence, EngineCC: 1100}
	assert.InDelta(t, 5.6, e.fuelEfficiencyScore(ice, domain.SearchFilters{}), 1e-9)
}

func TestRescale_UnknownBrandDefaults(t *testing.T) {
	e := newTestEngine(DefaultWeights())
	rec := e.ScoreCar(domain.Listing{ID: "u", Brand: "Lada", Year: 2020, PriceTND: 30000, Country: domain.LocalCountry}, domain.SearchFilters{})

	assert.InDelta(t, 7.2, rec.Breakdown.Reliability, 1e-9) // 6.0/10 of 12
	assert.InDelta(t, 6.0, rec.Breakdown.Parts, 1e-9)       // 6.0/10 of 10
}

func TestLoadWeightsFromFile_MissingFallsBack(t *testing.T) {
	w, err := LoadWeightsFromFile("does/not/exist.json")
	require.Error(t, err)
	assert.Equal(t, DefaultWeights(), w)
}
