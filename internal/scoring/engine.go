// Package scoring computes the weighted multi-factor score (0..100) of a
// listing against a buyer's filters and budget. One engine serves both the
// recommendation endpoint and the chat search flow; only the injected weights
// differ between the two.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/maherbs/car-import-advisor/internal/costing"
	"github.com/maherbs/car-import-advisor/internal/domain"
)

type Engine struct {
	weights Weights
	brands  BrandTables
	calc    *costing.Calculator

	// Year is the reference for vehicle age lookups; tests pin it.
	Year int
}

func NewEngine(w Weights, b BrandTables, calc *costing.Calculator) *Engine {
	return &Engine{
		weights: w,
		brands:  b,
		calc:    calc,
		Year:    time.Now().Year(),
	}
}

// Weights returns the injected sub-score maxima.
func (e *Engine) Weights() Weights { return e.weights }

// EstimatedTotal is the shared quick total for budget filtering and price
// scoring. A missing price reports ok=false instead of an error: the caller
// treats the calculation as unavailable.
func (e *Engine) EstimatedTotal(l domain.Listing, regime domain.Regime) (float64, bool) {
	est, err := e.calc.QuickEstimate(l, regime)
	if err != nil {
		return 0, false
	}
	return math.Round(est), true
}

// ScoreCar scores one listing. Deterministic, no I/O.
func (e *Engine) ScoreCar(l domain.Listing, f domain.SearchFilters) domain.Recommendation {
	est, haveEst := e.EstimatedTotal(l, f.Regime)

	b := domain.ScoreBreakdown{
		Age:            e.ageScore(l.Year),
		Mileage:        e.mileageScore(l.Mileage),
		Reliability:    rescale(e.brands.Reliability, l.Brand, e.weights.Reliability),
		Parts:          rescale(e.brands.Parts, l.Brand, e.weights.Parts),
		FuelEfficiency: e.fuelEfficiencyScore(l, f),
		Preference:     e.preferenceScore(l, f),
		Practicality:   e.practicalityScore(l),
	}
	if haveEst {
		b.PriceFit = e.priceFitScore(est, f.BudgetTND)
	} else {
		// No usable price: neutral rather than punitive.
		b.PriceFit = 0.5 * e.weights.PriceFit
	}

	total := math.Round(b.Sum()*10) / 10

	return domain.Recommendation{
		Listing:           l,
		EstimatedTotalTND: est,
		Breakdown:         b,
		Score:             total,
		Strength:          StrengthLabel(total),
	}
}

// StrengthLabel maps a total score to its qualitative label. The thresholds
// are fixed and shared by every weight preset.
func StrengthLabel(total float64) string {
	switch {
	case total >= 75:
		return "excellent"
	case total >= 60:
		return "good"
	case total >= 45:
		return "fair"
	default:
		return "poor"
	}
}

// priceFitScore follows a non-monotonic curve over the budget-utilization
// ratio: it peaks in the 70..90% band and penalizes both bottom-feeding and
// busting the budget. The intent is "best value within budget", not
// cheapest-first.
func (e *Engine) priceFitScore(est, budget float64) float64 {
	max := e.weights.PriceFit
	if budget <= 0 {
		return 0.6 * max
	}
	if est <= 0 {
		return 0.5 * max
	}
	r := est / budget
	switch {
	case r <= 0.40:
		return 0.45 * max
	case r <= 0.55:
		return 0.65 * max
	case r <= 0.70:
		return 0.85 * max
	case r <= 0.90:
		return max
	case r <= 1.00:
		return 0.80 * max
	case r <= 1.10:
		return 0.35 * max
	default:
		return 0
	}
}

func (e *Engine) ageScore(year int) float64 {
	age := e.Year - year
	if age < 0 {
		age = 0
	}
	max := e.weights.Age
	switch {
	case age <= 1:
		return max
	case age <= 3:
		return 0.85 * max
	case age <= 5:
		return 0.65 * max
	case age <= 8:
		return 0.45 * max
	case age <= 12:
		return 0.25 * max
	default:
		return 0.10 * max
	}
}

func (e *Engine) mileageScore(km int) float64 {
	max := e.weights.Mileage
	switch {
	case km <= 0:
		// Zero or unknown odometer scores as new.
		return max
	case km <= 30000:
		return 0.90 * max
	case km <= 60000:
		return 0.75 * max
	case km <= 100000:
		return 0.55 * max
	case km <= 150000:
		return 0.35 * max
	case km <= 200000:
		return 0.20 * max
	default:
		return 0.05 * max
	}
}

func rescale(table map[string]float64, brand string, max float64) float64 {
	rating, ok := table[strings.ToLower(strings.TrimSpace(brand))]
	if !ok {
		rating = unknownBrandRating
	}
	return rating / 10 * max
}

// fuelEfficiencyScore orders fuels electric > plug-in > hybrid > small
// combustion > large combustion. When the buyer expressed no fuel preference,
// electrified vehicles are normalized down so they do not structurally top
// every ranking regardless of intent.
func (e *Engine) fuelEfficiencyScore(l domain.Listing, f domain.SearchFilters) float64 {
	max := e.weights.FuelEfficiency
	hasPref := f.FuelType != "" && f.FuelType != "any"

	var frac float64
	switch l.FuelType {
	case domain.FuelElectric:
		frac = 1.0
	case domain.FuelHybridPlugin:
		frac = 0.90
	case domain.FuelHybrid:
		frac = 0.80
	default:
		cc := l.EngineCC
		if cc <= 0 {
			cc = e.calc.Tables().DefaultEngineCC
		}
		switch {
		case cc <= 1200:
			frac = 0.70
		case cc <= 1600:
			frac = 0.55
		case cc <= 2000:
			frac = 0.40
		default:
			frac = 0.25
		}
	}

	if !hasPref && l.FuelType.IsElectrified() {
		frac *= 0.70
	}
	return frac * max
}

// preferenceScore starts at a neutral baseline and earns partial credit per
// matching specified dimension, capped at the factor maximum.
func (e *Engine) preferenceScore(l domain.Listing, f domain.SearchFilters) float64 {
	frac := 0.4
	if f.FuelType != "" && f.FuelType != "any" && string(l.FuelType) == f.FuelType {
		frac += 0.2
	}
	if f.BodyStyle != "" && f.BodyStyle != "any" &&
		strings.EqualFold(strings.TrimSpace(l.BodyStyle), strings.TrimSpace(f.BodyStyle)) {
		frac += 0.2
	}
	if f.Condition != "" && f.Condition != "any" && l.Condition() == f.Condition {
		frac += 0.2
	}
	if frac > 1 {
		frac = 1
	}
	return frac * e.weights.Preference
}

// practicalityScore rewards zero-import-risk local cars and easy-logistics
// origin countries: availability has value independent of price.
func (e *Engine) practicalityScore(l domain.Listing) float64 {
	max := e.weights.Practicality
	switch {
	case l.IsLocal():
		return max
	case e.calc.Tables().IsEU(l.Country):
		return 0.7 * max
	default:
		return 0.4 * max
	}
}
