// Package costing computes the full import tax breakdown for a vehicle under a
// fiscal regime, compares the applicable regimes, and provides the quick total
// estimate the ranking pipeline uses for budget filtering and price scoring.
package costing

import (
	"math"
	"time"

	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/eligibility"
	"github.com/maherbs/car-import-advisor/internal/rates"
)

// Vehicle is the costing input, decoupled from a stored listing so the chat
// flow can ask about a car that is not in the catalog.
type Vehicle struct {
	PriceEUR float64         `json:"price_eur,omitempty"`
	PriceTND float64         `json:"price_tnd,omitempty"`
	FuelType domain.FuelType `json:"fuel_type"`
	EngineCC int             `json:"engine_cc,omitempty"`
	AgeYears int             `json:"age_years,omitempty"`
	Country  string          `json:"country"`
	// Heavy marks the heavy/4x4 vehicle class, which forces the top
	// consumption rate regardless of displacement.
	Heavy bool `json:"heavy,omitempty"`
}

// VehicleFromListing maps a catalog listing onto a costing input.
func VehicleFromListing(l domain.Listing) Vehicle {
	age := time.Now().Year() - l.Year
	if age < 0 {
		age = 0
	}
	return Vehicle{
		PriceEUR: l.PriceEUR,
		PriceTND: l.PriceTND,
		FuelType: l.FuelType,
		EngineCC: l.EngineCC,
		AgeYears: age,
		Country:  l.Country,
	}
}

type Calculator struct {
	tables rates.Tables
	elig   *eligibility.Evaluator
}

func NewCalculator(t rates.Tables, e *eligibility.Evaluator) *Calculator {
	return &Calculator{tables: t, elig: e}
}

// Tables exposes the injected fiscal configuration to collaborators that need
// the same conversion knobs (scoring, ranking).
func (c *Calculator) Tables() rates.Tables { return c.tables }

// cif returns the customs valuation base in TND. A known TND price is used
// as-is; otherwise the EUR price plus the shipping allowance is converted with
// the buffered rate.
func (c *Calculator) cif(v Vehicle) (float64, error) {
	if v.PriceTND > 0 {
		return v.PriceTND, nil
	}
	if v.PriceEUR > 0 {
		return c.tables.ConvertEUR(v.PriceEUR + c.tables.ShippingBufferEUR), nil
	}
	return 0, domain.ErrMissingPrice
}

// consumptionRate picks the excise rate for the vehicle under the regime.
// RS forces its fixed low rate (zero for electrified vehicles); the heavy/4x4
// class forces the top rate; electric vehicles otherwise pay none.
func (c *Calculator) consumptionRate(v Vehicle, regime domain.Regime) float64 {
	if regime == domain.RegimeRS {
		if v.FuelType.IsElectrified() {
			return 0
		}
		return c.tables.RSConsumptionRate
	}
	if v.Heavy {
		return c.tables.HeavyConsumptionRate
	}
	if v.FuelType == domain.FuelElectric {
		return 0
	}
	cc := v.EngineCC
	if cc <= 0 {
		cc = c.tables.DefaultEngineCC
	}
	if v.FuelType == domain.FuelDiesel {
		return c.tables.DieselTiers.RateFor(cc)
	}
	// Essence, hybrids and anything unrecognized use the essence table.
	return c.tables.EssenceTiers.RateFor(cc)
}

func (c *Calculator) vatRate(v Vehicle, regime domain.Regime) float64 {
	if regime == domain.RegimeRS || v.FuelType.IsElectrified() {
		return c.tables.VATReduced
	}
	return c.tables.VATStandard
}

// CalculateTax computes the itemized breakdown for one regime. The four taxes
// are chained in strict order (each base includes the previous taxes) and all
// rounding happens once, on the final figures.
func (c *Calculator) CalculateTax(v Vehicle, regime domain.Regime) (domain.CostBreakdown, error) {
	if regime == "" {
		regime = domain.RegimeStandard
	}

	cif, err := c.cif(v)
	if err != nil {
		return domain.CostBreakdown{}, err
	}

	duty := cif * c.tables.DutyRate(v.Country)
	consumption := (cif + duty) * c.consumptionRate(v, regime)
	vat := (cif + duty + consumption) * c.vatRate(v, regime)
	formality := (duty + consumption) * c.tables.FormalityRate

	totalTaxes := duty + consumption + vat + formality
	due := totalTaxes
	if regime == domain.RegimeFCR {
		due = totalTaxes * 0.25
	}
	final := cif + due

	burden := 0.0
	if cif > 0 {
		burden = math.Round(totalTaxes/cif*1000) / 10
	}

	return domain.CostBreakdown{
		Regime:         regime,
		CIF:            roundTND(cif),
		CustomsDuty:    roundTND(duty),
		ConsumptionTax: roundTND(consumption),
		VAT:            roundTND(vat),
		FormalityTax:   roundTND(formality),
		TotalTaxes:     roundTND(totalTaxes),
		FinalPrice:     roundTND(final),
		TaxBurdenPct:   burden,
	}, nil
}

// CompareRegimes computes the standard breakdown plus the preferential ones the
// vehicle is eligible for, and recommends the cheapest. Ties keep the earlier
// option, so the standard regime wins exact ties.
func (c *Calculator) CompareRegimes(v Vehicle) (domain.RegimeComparison, error) {
	standard, err := c.CalculateTax(v, domain.RegimeStandard)
	if err != nil {
		return domain.RegimeComparison{}, err
	}

	cmp := domain.RegimeComparison{
		Standard:    standard,
		Recommended: domain.RegimeStandard,
	}
	best := standard.FinalPrice

	fcrOK, rsOK := c.elig.Evaluate(v.EngineCC, v.FuelType, v.AgeYears, v.Country)
	if fcrOK {
		b, err := c.CalculateTax(v, domain.RegimeFCR)
		if err != nil {
			return domain.RegimeComparison{}, err
		}
		cmp.FCR = &b
		if b.FinalPrice < best {
			best = b.FinalPrice
			cmp.Recommended = domain.RegimeFCR
		}
	}
	if rsOK {
		b, err := c.CalculateTax(v, domain.RegimeRS)
		if err != nil {
			return domain.RegimeComparison{}, err
		}
		cmp.RS = &b
		if b.FinalPrice < best {
			best = b.FinalPrice
			cmp.Recommended = domain.RegimeRS
		}
	}

	cmp.SavingsTND = standard.FinalPrice - best
	return cmp, nil
}

// QuickEstimate approximates the landed total of a listing in TND without the
// itemized chain. Local listings cost their local price unchanged; imports pay
// CIF times a flat multiplier, the smaller one when the buyer's regime or the
// listing's own eligibility carries a discount. The divergence from
// CalculateTax is bounded, not zero; the pipeline only computes exact figures
// for the returned page.
func (c *Calculator) QuickEstimate(l domain.Listing, regime domain.Regime) (float64, error) {
	if l.IsLocal() {
		if l.PriceTND > 0 {
			return l.PriceTND, nil
		}
		return 0, domain.ErrMissingPrice
	}

	var cif float64
	switch {
	case l.PriceEUR > 0:
		cif = c.tables.ConvertEUR(l.PriceEUR + c.tables.ShippingBufferEUR)
	case l.PriceTND > 0:
		cif = l.PriceTND
	default:
		return 0, domain.ErrMissingPrice
	}

	mult := c.tables.QuickMultiplierStandard
	if regime == domain.RegimeFCR || regime == domain.RegimeRS || l.FCREligible || l.RSEligible {
		mult = c.tables.QuickMultiplierPreferential
	}
	return cif * mult, nil
}

func roundTND(v float64) int64 {
	if v < 0 {
		return 0
	}
	return int64(math.Round(v))
}
