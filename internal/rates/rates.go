// Package rates holds the static, versioned fiscal configuration: exchange
// rate, displacement-tiered consumption-tax tables, flat duty and VAT rates,
// and the eligibility thresholds of the two preferential regimes. Tables are
// immutable after construction and injected into the evaluator, the calculator
// and the scoring engine.
package rates

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Tier maps an upper displacement bound (inclusive) to a consumption-tax rate.
type Tier struct {
	MaxCC int     `json:"max_cc"`
	Rate  float64 `json:"rate"`
}

// TierTable is a step function of engine displacement. Steps must be sorted by
// MaxCC ascending; MaxRate applies above the last step.
type TierTable struct {
	Steps   []Tier  `json:"steps"`
	MaxRate float64 `json:"max_rate"`
}

// RateFor returns the rate of the smallest step whose bound covers cc, or
// MaxRate when cc is above every step.
func (t TierTable) RateFor(cc int) float64 {
	for _, step := range t.Steps {
		if cc <= step.MaxCC {
			return step.Rate
		}
	}
	return t.MaxRate
}

// RegimeLimits are the eligibility thresholds of one preferential regime.
// Electrified vehicles skip the displacement ceilings and only the age limit
// applies. HybridCC is the ceiling used for non-plug-in hybrids; it is a
// distinct threshold, not derived from EssenceCC.
type RegimeLimits struct {
	EssenceCC   int `json:"essence_cc"`
	DieselCC    int `json:"diesel_cc"`
	HybridCC    int `json:"hybrid_cc"`
	MaxAgeYears int `json:"max_age_years"`
}

// Tables is the full fiscal configuration.
type Tables struct {
	// EUR->TND conversion: base market rate plus a safety buffer, applied
	// identically everywhere an EUR amount is converted.
	BaseEURRate   float64 `json:"base_eur_rate"`
	RateBufferPct float64 `json:"rate_buffer_pct"`

	// Flat shipping/insurance allowance added to an EUR origin price before
	// conversion when no TND price is known.
	ShippingBufferEUR float64 `json:"shipping_buffer_eur"`

	EssenceTiers TierTable `json:"essence_tiers"`
	DieselTiers  TierTable `json:"diesel_tiers"`

	// HeavyConsumptionRate overrides the tier tables for the heavy/4x4
	// vehicle class. RSConsumptionRate is the fixed low rate forced by the RS
	// regime (zero for electrified vehicles).
	HeavyConsumptionRate float64 `json:"heavy_consumption_rate"`
	RSConsumptionRate    float64 `json:"rs_consumption_rate"`

	// Customs duty: EU origin pays nothing, everything else the flat rate.
	CustomsDutyRate float64  `json:"customs_duty_rate"`
	EUCountries     []string `json:"eu_countries"`

	VATStandard float64 `json:"vat_standard"`
	VATReduced  float64 `json:"vat_reduced"`

	// Administrative-formality tax, percentage of (duty + consumption).
	FormalityRate float64 `json:"formality_rate"`

	FCRLimits RegimeLimits `json:"fcr_limits"`
	RSLimits  RegimeLimits `json:"rs_limits"`

	// DefaultEngineCC substitutes for an unknown displacement (dataset median).
	DefaultEngineCC int `json:"default_engine_cc"`

	// Quick-estimate multipliers applied to CIF during filtering/scoring.
	QuickMultiplierStandard   float64 `json:"quick_multiplier_standard"`
	QuickMultiplierPreferential float64 `json:"quick_multiplier_preferential"`
}

// Default returns the compiled-in tables.
func Default() Tables {
	return Tables{
		BaseEURRate:       3.30,
		RateBufferPct:     5,
		ShippingBufferEUR: 1500,

		EssenceTiers: TierTable{
			Steps: []Tier{
				{MaxCC: 1000, Rate: 0.10},
				{MaxCC: 1300, Rate: 0.27},
				{MaxCC: 1700, Rate: 0.50},
				{MaxCC: 2000, Rate: 0.88},
			},
			MaxRate: 1.50,
		},
		DieselTiers: TierTable{
			Steps: []Tier{
				{MaxCC: 1500, Rate: 0.25},
				{MaxCC: 1900, Rate: 0.63},
				{MaxCC: 2500, Rate: 1.10},
			},
			MaxRate: 1.77,
		},

		HeavyConsumptionRate: 1.50,
		RSConsumptionRate:    0.10,

		CustomsDutyRate: 0.30,
		EUCountries: []string{
			"allemagne", "france", "italie", "espagne", "belgique",
			"pays-bas", "autriche", "portugal", "luxembourg",
		},

		VATStandard: 0.19,
		VATReduced:  0.07,

		FormalityRate: 0.03,

		// FCR: stricter and shorter-lived, but the cc ceilings are higher.
		FCRLimits: RegimeLimits{EssenceCC: 2000, DieselCC: 2500, HybridCC: 2000, MaxAgeYears: 5},
		// RS: looser age limit, lower ceilings, hybrid ceiling sits between.
		RSLimits: RegimeLimits{EssenceCC: 1300, DieselCC: 1700, HybridCC: 1800, MaxAgeYears: 8},

		DefaultEngineCC: 1400,

		QuickMultiplierStandard:     1.90,
		QuickMultiplierPreferential: 1.25,
	}
}

// ExchangeRate is the buffered EUR->TND rate.
func (t Tables) ExchangeRate() float64 {
	return t.BaseEURRate * (1 + t.RateBufferPct/100)
}

// ConvertEUR converts an EUR amount to TND with the buffered rate.
func (t Tables) ConvertEUR(amount float64) float64 {
	return amount * t.ExchangeRate()
}

// IsEU reports whether the origin country belongs to the zero-duty trade bloc.
func (t Tables) IsEU(country string) bool {
	c := strings.ToLower(strings.TrimSpace(country))
	for _, eu := range t.EUCountries {
		if c == eu {
			return true
		}
	}
	return false
}

// DutyRate returns the customs-duty rate for an origin country.
func (t Tables) DutyRate(country string) float64 {
	if t.IsEU(country) {
		return 0
	}
	return t.CustomsDutyRate
}

// LoadFromFile loads tables from a JSON file, falling back to defaults on read
// errors.
func LoadFromFile(path string) (Tables, error) {
	t := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read rates file: %w", err)
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return Default(), fmt.Errorf("unmarshal rates: %w", err)
	}
	return t, nil
}
