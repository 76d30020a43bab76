package domain

import "strings"

// LocalCountry is the domestic market. Listings from here are sold in TND and
// never go through customs.
const LocalCountry = "tunisie"

// FuelType is the normalized fuel enum used across ingestion, filtering and costing.
type FuelType string

const (
	FuelEssence      FuelType = "essence"
	FuelDiesel       FuelType = "diesel"
	FuelElectric     FuelType = "electric"
	FuelHybrid       FuelType = "hybrid"
	FuelHybridPlugin FuelType = "hybrid_plugin"
)

// ParseFuelType validates a fuel filter value. Empty and "any" are accepted as
// the unconstrained filter.
func ParseFuelType(s string) (FuelType, bool) {
	switch FuelType(s) {
	case "", "any":
		return "", true
	case FuelEssence, FuelDiesel, FuelElectric, FuelHybrid, FuelHybridPlugin:
		return FuelType(s), true
	}
	return "", false
}

// IsElectrified reports whether the fuel type bypasses displacement rules.
func (f FuelType) IsElectrified() bool {
	return f == FuelElectric || f == FuelHybridPlugin
}

// Regime identifies a fiscal import regime.
type Regime string

const (
	RegimeStandard Regime = "standard"
	// RegimeFCR is the returning-resident scheme: only 25% of total taxes is charged.
	RegimeFCR Regime = "fcr"
	// RegimeRS is the reduced-rate resident scheme: fixed low consumption rate and reduced VAT.
	RegimeRS Regime = "rs"
)

// ParseRegime validates a regime hint. Empty means standard.
func ParseRegime(s string) (Regime, bool) {
	switch Regime(s) {
	case "":
		return RegimeStandard, true
	case RegimeStandard, RegimeFCR, RegimeRS:
		return Regime(s), true
	}
	return RegimeStandard, false
}

const (
	ConditionNew  = "new"
	ConditionUsed = "used"
)

// Listing is one car for sale. Immutable for the duration of a request;
// eligibility flags are stamped once at ingestion.
type Listing struct {
	ID         string   `json:"id"`
	Brand      string   `json:"brand"`
	Model      string   `json:"model"`
	Variant    string   `json:"variant,omitempty"`
	Year       int      `json:"year"`
	PriceEUR   float64  `json:"price_eur,omitempty"`
	PriceTND   float64  `json:"price_tnd,omitempty"`
	FuelType   FuelType `json:"fuel_type"`
	EngineCC   int      `json:"engine_cc,omitempty"`  // 0 = unknown or no combustion engine
	Mileage    int      `json:"mileage_km,omitempty"` // 0 = new
	BodyStyle  string   `json:"body_style,omitempty"`
	Country    string   `json:"country"`
	Source     string   `json:"source,omitempty"`
	SellerType string   `json:"seller_type,omitempty"`

	FCREligible bool `json:"fcr_eligible"`
	RSEligible  bool `json:"rs_eligible"`
}

// IsLocal reports whether the listing is sold on the domestic market. The
// comparison ignores case and surrounding whitespace so every consumer of a
// listing agrees with the eligibility evaluator, whichever path ingested it.
func (l Listing) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(l.Country), LocalCountry)
}

// Condition derives new-vs-used from the odometer (0 km means new).
func (l Listing) Condition() string {
	if l.Mileage == 0 {
		return ConditionNew
	}
	return ConditionUsed
}

// SearchFilters is the buyer's filter/preference set. Empty string or "any"
// imposes no constraint on that dimension.
type SearchFilters struct {
	FuelType  string  `json:"fuel_type,omitempty"`
	BodyStyle string  `json:"body_style,omitempty"`
	Condition string  `json:"condition,omitempty"`
	BudgetTND float64 `json:"budget_tnd,omitempty"`
	Regime    Regime  `json:"regime,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// CostBreakdown is the itemized tax computation for one (vehicle, regime) pair.
// Monetary fields are TND rounded once, after the full chain is computed.
// FinalPrice == CIF + TotalTaxes, except under FCR where only 25% of the taxes
// is charged.
type CostBreakdown struct {
	Regime         Regime  `json:"regime"`
	CIF            int64   `json:"cif_tnd"`
	CustomsDuty    int64   `json:"customs_duty_tnd"`
	ConsumptionTax int64   `json:"consumption_tax_tnd"`
	VAT            int64   `json:"vat_tnd"`
	FormalityTax   int64   `json:"formality_tax_tnd"`
	TotalTaxes     int64   `json:"total_taxes_tnd"`
	FinalPrice     int64   `json:"final_price_tnd"`
	TaxBurdenPct   float64 `json:"tax_burden_pct"`
}

// RegimeComparison holds the breakdowns computed by CompareRegimes. FCR and RS
// are present only when the vehicle is eligible.
type RegimeComparison struct {
	Standard    CostBreakdown  `json:"standard"`
	FCR         *CostBreakdown `json:"fcr,omitempty"`
	RS          *CostBreakdown `json:"rs,omitempty"`
	Recommended Regime         `json:"recommended"`
	SavingsTND  int64          `json:"savings_tnd"`
}

// ScoreBreakdown holds the per-factor sub-scores. Each is bounded by the
// corresponding weight; the total is always their arithmetic sum.
type ScoreBreakdown struct {
	PriceFit       float64 `json:"price_fit"`
	Age            float64 `json:"age"`
	Mileage        float64 `json:"mileage"`
	Reliability    float64 `json:"reliability"`
	Parts          float64 `json:"parts_availability"`
	FuelEfficiency float64 `json:"fuel_efficiency"`
	Preference     float64 `json:"preference_match"`
	Practicality   float64 `json:"practicality"`
}

// Sum returns the arithmetic total of the sub-scores.
func (b ScoreBreakdown) Sum() float64 {
	return b.PriceFit + b.Age + b.Mileage + b.Reliability + b.Parts +
		b.FuelEfficiency + b.Preference + b.Practicality
}

// Recommendation is a scored listing in a ranked result set.
type Recommendation struct {
	Listing           Listing        `json:"listing"`
	EstimatedTotalTND float64        `json:"estimated_total_tnd"`
	Breakdown         ScoreBreakdown `json:"score_breakdown"`
	Score             float64        `json:"score"`
	Strength          string         `json:"strength"`
	Rank              int            `json:"rank"`
	CostBreakdown     *CostBreakdown `json:"cost_breakdown,omitempty"`
}
