// Package eligibility decides whether a vehicle qualifies for the FCR and RS
// preferential import regimes. The same evaluator runs at ingestion time (to
// stamp listing flags) and at request time (for ad-hoc tax questions), so the
// two can never drift apart.
package eligibility

import (
	"strings"
	"time"

	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/rates"
)

type Evaluator struct {
	tables rates.Tables
}

func New(t rates.Tables) *Evaluator {
	return &Evaluator{tables: t}
}

// Evaluate returns the (fcr, rs) eligibility pair for a vehicle.
// Rules, in order:
//   - local-market vehicles are never eligible (the regimes only cover imports);
//   - electric and plug-in-hybrid vehicles only face the age limit;
//   - non-plug-in hybrids use the regime's hybrid cc ceiling;
//   - essence/diesel use their respective ceiling plus the age limit.
//
// An unknown displacement is replaced by the dataset median before evaluation.
func (e *Evaluator) Evaluate(engineCC int, fuel domain.FuelType, ageYears int, country string) (fcr, rs bool) {
	if strings.ToLower(strings.TrimSpace(country)) == domain.LocalCountry {
		return false, false
	}
	if engineCC <= 0 {
		engineCC = e.tables.DefaultEngineCC
	}
	return e.eligibleFor(e.tables.FCRLimits, engineCC, fuel, ageYears),
		e.eligibleFor(e.tables.RSLimits, engineCC, fuel, ageYears)
}

func (e *Evaluator) eligibleFor(lim rates.RegimeLimits, engineCC int, fuel domain.FuelType, ageYears int) bool {
	if ageYears > lim.MaxAgeYears {
		return false
	}
	if fuel.IsElectrified() {
		return true
	}
	switch fuel {
	case domain.FuelEssence:
		return engineCC <= lim.EssenceCC
	case domain.FuelDiesel:
		return engineCC <= lim.DieselCC
	case domain.FuelHybrid:
		return engineCC <= lim.HybridCC
	}
	// Unrecognized fuel strings are treated like essence rather than rejected.
	return engineCC <= lim.EssenceCC
}

// Stamp recomputes both flags on a listing, using the model year against the
// current year. Used by ingestion and by the listings create endpoint.
func (e *Evaluator) Stamp(l *domain.Listing) {
	age := time.Now().Year() - l.Year
	if age < 0 {
		age = 0
	}
	l.FCREligible, l.RSEligible = e.Evaluate(l.EngineCC, l.FuelType, age, l.Country)
}
