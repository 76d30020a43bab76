// Package ranking runs the recommendation pipeline: hard filters, budget
// filter on the quick estimate, scoring, a deterministic sort, the streaming
// diversity cap, pagination, and enrichment of the returned page.
package ranking

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/maherbs/car-import-advisor/internal/costing"
	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/scoring"
)

const defaultLimit = 10

// maxPerModel is the diversity cap: at most this many listings per
// case-insensitive (brand, model) key in a result set.
const maxPerModel = 2

type Pipeline struct {
	engine *scoring.Engine
	calc   *costing.Calculator
	log    *zap.Logger
}

func New(engine *scoring.Engine, calc *costing.Calculator, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{engine: engine, calc: calc, log: log}
}

type Options struct {
	Limit                int
	Offset               int
	IncludeCostBreakdown bool
}

type Result struct {
	Total           int
	Recommendations []domain.Recommendation
}

// FilterAndRank runs the full pipeline over an already-fetched candidate set.
// Total counts the survivors of the hard and budget filters, before the
// diversity cap and pagination. An empty result is not an error.
func (p *Pipeline) FilterAndRank(listings []domain.Listing, f domain.SearchFilters, opts Options) Result {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var survivors []domain.Listing
	for _, l := range listings {
		if !matchesHardFilters(l, f) {
			continue
		}
		if f.BudgetTND > 0 {
			est, ok := p.engine.EstimatedTotal(l, f.Regime)
			if !ok {
				// Price unknown: cannot prove it busts the budget, keep it
				// and let the neutral price-fit score handle it.
				p.log.Warn("quick estimate unavailable", zap.String("listing_id", l.ID))
			} else if est > f.BudgetTND {
				continue
			}
		}
		survivors = append(survivors, l)
	}

	scored := make([]domain.Recommendation, 0, len(survivors))
	for _, l := range survivors {
		scored = append(scored, p.engine.ScoreCar(l, f))
	}

	// Descending score; ascending listing ID breaks exact ties so ordering is
	// reproducible across runs.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Listing.ID < scored[j].Listing.ID
	})

	capped := applyDiversityCap(scored, opts.Offset+opts.Limit)

	// Pagination over the capped stream.
	start := opts.Offset
	if start > len(capped) {
		start = len(capped)
	}
	page := capped[start:]

	for i := range page {
		page[i].Rank = opts.Offset + i + 1
		if opts.IncludeCostBreakdown && !page[i].Listing.IsLocal() {
			p.attachBreakdown(&page[i], f.Regime)
		}
	}

	return Result{Total: len(scored), Recommendations: page}
}

// applyDiversityCap walks the sorted list and accepts each listing unless its
// (brand, model) key already appeared maxPerModel times among accepted ones.
// It stops as soon as `want` listings are collected, so a lower-scoring but
// more diverse listing can displace a same-model duplicate ranked above it.
func applyDiversityCap(scored []domain.Recommendation, want int) []domain.Recommendation {
	seen := make(map[string]int)
	out := make([]domain.Recommendation, 0, min(want, len(scored)))
	for _, r := range scored {
		key := strings.ToLower(r.Listing.Brand) + "|" + strings.ToLower(r.Listing.Model)
		if seen[key] >= maxPerModel {
			continue
		}
		seen[key]++
		out = append(out, r)
		if len(out) >= want {
			break
		}
	}
	return out
}

// attachBreakdown computes the itemized cost lazily, only for returned page
// entries. A missing price downgrades to "no breakdown" with a warning.
func (p *Pipeline) attachBreakdown(r *domain.Recommendation, regime domain.Regime) {
	v := costing.VehicleFromListing(r.Listing)
	b, err := p.calc.CalculateTax(v, regime)
	if err != nil {
		p.log.Warn("cost breakdown unavailable",
			zap.String("listing_id", r.Listing.ID), zap.Error(err))
		return
	}
	r.CostBreakdown = &b
}

func matchesHardFilters(l domain.Listing, f domain.SearchFilters) bool {
	if f.FuelType != "" && f.FuelType != "any" && string(l.FuelType) != f.FuelType {
		return false
	}
	if f.BodyStyle != "" && f.BodyStyle != "any" &&
		!strings.EqualFold(strings.TrimSpace(l.BodyStyle), strings.TrimSpace(f.BodyStyle)) {
		return false
	}
	if f.Condition != "" && f.Condition != "any" && l.Condition() != f.Condition {
		return false
	}
	return true
}
