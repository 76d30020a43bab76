// Package chat implements the scripted advisor dialogue: a small state machine
// driven by pattern-matched user input, with one flow for import-cost
// questions (backed by the regime comparator) and one for car search (backed
// by the ranking pipeline).
package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maherbs/car-import-advisor/internal/costing"
	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/ranking"
	"github.com/maherbs/car-import-advisor/internal/storage"
)

type State string

const (
	StateStart        State = "start"
	StateCostPrice    State = "cost_price"
	StateCostFuel     State = "cost_fuel"
	StateCostCC       State = "cost_cc"
	StateCostAge      State = "cost_age"
	StateCostOrigin   State = "cost_origin"
	StateSearchBudget State = "search_budget"
	StateSearchFuel   State = "search_fuel"
	StateSearchBody   State = "search_body"
)

// Source is the candidate-fetch collaborator for the search flow.
type Source interface {
	ListCandidates(h storage.CandidateHints) ([]domain.Listing, error)
}

type Reply struct {
	SessionID       string                   `json:"session_id"`
	Reply           string                   `json:"reply"`
	State           State                    `json:"state"`
	Comparison      *domain.RegimeComparison `json:"comparison,omitempty"`
	Recommendations []domain.Recommendation  `json:"recommendations,omitempty"`
}

type session struct {
	state   State
	vehicle costing.Vehicle
	filters domain.SearchFilters
}

type Bot struct {
	mu       sync.Mutex
	sessions map[string]*session

	calc     *costing.Calculator
	pipeline *ranking.Pipeline
	source   Source
	log      *zap.Logger
}

func NewBot(calc *costing.Calculator, pipeline *ranking.Pipeline, source Source, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		sessions: make(map[string]*session),
		calc:     calc,
		pipeline: pipeline,
		source:   source,
		log:      log,
	}
}

var (
	costIntent   = regexp.MustCompile(`(?i)\b(import|tax|taxe|co[uû]t|cost|fcr|douane|d[ée]douan)`)
	searchIntent = regexp.MustCompile(`(?i)\b(cherch|search|find|trouv|achet|buy|recommand|voiture)`)
	numberRe     = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?\s*k?`)
)

// Handle advances one session by one user message.
func (b *Bot) Handle(sessionID, msg string) Reply {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s, ok := b.sessions[sessionID]
	if !ok {
		s = &session{state: StateStart}
		b.sessions[sessionID] = s
	}

	r := b.step(s, strings.TrimSpace(msg))
	if s.state == StateStart {
		// A session back at the start state holds nothing; drop it so the
		// map stays bounded.
		delete(b.sessions, sessionID)
	}
	r.SessionID = sessionID
	r.State = s.state
	return r
}

func (b *Bot) step(s *session, msg string) Reply {
	switch s.state {
	case StateStart:
		switch {
		case costIntent.MatchString(msg):
			s.vehicle = costing.Vehicle{}
			s.state = StateCostPrice
			return Reply{Reply: "D'accord, estimons les taxes d'importation. Quel est le prix du véhicule en EUR ?"}
		case searchIntent.MatchString(msg):
			s.filters = domain.SearchFilters{}
			s.state = StateSearchBudget
			return Reply{Reply: "Très bien, cherchons une voiture. Quel est votre budget total en TND ?"}
		default:
			return Reply{Reply: "Je peux estimer le coût d'importation d'une voiture (« coût d'import ») ou chercher des voitures selon vos critères (« chercher une voiture »)."}
		}

	case StateCostPrice:
		amount, ok := parseAmount(msg)
		if !ok {
			return Reply{Reply: "Je n'ai pas compris le prix. Donnez un montant en EUR, par exemple « 15000 »."}
		}
		s.vehicle.PriceEUR = amount
		s.state = StateCostFuel
		return Reply{Reply: "Quel carburant ? (essence, diesel, hybrid, hybrid_plugin, electric)"}

	case StateCostFuel:
		fuel, ok := parseFuel(msg)
		if !ok {
			return Reply{Reply: "Carburant non reconnu. Choisissez: essence, diesel, hybrid, hybrid_plugin ou electric."}
		}
		s.vehicle.FuelType = fuel
		if fuel == domain.FuelElectric {
			s.state = StateCostAge
			return Reply{Reply: "Quel âge a le véhicule, en années ?"}
		}
		s.state = StateCostCC
		return Reply{Reply: "Quelle est la cylindrée en cc ? (répondez « je ne sais pas » si inconnue)"}

	case StateCostCC:
		if amount, ok := parseAmount(msg); ok {
			s.vehicle.EngineCC = int(amount)
		}
		s.state = StateCostAge
		return Reply{Reply: "Quel âge a le véhicule, en années ?"}

	case StateCostAge:
		amount, ok := parseAmount(msg)
		if !ok {
			return Reply{Reply: "Donnez l'âge en années, par exemple « 3 »."}
		}
		s.vehicle.AgeYears = int(amount)
		s.state = StateCostOrigin
		return Reply{Reply: "De quel pays vient le véhicule ?"}

	case StateCostOrigin:
		s.vehicle.Country = strings.ToLower(msg)
		s.state = StateStart
		cmp, err := b.calc.CompareRegimes(s.vehicle)
		if err != nil {
			b.log.Warn("chat cost estimate unavailable", zap.Error(err))
			return Reply{Reply: "Je ne peux pas calculer sans prix valide. Reprenons: dites « coût d'import » pour recommencer."}
		}
		return Reply{
			Reply:      costSummary(cmp),
			Comparison: &cmp,
		}

	case StateSearchBudget:
		amount, ok := parseAmount(msg)
		if !ok {
			return Reply{Reply: "Je n'ai pas compris le budget. Donnez un montant en TND, par exemple « 90000 »."}
		}
		s.filters.BudgetTND = amount
		s.state = StateSearchFuel
		return Reply{Reply: "Quel carburant préférez-vous ? (essence, diesel, hybrid, hybrid_plugin, electric, ou « peu importe »)"}

	case StateSearchFuel:
		if isAny(msg) {
			s.filters.FuelType = "any"
		} else if fuel, ok := parseFuel(msg); ok {
			s.filters.FuelType = string(fuel)
		} else {
			return Reply{Reply: "Carburant non reconnu. Choisissez un carburant ou répondez « peu importe »."}
		}
		s.state = StateSearchBody
		return Reply{Reply: "Quelle carrosserie ? (citadine, berline, suv, break… ou « peu importe »)"}

	case StateSearchBody:
		if !isAny(msg) {
			s.filters.BodyStyle = strings.ToLower(msg)
		}
		s.state = StateStart
		return b.runSearch(s.filters)
	}

	s.state = StateStart
	return Reply{Reply: "Reprenons du début. Que puis-je faire pour vous ?"}
}

func (b *Bot) runSearch(f domain.SearchFilters) Reply {
	candidates, err := b.source.ListCandidates(storage.CandidateHints{Cap: 500})
	if err != nil {
		b.log.Error("chat candidate fetch failed", zap.Error(domain.UpstreamFetchError{Err: err}))
		return Reply{Reply: "Je n'ai trouvé aucune voiture correspondante pour le moment."}
	}

	result := b.pipeline.FilterAndRank(candidates, f, ranking.Options{Limit: 5})
	if len(result.Recommendations) == 0 {
		return Reply{Reply: "Aucune voiture ne correspond à ces critères. Essayez un budget plus large ou d'autres filtres."}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Voici mes %d meilleures suggestions :\n", len(result.Recommendations))
	for _, rec := range result.Recommendations {
		fmt.Fprintf(&sb, "%d. %s %s (%d) — score %.1f (%s), total estimé %.0f TND\n",
			rec.Rank, rec.Listing.Brand, rec.Listing.Model, rec.Listing.Year,
			rec.Score, rec.Strength, rec.EstimatedTotalTND)
	}
	return Reply{Reply: sb.String(), Recommendations: result.Recommendations}
}

func costSummary(cmp domain.RegimeComparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Régime standard : %d TND tout compris.\n", cmp.Standard.FinalPrice)
	if cmp.FCR != nil {
		fmt.Fprintf(&sb, "Régime FCR : %d TND.\n", cmp.FCR.FinalPrice)
	}
	if cmp.RS != nil {
		fmt.Fprintf(&sb, "Régime RS : %d TND.\n", cmp.RS.FinalPrice)
	}
	if cmp.Recommended != domain.RegimeStandard {
		fmt.Fprintf(&sb, "Le régime %s est le plus avantageux : vous économisez %d TND.",
			strings.ToUpper(string(cmp.Recommended)), cmp.SavingsTND)
	} else {
		sb.WriteString("Aucun régime préférentiel ne fait mieux que le régime standard ici.")
	}
	return sb.String()
}

func parseAmount(msg string) (float64, bool) {
	m := numberRe.FindString(strings.ToLower(msg))
	if m == "" {
		return 0, false
	}
	mult := 1.0
	if strings.HasSuffix(strings.TrimSpace(m), "k") {
		mult = 1000
		m = strings.TrimSuffix(strings.TrimSpace(m), "k")
	}
	m = strings.ReplaceAll(strings.TrimSpace(m), ",", ".")
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

func parseFuel(msg string) (domain.FuelType, bool) {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "hybrid_plugin") || strings.Contains(m, "rechargeable") || strings.Contains(m, "plug"):
		return domain.FuelHybridPlugin, true
	case strings.Contains(m, "hybrid"):
		return domain.FuelHybrid, true
	case strings.Contains(m, "electr"):
		return domain.FuelElectric, true
	case strings.Contains(m, "diesel") || strings.Contains(m, "gasoil"):
		return domain.FuelDiesel, true
	case strings.Contains(m, "essence"):
		return domain.FuelEssence, true
	}
	return "", false
}

func isAny(msg string) bool {
	m := strings.ToLower(msg)
	return m == "" || strings.Contains(m, "peu importe") || strings.Contains(m, "any") ||
		strings.Contains(m, "indiff") || strings.Contains(m, "n'importe")
}
