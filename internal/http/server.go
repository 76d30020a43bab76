package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/maherbs/car-import-advisor/internal/chat"
	"github.com/maherbs/car-import-advisor/internal/costing"
	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/metrics"
	"github.com/maherbs/car-import-advisor/internal/ranking"
	"github.com/maherbs/car-import-advisor/internal/storage"
)

// ListingSource is the candidate-fetch collaborator: a bounded, coarsely
// pre-filtered read of the catalog.
type ListingSource interface {
	ListCandidates(h storage.CandidateHints) ([]domain.Listing, error)
}

// ListingStore is the full catalog surface used by the listings API.
type ListingStore interface {
	ListingSource
	ListListings(limit, offset int) ([]domain.Listing, int, error)
	GetListing(id string) (domain.Listing, bool, error)
	CreateListing(l domain.Listing) (domain.Listing, error)
	DeleteListing(id string) (bool, error)
}

type Server struct {
	Pipeline     *ranking.Pipeline
	Calc         *costing.Calculator
	Store        ListingStore
	Bot          *chat.Bot
	CandidateCap int
	Log          *zap.Logger
	Stamp        func(*domain.Listing)
}

func NewServer(pipeline *ranking.Pipeline, calc *costing.Calculator, store ListingStore, bot *chat.Bot, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Pipeline:     pipeline,
		Calc:         calc,
		Store:        store,
		Bot:          bot,
		CandidateCap: 500,
		Log:          log,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/recommendations", s.handleRecommendations)
	mux.HandleFunc("/tax/calculate", s.handleTaxCalculate)
	mux.HandleFunc("/tax/compare", s.handleTaxCompare)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/listings", s.handleListingsList)
	mux.HandleFunc("/listings/", s.handleListingsGetByID)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/demo", s.handleDemo)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Recommendations ----

type FilterPayload struct {
	FuelType  string  `json:"fuel_type"`
	BodyStyle string  `json:"body_style"`
	Condition string  `json:"condition"`
	BudgetTND float64 `json:"budget_tnd"`
	Regime    string  `json:"regime"`
	Country   string  `json:"country"`
	Source    string  `json:"source"`
}

type RecommendRequest struct {
	Filters              FilterPayload `json:"filters"`
	Limit                int           `json:"limit"`
	Offset               int           `json:"offset"`
	IncludeCostBreakdown bool          `json:"include_cost_breakdown"`
}

type RecommendResponse struct {
	Total           int                     `json:"total"`
	Limit           int                     `json:"limit"`
	Offset          int                     `json:"offset"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// validateFilters rejects unrecognized enum values before the pipeline runs.
func validateFilters(p FilterPayload) (domain.SearchFilters, error) {
	if _, ok := domain.ParseFuelType(p.FuelType); !ok {
		return domain.SearchFilters{}, domain.InvalidFilterError{Field: "fuel_type", Value: p.FuelType}
	}
	switch p.Condition {
	case "", "any", domain.ConditionNew, domain.ConditionUsed:
	default:
		return domain.SearchFilters{}, domain.InvalidFilterError{Field: "condition", Value: p.Condition}
	}
	regime, ok := domain.ParseRegime(p.Regime)
	if !ok {
		return domain.SearchFilters{}, domain.InvalidFilterError{Field: "regime", Value: p.Regime}
	}
	return domain.SearchFilters{
		FuelType:  p.FuelType,
		BodyStyle: p.BodyStyle,
		Condition: p.Condition,
		BudgetTND: p.BudgetTND,
		Regime:    regime,
		Country:   p.Country,
	}, nil
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.HTTPRequests.WithLabelValues("recommendations", "4xx").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}

	filters, err := validateFilters(req.Filters)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues("recommendations", "4xx").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_filter", "detail": err.Error()})
		return
	}

	// Query params override body pagination, both or neither.
	limit, offset := parseLimitOffset(r, req.Limit, req.Offset)
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	candidates, err := s.Store.ListCandidates(storage.CandidateHints{
		Source:    req.Filters.Source,
		Condition: filters.Condition,
		Country:   filters.Country,
		Cap:       s.CandidateCap,
	})
	if err != nil {
		// Upstream failure degrades to an empty result, never a crash.
		s.Log.Error("candidate fetch failed", zap.Error(domain.UpstreamFetchError{Err: err}))
		metrics.HTTPRequests.WithLabelValues("recommendations", "2xx").Inc()
		writeJSON(w, http.StatusOK, RecommendResponse{Limit: limit, Offset: offset, Recommendations: []domain.Recommendation{}})
		return
	}

	start := time.Now()
	result := s.Pipeline.FilterAndRank(candidates, filters, ranking.Options{
		Limit:                limit,
		Offset:               offset,
		IncludeCostBreakdown: req.IncludeCostBreakdown,
	})
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	metrics.HTTPRequests.WithLabelValues("recommendations", "2xx").Inc()

	if result.Recommendations == nil {
		result.Recommendations = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, RecommendResponse{
		Total:           result.Total,
		Limit:           limit,
		Offset:          offset,
		Recommendations: result.Recommendations,
	})
}

// ---- Tax calculator ----

type TaxRequest struct {
	costing.Vehicle
	Regime string `json:"regime"`
}

type TaxCalculateResponse struct {
	Available bool                  `json:"available"`
	Breakdown *domain.CostBreakdown `json:"breakdown,omitempty"`
}

func (s *Server) handleTaxCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TaxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}
	regime, ok := domain.ParseRegime(req.Regime)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_filter", "detail": "regime"})
		return
	}

	b, err := s.Calc.CalculateTax(req.Vehicle, regime)
	if err != nil {
		// Missing price is recoverable: calculation unavailable, not a failure.
		s.Log.Warn("tax calculation unavailable", zap.Error(err))
		metrics.TaxCalculations.WithLabelValues(string(regime), "unavailable").Inc()
		writeJSON(w, http.StatusOK, TaxCalculateResponse{Available: false})
		return
	}
	metrics.TaxCalculations.WithLabelValues(string(regime), "ok").Inc()
	writeJSON(w, http.StatusOK, TaxCalculateResponse{Available: true, Breakdown: &b})
}

type TaxCompareResponse struct {
	Available  bool                     `json:"available"`
	Comparison *domain.RegimeComparison `json:"comparison,omitempty"`
}

func (s *Server) handleTaxCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TaxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}

	cmp, err := s.Calc.CompareRegimes(req.Vehicle)
	if err != nil {
		s.Log.Warn("regime comparison unavailable", zap.Error(err))
		metrics.TaxCalculations.WithLabelValues("compare", "unavailable").Inc()
		writeJSON(w, http.StatusOK, TaxCompareResponse{Available: false})
		return
	}
	metrics.TaxCalculations.WithLabelValues("compare", "ok").Inc()
	writeJSON(w, http.StatusOK, TaxCompareResponse{Available: true, Comparison: &cmp})
}

// ---- Chat ----

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}

	reply := s.Bot.Handle(req.SessionID, req.Message)
	writeJSON(w, http.StatusOK, reply)
}

// ---- Listings API (read-mostly v1) ----

type ListingsListResponse struct {
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Total  int              `json:"total"`
	Items  []domain.Listing `json:"items"`
}

func (s *Server) handleListingsList(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handleListingsCreate(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, offset := parseLimitOffset(r, 20, 0)

	items, total, err := s.Store.ListListings(limit, offset)
	if err != nil {
		s.Log.Error("list listings failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage_failure"})
		return
	}
	if items == nil {
		items = []domain.Listing{}
	}

	writeJSON(w, http.StatusOK, ListingsListResponse{
		Limit:  limit,
		Offset: offset,
		Total:  total,
		Items:  items,
	})
}

func (s *Server) handleListingsGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/listings/"):]
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_id"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		l, found, err := s.Store.GetListing(id)
		if err != nil {
			s.Log.Error("get listing failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage_failure"})
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
			return
		}
		writeJSON(w, http.StatusOK, l)

	case http.MethodDelete:
		deleted, err := s.Store.DeleteListing(id)
		if err != nil {
			s.Log.Error("delete listing failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage_failure"})
			return
		}
		if !deleted {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type CreateListingRequest struct {
	Brand      string  `json:"brand"`
	Model      string  `json:"model"`
	Variant    string  `json:"variant"`
	Year       int     `json:"year"`
	PriceEUR   float64 `json:"price_eur"`
	PriceTND   float64 `json:"price_tnd"`
	FuelType   string  `json:"fuel_type"`
	EngineCC   int     `json:"engine_cc"`
	Mileage    int     `json:"mileage_km"`
	BodyStyle  string  `json:"body_style"`
	Country    string  `json:"country"`
	Source     string  `json:"source"`
	SellerType string  `json:"seller_type"`
}

func (s *Server) handleListingsCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return
	}

	if req.Brand == "" || req.Model == "" || req.Country == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "brand, model and country are required"})
		return
	}
	if req.PriceEUR <= 0 && req.PriceTND <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a price is required"})
		return
	}
	fuel, ok := domain.ParseFuelType(req.FuelType)
	if !ok || fuel == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_filter", "detail": "fuel_type"})
		return
	}

	// Same normalization as the seed loader, so a created listing can never
	// disagree with an ingested one.
	l := domain.Listing{
		Brand:      strings.TrimSpace(req.Brand),
		Model:      strings.TrimSpace(req.Model),
		Variant:    req.Variant,
		Year:       req.Year,
		PriceEUR:   req.PriceEUR,
		PriceTND:   req.PriceTND,
		FuelType:   fuel,
		EngineCC:   req.EngineCC,
		Mileage:    req.Mileage,
		BodyStyle:  strings.ToLower(strings.TrimSpace(req.BodyStyle)),
		Country:    strings.ToLower(strings.TrimSpace(req.Country)),
		Source:     req.Source,
		SellerType: req.SellerType,
	}
	if s.Stamp != nil {
		s.Stamp(&l)
	}

	created, err := s.Store.CreateListing(l)
	if err != nil {
		s.Log.Error("create listing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage_failure"})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func parseLimitOffset(r *http.Request, defLimit, defOffset int) (int, int) {
	q := r.URL.Query()

	limit := defLimit
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defLimit
	}
	// safety cap
	if limit > 200 {
		limit = 200
	}

	offset := defOffset
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = defOffset
	}

	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
