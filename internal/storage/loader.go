package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/maherbs/car-import-advisor/internal/domain"
	"github.com/maherbs/car-import-advisor/internal/eligibility"
)

// LoadListingsFromFile reads the seed listings from a JSON file.
func LoadListingsFromFile(path string) ([]domain.Listing, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listings file: %w", err)
	}

	var listings []domain.Listing
	if err := json.Unmarshal(b, &listings); err != nil {
		return nil, fmt.Errorf("unmarshal listings: %w", err)
	}
	return listings, nil
}

// Normalize cleans up one ingested listing and stamps its eligibility flags
// with the same evaluator the request path uses. Listings without an id get
// one minted here.
func Normalize(l *domain.Listing, elig *eligibility.Evaluator) {
	if l.ID == "" {
		l.ID = "car-" + uuid.NewString()
	}
	l.Brand = strings.TrimSpace(l.Brand)
	l.Model = strings.TrimSpace(l.Model)
	l.BodyStyle = strings.ToLower(strings.TrimSpace(l.BodyStyle))
	l.Country = strings.ToLower(strings.TrimSpace(l.Country))
	if l.FuelType == "" {
		// Unrecognized or absent fuel falls back to the least-informative
		// default rather than failing ingestion.
		l.FuelType = domain.FuelEssence
	}
	elig.Stamp(l)
}

// NormalizeAll applies Normalize to a full seed batch.
func NormalizeAll(listings []domain.Listing, elig *eligibility.Evaluator) {
	for i := range listings {
		Normalize(&listings[i], elig)
	}
}
