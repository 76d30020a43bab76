package scoring

// BrandTables are static 1..10 ratings injected into the engine: mechanical
// reliability and local parts availability. Unknown brands get a neutral 6.0.
type BrandTables struct {
	Reliability map[string]float64
	Parts       map[string]float64
}

const unknownBrandRating = 6.0

// DefaultBrandTables is the hand-tuned baseline for the Tunisian market, where
// French-brand parts networks dominate and premium German parts run scarce.
func DefaultBrandTables() BrandTables {
	return BrandTables{
		Reliability: map[string]float64{
			"toyota":     9.5,
			"honda":      9.0,
			"suzuki":     8.5,
			"kia":        8.0,
			"hyundai":    8.0,
			"mercedes":   8.0,
			"volkswagen": 8.0,
			"skoda":      8.0,
			"mazda":      8.5,
			"nissan":     7.5,
			"mitsubishi": 7.5,
			"bmw":        7.5,
			"audi":       7.5,
			"seat":       7.5,
			"peugeot":    7.0,
			"renault":    7.0,
			"dacia":      7.0,
			"ford":       7.0,
			"byd":        7.0,
			"citroen":    6.5,
			"opel":       6.5,
			"fiat":       6.0,
			"mg":         6.0,
			"chery":      5.5,
			"geely":      5.5,
		},
		Parts: map[string]float64{
			"peugeot":    9.0,
			"renault":    9.0,
			"toyota":     9.0,
			"citroen":    8.5,
			"kia":        8.5,
			"hyundai":    8.5,
			"dacia":      8.5,
			"volkswagen": 8.5,
			"fiat":       8.0,
			"suzuki":     8.0,
			"ford":       7.5,
			"skoda":      7.5,
			"seat":       7.5,
			"nissan":     7.5,
			"honda":      7.0,
			"mazda":      7.0,
			"opel":       7.0,
			"mitsubishi": 7.0,
			"mercedes":   7.0,
			"bmw":        6.5,
			"audi":       6.5,
			"chery":      6.0,
			"byd":        5.5,
			"mg":         5.5,
			"geely":      5.0,
		},
	}
}
