package storage

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/maherbs/car-import-advisor/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  brand TEXT NOT NULL,
  model TEXT NOT NULL,
  variant TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL,
  price_eur REAL NOT NULL DEFAULT 0,
  price_tnd REAL NOT NULL DEFAULT 0,
  fuel_type TEXT NOT NULL,
  engine_cc INTEGER NOT NULL DEFAULT 0,
  mileage_km INTEGER NOT NULL DEFAULT 0,
  body_style TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT '',
  seller_type TEXT NOT NULL DEFAULT '',
  fcr_eligible INTEGER NOT NULL DEFAULT 0,
  rs_eligible INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := s.db.Exec(createTable); err != nil {
		return err
	}

	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_listings_country ON listings(country);`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_listings_fuel ON listings(fuel_type);`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_listings_price_tnd ON listings(price_tnd);`); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) CountListings() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

const listingColumns = `id, brand, model, variant, year, price_eur, price_tnd, fuel_type,
engine_cc, mileage_km, body_style, country, source, seller_type, fcr_eligible, rs_eligible`

// UpsertMany inserts the seed dataset without duplicating by id.
func (s *SQLiteStore) UpsertMany(items []domain.Listing) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT OR IGNORE INTO listings
(` + listingColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range items {
		if _, err := stmt.Exec(
			l.ID, l.Brand, l.Model, l.Variant, l.Year, l.PriceEUR, l.PriceTND,
			string(l.FuelType), l.EngineCC, l.Mileage, l.BodyStyle, l.Country,
			l.Source, l.SellerType, boolToInt(l.FCREligible), boolToInt(l.RSEligible),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateListing(l domain.Listing) (domain.Listing, error) {
	if l.ID == "" {
		l.ID = "car-" + uuid.NewString()
	}
	_, err := s.db.Exec(`
INSERT INTO listings
(`+listingColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		l.ID, l.Brand, l.Model, l.Variant, l.Year, l.PriceEUR, l.PriceTND,
		string(l.FuelType), l.EngineCC, l.Mileage, l.BodyStyle, l.Country,
		l.Source, l.SellerType, boolToInt(l.FCREligible), boolToInt(l.RSEligible),
	)
	return l, err
}

func (s *SQLiteStore) DeleteListing(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (s *SQLiteStore) GetListing(id string) (domain.Listing, bool, error) {
	row := s.db.QueryRow(`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return domain.Listing{}, false, nil
	}
	if err != nil {
		return domain.Listing{}, false, err
	}
	return l, true, nil
}

// CandidateHints is the coarse pre-filter applied in SQL before the in-process
// pipeline runs. The pipeline must not assume the result is fully filtered.
type CandidateHints struct {
	Source    string
	Condition string
	Country   string
	Cap       int
}

// ListCandidates fetches a bounded candidate set for one recommendation
// request.
func (s *SQLiteStore) ListCandidates(h CandidateHints) ([]domain.Listing, error) {
	if h.Cap <= 0 {
		h.Cap = 500
	}

	where := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if strings.TrimSpace(h.Source) != "" {
		where = append(where, "source = ?")
		args = append(args, h.Source)
	}
	if strings.TrimSpace(h.Country) != "" {
		where = append(where, "LOWER(country) = LOWER(?)")
		args = append(args, h.Country)
	}
	switch h.Condition {
	case domain.ConditionNew:
		where = append(where, "mileage_km = 0")
	case domain.ConditionUsed:
		where = append(where, "mileage_km > 0")
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.Query(
		`SELECT `+listingColumns+` FROM listings `+whereSQL+` ORDER BY id LIMIT ?`,
		append(args, h.Cap)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListListings pages through the catalog for the read-only listings API.
func (s *SQLiteStore) ListListings(limit, offset int) ([]domain.Listing, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.CountListings()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(
		`SELECT `+listingColumns+` FROM listings ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(r rowScanner) (domain.Listing, error) {
	var l domain.Listing
	var fuel string
	var fcr, rs int
	err := r.Scan(
		&l.ID, &l.Brand, &l.Model, &l.Variant, &l.Year, &l.PriceEUR, &l.PriceTND,
		&fuel, &l.EngineCC, &l.Mileage, &l.BodyStyle, &l.Country,
		&l.Source, &l.SellerType, &fcr, &rs,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	l.FuelType = domain.FuelType(fuel)
	l.FCREligible = fcr != 0
	l.RSEligible = rs != 0
	return l, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
