package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"realestate-scraper/models"
	"realestate-scraper/utils"
)

// PropertyStore owns the relational side of the dual store: structured
// property rows plus their per-property estimate, metrics and expense rows.
type PropertyStore struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// NewPropertyStore connects to PostgreSQL and runs schema migration.
// The database may still be starting up, so the ping is retried.
func NewPropertyStore(dsn string, logger *utils.Logger) (*PropertyStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	var pingErr error
	for attempt := 1; attempt <= 10; attempt++ {
		if pingErr = db.Ping(); pingErr == nil {
			break
		}
		logger.Warn("Postgres not ready (attempt %d/10): %v", attempt, pingErr)
		time.Sleep(2 * time.Second)
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", pingErr)
	}

	s := &PropertyStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	logger.Info("Connected to PostgreSQL")
	return s, nil
}

func (s *PropertyStore) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS properties (
			id SERIAL PRIMARY KEY,
			address VARCHAR(255) NOT NULL,
			city VARCHAR(100) NOT NULL DEFAULT '',
			state VARCHAR(50) NOT NULL DEFAULT '',
			zip VARCHAR(20) NOT NULL DEFAULT '',
			latitude NUMERIC(9,6) NOT NULL DEFAULT 0,
			longitude NUMERIC(9,6) NOT NULL DEFAULT 0,
			price NUMERIC NOT NULL DEFAULT 0,
			bedrooms INTEGER,
			bathrooms NUMERIC(3,1),
			square_footage NUMERIC,
			year_built INTEGER,
			lot_size NUMERIC,
			property_type VARCHAR(100) NOT NULL DEFAULT '',
			hoa_fees NUMERIC NOT NULL DEFAULT 0,
			tax_amount NUMERIC,
			description TEXT NOT NULL DEFAULT '',
			listing_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_city_state ON properties (city, state)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_price ON properties (price)`,
		`CREATE TABLE IF NOT EXISTS rental_estimates (
			id SERIAL PRIMARY KEY,
			property_id INTEGER NOT NULL UNIQUE REFERENCES properties(id) ON DELETE CASCADE,
			estimated_rent NUMERIC NOT NULL,
			estimation_method VARCHAR(50) NOT NULL,
			confidence_score NUMERIC(5,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS investment_metrics (
			id SERIAL PRIMARY KEY,
			property_id INTEGER NOT NULL UNIQUE REFERENCES properties(id) ON DELETE CASCADE,
			rent_to_price_ratio NUMERIC(5,2) NOT NULL DEFAULT 0,
			sqft_to_price_ratio NUMERIC(10,6) NOT NULL DEFAULT 0,
			estimated_monthly_expenses NUMERIC NOT NULL DEFAULT 0,
			cash_flow NUMERIC NOT NULL DEFAULT 0,
			cap_rate NUMERIC(5,2) NOT NULL DEFAULT 0,
			cash_on_cash_return NUMERIC(5,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS property_expenses (
			id SERIAL PRIMARY KEY,
			property_id INTEGER NOT NULL UNIQUE REFERENCES properties(id) ON DELETE CASCADE,
			property_tax NUMERIC NOT NULL DEFAULT 0,
			insurance NUMERIC NOT NULL DEFAULT 0,
			maintenance_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			vacancy_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			property_management_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
			utilities NUMERIC NOT NULL DEFAULT 0,
			hoa NUMERIC NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS neighborhood_data (
			id SERIAL PRIMARY KEY,
			zip VARCHAR(20) NOT NULL UNIQUE,
			city VARCHAR(100) NOT NULL DEFAULT '',
			state VARCHAR(50) NOT NULL DEFAULT '',
			median_home_value NUMERIC,
			median_rent NUMERIC,
			population INTEGER,
			median_income NUMERIC,
			walk_score INTEGER,
			transit_score INTEGER,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertProperty writes one property row in its own transaction and returns
// the generated id. Nothing is written if any step fails.
func (s *PropertyStore) InsertProperty(ctx context.Context, rec *models.PropertyRecord) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO properties (
			address, city, state, zip, latitude, longitude, price,
			bedrooms, bathrooms, square_footage, year_built, lot_size,
			property_type, hoa_fees, tax_amount, description, listing_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id`,
		rec.Address, rec.City, rec.State, rec.Zip, rec.Latitude, rec.Longitude, rec.Price,
		rec.Bedrooms, rec.Bathrooms, rec.SquareFootage, rec.YearBuilt, rec.LotSize,
		rec.PropertyType, rec.HOAFee, rec.TaxAmount, rec.Description, rec.ListingURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert property: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit property: %w", err)
	}

	rec.ID = id
	s.logger.Debug("[postgres] Inserted property %d (%s)", id, rec.Address)
	return id, nil
}

// UpsertEstimate writes the property's rent estimate, replacing any earlier
// one. One estimate row per property.
func (s *PropertyStore) UpsertEstimate(ctx context.Context, propertyID int64, est *models.RentalEstimate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rental_estimates (property_id, estimated_rent, estimation_method, confidence_score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (property_id) DO UPDATE SET
			estimated_rent = EXCLUDED.estimated_rent,
			estimation_method = EXCLUDED.estimation_method,
			confidence_score = EXCLUDED.confidence_score,
			updated_at = NOW()`,
		propertyID, est.EstimatedRent, est.Method, est.ConfidenceScore)
	if err != nil {
		return fmt.Errorf("upsert estimate for property %d: %w", propertyID, err)
	}
	return nil
}

// UpsertMetrics writes the property's investment metrics and the expense
// assumptions they were derived from, atomically.
func (s *PropertyStore) UpsertMetrics(ctx context.Context, propertyID int64, m models.InvestmentMetrics, e models.PropertyExpenses) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO investment_metrics (
			property_id, rent_to_price_ratio, sqft_to_price_ratio,
			estimated_monthly_expenses, cash_flow, cap_rate, cash_on_cash_return
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (property_id) DO UPDATE SET
			rent_to_price_ratio = EXCLUDED.rent_to_price_ratio,
			sqft_to_price_ratio = EXCLUDED.sqft_to_price_ratio,
			estimated_monthly_expenses = EXCLUDED.estimated_monthly_expenses,
			cash_flow = EXCLUDED.cash_flow,
			cap_rate = EXCLUDED.cap_rate,
			cash_on_cash_return = EXCLUDED.cash_on_cash_return,
			updated_at = NOW()`,
		propertyID, m.RentToPriceRatio, m.SqftToPriceRatio,
		m.MonthlyExpenses, m.CashFlow, m.CapRate, m.CashOnCashReturn)
	if err != nil {
		return fmt.Errorf("upsert metrics for property %d: %w", propertyID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO property_expenses (
			property_id, property_tax, insurance, maintenance_percent,
			vacancy_percent, property_management_percent, utilities, hoa
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (property_id) DO UPDATE SET
			property_tax = EXCLUDED.property_tax,
			insurance = EXCLUDED.insurance,
			maintenance_percent = EXCLUDED.maintenance_percent,
			vacancy_percent = EXCLUDED.vacancy_percent,
			property_management_percent = EXCLUDED.property_management_percent,
			utilities = EXCLUDED.utilities,
			hoa = EXCLUDED.hoa,
			updated_at = NOW()`,
		propertyID, e.PropertyTax, e.Insurance, e.MaintenancePercent,
		e.VacancyPercent, e.ManagementPercent, e.Utilities, e.HOA)
	if err != nil {
		return fmt.Errorf("upsert expenses for property %d: %w", propertyID, err)
	}

	return tx.Commit()
}

// FetchInvestmentSummaries joins every property with its estimate and
// metrics. Properties whose downstream writes failed still appear, with nil
// estimate and metrics columns.
func (s *PropertyStore) FetchInvestmentSummaries(ctx context.Context) ([]models.InvestmentSummary, error) {
	var out []models.InvestmentSummary
	err := s.db.SelectContext(ctx, &out, `
		SELECT
			p.id AS property_id,
			p.address,
			p.city,
			p.state,
			p.price,
			re.estimated_rent,
			im.cash_flow,
			im.cap_rate
		FROM properties p
		LEFT JOIN rental_estimates re ON re.property_id = p.id
		LEFT JOIN investment_metrics im ON im.property_id = p.id
		ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("fetch investment summaries: %w", err)
	}
	return out, nil
}

// UpsertNeighborhood writes market context for one zip code.
func (s *PropertyStore) UpsertNeighborhood(ctx context.Context, n *models.NeighborhoodData) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO neighborhood_data (
			zip, city, state, median_home_value, median_rent,
			population, median_income, walk_score, transit_score
		) VALUES (
			:zip, :city, :state, :median_home_value, :median_rent,
			:population, :median_income, :walk_score, :transit_score
		)
		ON CONFLICT (zip) DO UPDATE SET
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			median_home_value = EXCLUDED.median_home_value,
			median_rent = EXCLUDED.median_rent,
			population = EXCLUDED.population,
			median_income = EXCLUDED.median_income,
			walk_score = EXCLUDED.walk_score,
			transit_score = EXCLUDED.transit_score,
			updated_at = NOW()`, n)
	if err != nil {
		return fmt.Errorf("upsert neighborhood %s: %w", n.Zip, err)
	}
	return nil
}

// GetNeighborhood returns the stored market context for a zip code, or
// (nil, nil) when none exists.
func (s *PropertyStore) GetNeighborhood(ctx context.Context, zip string) (*models.NeighborhoodData, error) {
	var n models.NeighborhoodData
	err := s.db.GetContext(ctx, &n, `
		SELECT zip, city, state, median_home_value, median_rent,
		       population, median_income, walk_score, transit_score
		FROM neighborhood_data WHERE zip = $1`, zip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get neighborhood %s: %w", zip, err)
	}
	return &n, nil
}

// Close releases the connection pool.
func (s *PropertyStore) Close() error {
	return s.db.Close()
}
