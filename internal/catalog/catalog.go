// Package catalog serves the read-only reference datasets sellers browse
// while pricing: market niches, suppliers and trending products.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

type Niche struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Demand        string `json:"demand"`
	Competition   string `json:"competition"`
	Profitability string `json:"profitability"`
	Trend         string `json:"trend"`
	Description   string `json:"description"`
}

type Supplier struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Location     string   `json:"location"`
	Rating       float64  `json:"rating"`
	MainProducts []string `json:"main_products"`
	Contact      string   `json:"contact"`
	MinimumOrder string   `json:"minimum_order"`
}

type Trend struct {
	ID           string `json:"id"`
	Product      string `json:"product"`
	Category     string `json:"category"`
	Growth       string `json:"growth"`
	SearchVolume string `json:"search_volume"`
	Seasonality  string `json:"seasonality"`
	Opportunity  string `json:"opportunity"`
}

// Repository reads the catalog tables.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Niches returns niches whose name or category contains query.
func (r *Repository) Niches(ctx context.Context, query string) ([]Niche, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, demand, competition, profitability, trend, description
		FROM niches
		ORDER BY CAST(id AS INTEGER), id
	`)
	if err != nil {
		return nil, fmt.Errorf("query niches: %w", err)
	}
	defer rows.Close()

	niches := make([]Niche, 0)
	for rows.Next() {
		var n Niche
		if err := rows.Scan(&n.ID, &n.Name, &n.Category, &n.Demand, &n.Competition, &n.Profitability, &n.Trend, &n.Description); err != nil {
			return nil, fmt.Errorf("scan niche: %w", err)
		}
		if Matches(query, n.Name, n.Category) {
			niches = append(niches, n)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate niches: %w", err)
	}

	return niches, nil
}

// Suppliers returns suppliers whose name or category contains query and
// whose location contains location.
func (r *Repository) Suppliers(ctx context.Context, query, location string) ([]Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, location, rating, main_products_json, contact, minimum_order
		FROM suppliers
		ORDER BY CAST(id AS INTEGER), id
	`)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]Supplier, 0)
	for rows.Next() {
		var s Supplier
		var productsJSON string
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Location, &s.Rating, &productsJSON, &s.Contact, &s.MinimumOrder); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		if !Matches(query, s.Name, s.Category) || !Matches(location, s.Location) {
			continue
		}
		if err := json.Unmarshal([]byte(productsJSON), &s.MainProducts); err != nil {
			return nil, fmt.Errorf("decode products of supplier %s: %w", s.ID, err)
		}
		suppliers = append(suppliers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", err)
	}

	return suppliers, nil
}

// Trends returns trends whose product or category contains query.
func (r *Repository) Trends(ctx context.Context, query string) ([]Trend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product, category, growth, search_volume, seasonality, opportunity
		FROM trends
		ORDER BY CAST(id AS INTEGER), id
	`)
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	trends := make([]Trend, 0)
	for rows.Next() {
		var tr Trend
		if err := rows.Scan(&tr.ID, &tr.Product, &tr.Category, &tr.Growth, &tr.SearchVolume, &tr.Seasonality, &tr.Opportunity); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		if Matches(query, tr.Product, tr.Category) {
			trends = append(trends, tr)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trends: %w", err)
	}

	return trends, nil
}

// Matches reports whether any of fields contains query, ignoring case.
// An empty query matches everything.
func Matches(query string, fields ...string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	// cases.Caser is stateful; build one per call.
	fold := cases.Fold()
	needle := fold.String(query)
	for _, f := range fields {
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}
