package seed

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/otimizavenda/internal/catalog"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

var defaultNiches = []catalog.Niche{
	{ID: "1", Name: "Produtos para Pets", Category: "Animais", Demand: "Alta", Competition: "Média", Profitability: "Alta", Trend: "Crescendo", Description: "Mercado em crescimento com foco em bem-estar animal"},
	{ID: "2", Name: "Fitness em Casa", Category: "Saúde", Demand: "Muito Alta", Competition: "Alta", Profitability: "Média", Trend: "Estável", Description: "Equipamentos e acessórios para exercícios domésticos"},
	{ID: "3", Name: "Produtos Sustentáveis", Category: "Eco-friendly", Demand: "Crescendo", Competition: "Baixa", Profitability: "Alta", Trend: "Crescendo", Description: "Produtos ecológicos e sustentáveis para consumo consciente"},
	{ID: "4", Name: "Tech Gadgets", Category: "Tecnologia", Demand: "Alta", Competition: "Muito Alta", Profitability: "Baixa", Trend: "Estável", Description: "Gadgets e acessórios tecnológicos inovadores"},
}

var defaultSuppliers = []catalog.Supplier{
	{ID: "1", Name: "TechSupply Brasil", Category: "Eletrônicos", Location: "São Paulo, SP", Rating: 4.8, MainProducts: []string{"Smartphones", "Fones de Ouvido", "Capas"}, Contact: "contato@techsupply.com.br", MinimumOrder: "R$ 500,00"},
	{ID: "2", Name: "PetWorld Fornecedor", Category: "Pet Shop", Location: "Rio de Janeiro, RJ", Rating: 4.6, MainProducts: []string{"Ração", "Brinquedos", "Acessórios"}, Contact: "vendas@petworld.com.br", MinimumOrder: "R$ 200,00"},
	{ID: "3", Name: "EcoVerde Distribuidora", Category: "Sustentabilidade", Location: "Curitiba, PR", Rating: 4.9, MainProducts: []string{"Produtos Biodegradáveis", "Cosméticos Naturais"}, Contact: "eco@ecoverde.com.br", MinimumOrder: "R$ 300,00"},
}

var defaultTrends = []catalog.Trend{
	{ID: "1", Product: "Air Fryer", Category: "Eletrodomésticos", Growth: "+150%", SearchVolume: "500k/mês", Seasonality: "Baixa", Opportunity: "Alta"},
	{ID: "2", Product: "Plantas Artificiais", Category: "Decoração", Growth: "+80%", SearchVolume: "200k/mês", Seasonality: "Média", Opportunity: "Média"},
	{ID: "3", Product: "Produtos para Home Office", Category: "Trabalho", Growth: "+200%", SearchVolume: "800k/mês", Seasonality: "Baixa", Opportunity: "Muito Alta"},
}

// Run inserts the reference catalog in an idempotent way.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedNiches(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := seedSuppliers(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := seedTrends(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedNiches(tx *sql.Tx, stats *Stats) error {
	for _, n := range defaultNiches {
		result, err := tx.Exec(`
			INSERT INTO niches (id, name, category, demand, competition, profitability, trend, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, n.ID, n.Name, n.Category, n.Demand, n.Competition, n.Profitability, n.Trend, n.Description)
		if err != nil {
			return fmt.Errorf("insert niche %s: %w", n.ID, err)
		}
		if err := countInsert(result, stats); err != nil {
			return fmt.Errorf("insert niche %s: %w", n.ID, err)
		}
	}
	return nil
}

func seedSuppliers(tx *sql.Tx, stats *Stats) error {
	for _, s := range defaultSuppliers {
		products, err := json.Marshal(s.MainProducts)
		if err != nil {
			return fmt.Errorf("encode products of supplier %s: %w", s.ID, err)
		}

		result, err := tx.Exec(`
			INSERT INTO suppliers (id, name, category, location, rating, main_products_json, contact, minimum_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, s.ID, s.Name, s.Category, s.Location, s.Rating, string(products), s.Contact, s.MinimumOrder)
		if err != nil {
			return fmt.Errorf("insert supplier %s: %w", s.ID, err)
		}
		if err := countInsert(result, stats); err != nil {
			return fmt.Errorf("insert supplier %s: %w", s.ID, err)
		}
	}
	return nil
}

func seedTrends(tx *sql.Tx, stats *Stats) error {
	for _, tr := range defaultTrends {
		result, err := tx.Exec(`
			INSERT INTO trends (id, product, category, growth, search_volume, seasonality, opportunity)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, tr.ID, tr.Product, tr.Category, tr.Growth, tr.SearchVolume, tr.Seasonality, tr.Opportunity)
		if err != nil {
			return fmt.Errorf("insert trend %s: %w", tr.ID, err)
		}
		if err := countInsert(result, stats); err != nil {
			return fmt.Errorf("insert trend %s: %w", tr.ID, err)
		}
	}
	return nil
}

func countInsert(result sql.Result, stats *Stats) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	stats.Inserts += int(affected)
	return nil
}
