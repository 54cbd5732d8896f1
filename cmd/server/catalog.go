package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Simplici0/otimizavenda/internal/catalog"
)

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func (s *server) handleNiches(w http.ResponseWriter, r *http.Request) {
	niches, err := s.catalog.Niches(r.Context(), queryParam(r, "q"))
	if err != nil {
		log.Error().Err(err).Msg("failed to load niches")
		writeError(w, http.StatusInternalServerError, "failed to load niches")
		return
	}
	writeJSON(w, http.StatusOK, listResponse[catalog.Niche]{Data: niches, Count: len(niches)})
}

func (s *server) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.catalog.Suppliers(r.Context(), queryParam(r, "q"), queryParam(r, "location"))
	if err != nil {
		log.Error().Err(err).Msg("failed to load suppliers")
		writeError(w, http.StatusInternalServerError, "failed to load suppliers")
		return
	}
	writeJSON(w, http.StatusOK, listResponse[catalog.Supplier]{Data: suppliers, Count: len(suppliers)})
}

func (s *server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := s.catalog.Trends(r.Context(), queryParam(r, "q"))
	if err != nil {
		log.Error().Err(err).Msg("failed to load trends")
		writeError(w, http.StatusInternalServerError, "failed to load trends")
		return
	}
	writeJSON(w, http.StatusOK, listResponse[catalog.Trend]{Data: trends, Count: len(trends)})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := s.db.PingContext(ctx); err != nil {
		dbStatus = "error"
	}

	status := http.StatusOK
	if dbStatus != "connected" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ok": status == http.StatusOK,
		"db": dbStatus,
	})
}

// queryParam reads a query parameter; "categoria" is accepted as a legacy
// alias of "q".
func queryParam(r *http.Request, key string) string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" && key == "q" {
		v = strings.TrimSpace(r.URL.Query().Get("categoria"))
	}
	return v
}
