package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/otimizavenda/internal/history"
	"github.com/Simplici0/otimizavenda/internal/metrics"
	"github.com/Simplici0/otimizavenda/internal/pricing"
)

const maxCalculationBody = 1 << 16

// calculationRequest accepts amounts as JSON numbers or numeric strings.
type calculationRequest struct {
	ProductName         string          `json:"product_name"`
	CostPrice           json.RawMessage `json:"cost_price"`
	Taxes               json.RawMessage `json:"taxes"`
	Shipping            json.RawMessage `json:"shipping"`
	TargetMarginPercent json.RawMessage `json:"target_margin_percent"`
}

type calculationView struct {
	ProductName         string      `json:"product_name"`
	CostPrice           json.Number `json:"cost_price"`
	Taxes               json.Number `json:"taxes"`
	Shipping            json.Number `json:"shipping"`
	TargetMarginPercent json.Number `json:"target_margin_percent"`
	TotalCost           json.Number `json:"total_cost"`
	SalePrice           json.Number `json:"sale_price"`
	GrossProfit         json.Number `json:"gross_profit"`
	NetProfit           json.Number `json:"net_profit"`
}

type recordRef struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type recordView struct {
	recordRef
	calculationView
}

type calculateResponse struct {
	Calculation calculationView `json:"calculation"`
	Recorded    bool            `json:"recorded"`
	Record      *recordRef      `json:"record,omitempty"`
	RecordError string          `json:"record_error,omitempty"`
}

type fieldErrorView struct {
	Kind    pricing.Kind `json:"kind"`
	Message string       `json:"message"`
}

type validationResponse struct {
	Detail string                    `json:"detail"`
	Fields map[string]fieldErrorView `json:"fields"`
}

type historyResponse struct {
	Data   []recordView `json:"data"`
	Count  int          `json:"count"`
	Detail string       `json:"detail,omitempty"`
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeCalculationRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, res, err := s.calculateSale(raw)
	if err != nil {
		fields, ok := pricing.Fields(err)
		if !ok {
			writeError(w, http.StatusInternalServerError, "calculation failed")
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, newValidationResponse(fields))
		return
	}

	resp := calculateResponse{Calculation: newCalculationView(in, res)}
	rec, err := s.recordCalculation(r.Context(), in, res)
	if err != nil {
		// The price stays valid; only the history entry is missing.
		resp.RecordError = "calculation was not saved to history, try again later"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Recorded = true
	resp.Record = &recordRef{ID: rec.ID.String(), CreatedAt: rec.CreatedAt}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *server) handleCalculationHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = v
	}

	records, err := s.getRecentCalculations(r.Context(), limit)
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, newRecordView(rec))
	}

	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, historyResponse{
			Data:   views,
			Count:  len(views),
			Detail: "calculation history is unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Data: views, Count: len(views)})
}

// calculateSale validates and prices raw input. It has no side effects.
func (s *server) calculateSale(raw pricing.RawInput) (pricing.Input, pricing.Result, error) {
	in, res, err := pricing.CalculateSale(raw)
	if err != nil {
		s.metrics.Calculation(metrics.OutcomeInvalid)
		log.Debug().Err(err).Str("product_name", raw.ProductName).Msg("calculation rejected")
		return in, res, err
	}
	return in, res, nil
}

// recordCalculation appends a computed result to the history.
func (s *server) recordCalculation(ctx context.Context, in pricing.Input, res pricing.Result) (history.Record, error) {
	rec, err := s.history.Append(ctx, in, res)
	if err != nil {
		s.metrics.Calculation(metrics.OutcomeNotRecorded)
		s.metrics.HistoryFailure("append")
		log.Error().Err(err).Str("product_name", in.ProductName).Msg("failed to record calculation")
		return history.Record{}, err
	}

	s.metrics.Calculation(metrics.OutcomeRecorded)
	log.Info().
		Str("id", rec.ID.String()).
		Str("product_name", in.ProductName).
		Str("sale_price", res.SalePrice.StringFixed(2)).
		Msg("calculation recorded")
	return rec, nil
}

// getRecentCalculations lists history newest first; limit <= 0 means all.
func (s *server) getRecentCalculations(ctx context.Context, limit int) ([]history.Record, error) {
	records, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		s.metrics.HistoryFailure("list")
		log.Error().Err(err).Int("limit", limit).Msg("failed to list calculations")
		return records, err
	}
	return records, nil
}

func decodeCalculationRequest(w http.ResponseWriter, r *http.Request) (pricing.RawInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return pricing.RawInput{}, errors.New("invalid form")
		}
		return pricing.RawInput{
			ProductName:         r.FormValue("product_name"),
			CostPrice:           r.FormValue("cost_price"),
			Taxes:               r.FormValue("taxes"),
			Shipping:            r.FormValue("shipping"),
			TargetMarginPercent: r.FormValue("target_margin_percent"),
		}, nil
	}

	var req calculationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCalculationBody))
	if err := dec.Decode(&req); err != nil {
		return pricing.RawInput{}, fmt.Errorf("invalid JSON: %v", err)
	}

	return pricing.RawInput{
		ProductName:         req.ProductName,
		CostPrice:           amountText(req.CostPrice),
		Taxes:               amountText(req.Taxes),
		Shipping:            amountText(req.Shipping),
		TargetMarginPercent: amountText(req.TargetMarginPercent),
	}, nil
}

// amountText returns the textual form of a JSON amount. Absent and null
// amounts become empty text.
func amountText(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return text
}

// money renders an amount rounded to two fractional digits.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func newCalculationView(in pricing.Input, res pricing.Result) calculationView {
	return calculationView{
		ProductName:         in.ProductName,
		CostPrice:           money(in.CostPrice),
		Taxes:               money(in.Taxes),
		Shipping:            money(in.Shipping),
		TargetMarginPercent: money(in.TargetMarginPercent),
		TotalCost:           money(in.TotalCost()),
		SalePrice:           money(res.SalePrice),
		GrossProfit:         money(res.GrossProfit),
		NetProfit:           money(res.NetProfit),
	}
}

func newRecordView(rec history.Record) recordView {
	return recordView{
		recordRef:       recordRef{ID: rec.ID.String(), CreatedAt: rec.CreatedAt},
		calculationView: newCalculationView(rec.Input, rec.Result),
	}
}

func newValidationResponse(fields pricing.ValidationErrors) validationResponse {
	resp := validationResponse{
		Detail: fields.Error(),
		Fields: make(map[string]fieldErrorView, len(fields)),
	}
	for _, fe := range fields {
		resp.Fields[fe.Field] = fieldErrorView{Kind: fe.Kind, Message: fe.Message}
	}
	return resp
}
