package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/seenimoa/fairprice/internal/batch"
	"github.com/seenimoa/fairprice/internal/config"
	"github.com/seenimoa/fairprice/internal/valuation"
	"github.com/seenimoa/fairprice/pkg/models"
	"github.com/seenimoa/fairprice/pkg/utils"
)

// ============================================================
// Request / Response types
// ============================================================

// ParamsRequest carries optional overrides of the configured valuation defaults.
type ParamsRequest struct {
	Metric          string   `json:"metric,omitempty"`
	Multiple        *float64 `json:"multiple,omitempty"          validate:"omitempty,gte=0"`
	SafetyMarginPct *float64 `json:"safety_margin_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ValuationRequest is the body for POST /api/v1/valuation.
type ValuationRequest struct {
	ParamsRequest
	Facts *models.FinancialFacts `json:"facts" validate:"required"`
}

// HistoryRequest is the body for POST /api/v1/valuation/history.
type HistoryRequest struct {
	Points          []models.HistoricalPoint `json:"points"`
	DefaultMultiple *float64                 `json:"default_multiple,omitempty" validate:"omitempty,gt=0"`
}

// BatchRequest is the body for POST /api/v1/valuation/batch.
type BatchRequest struct {
	ParamsRequest
	Symbols    []string `json:"symbols"     validate:"required,min=1,max=200,dive,required"`
	UseHistory bool     `json:"use_history"`
}

// ValuationResponse is returned for every computed valuation.
type ValuationResponse struct {
	ID         string                        `json:"id"`
	Symbol     string                        `json:"symbol,omitempty"`
	Facts      *models.FinancialFacts        `json:"facts,omitempty"`
	Result     valuation.Result              `json:"result"`
	Historical *valuation.HistoricalMultiple `json:"historical,omitempty"`
	Display    map[string]string             `json:"display"`
}

// BatchItem is one entry of a batch response.
type BatchItem struct {
	Input     string             `json:"input"`
	Valuation *ValuationResponse `json:"valuation,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	source := "none"
	if s.src != nil {
		source = s.src.Name()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":     "ok",
			"version":    Version,
			"source":     source,
			"krx_market": utils.MarketStatus(utils.ExchangeKRX, now),
			"us_market":  utils.MarketStatus(utils.ExchangeUS, now),
		},
	})
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	var req ValuationRequest
	if !s.decode(w, r, &req) {
		return
	}
	params, err := s.params(req.ParamsRequest)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := valuation.ComputeFairPrice(*req.Facts, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := s.respond(req.Facts.Symbol, req.Facts, res, nil)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	fallback := s.cfg.Valuation.HistoryFallback()
	if req.DefaultMultiple != nil {
		fallback = *req.DefaultMultiple
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    valuation.HistoricalAverageMultiple(req.Points, fallback),
	})
}

func (s *Server) handleSymbolValuation(w http.ResponseWriter, r *http.Request) {
	if s.src == nil {
		writeError(w, http.StatusServiceUnavailable, "no fact source configured")
		return
	}

	q := r.URL.Query()
	req := ParamsRequest{Metric: q.Get("metric")}
	var err error
	if req.Multiple, err = queryFloat(q, "multiple"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SafetyMarginPct, err = queryFloat(q, "margin"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDomainError(w, validationError(err))
		return
	}
	params, err := s.params(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	useHistory, _ := strconv.ParseBool(q.Get("history"))

	item := batch.One(r.Context(), s.src, chi.URLParam(r, "symbol"), params, s.batchOptions(useHistory))
	if item.Err != nil {
		writeDomainError(w, item.Err)
		return
	}

	resp := s.respond(item.Symbol, item.Facts, *item.Result, item.Historical)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if s.src == nil {
		writeError(w, http.StatusServiceUnavailable, "no fact source configured")
		return
	}

	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	params, err := s.params(req.ParamsRequest)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items, err := batch.Run(r.Context(), s.src, req.Symbols, params, s.batchOptions(req.UseHistory))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]BatchItem, len(items))
	for i, it := range items {
		out[i] = BatchItem{Input: it.Input}
		if it.Err != nil {
			out[i].Error = it.Error
			continue
		}
		out[i].Valuation = s.respond(it.Symbol, it.Facts, *it.Result, it.Historical)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: config.CheckAPIKeys(s.cfg)})
}

// ============================================================
// Internals
// ============================================================

// decode reads and validates a JSON body, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeDomainError(w, validationError(err))
		return false
	}
	return true
}

// params merges request overrides onto the configured defaults.
func (s *Server) params(req ParamsRequest) (valuation.Params, error) {
	p := s.defaults
	if req.Metric != "" {
		m, err := valuation.ParseMetric(req.Metric)
		if err != nil {
			return valuation.Params{}, err
		}
		p.Metric = m
	}
	if req.Multiple != nil {
		p.Multiple = *req.Multiple
	}
	if req.SafetyMarginPct != nil {
		p.SafetyMarginPercent = *req.SafetyMarginPct
	}
	return p, p.Validate()
}

// queryFloat parses an optional numeric query parameter.
func queryFloat(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &v, nil
}

func (s *Server) batchOptions(useHistory bool) batch.Options {
	return batch.Options{
		Concurrency:     s.cfg.Data.Concurrency,
		UseHistory:      useHistory,
		DefaultMultiple: s.cfg.Valuation.HistoryFallback(),
	}
}

// respond builds the response, attaches display strings and broadcasts it.
func (s *Server) respond(symbol string, facts *models.FinancialFacts, res valuation.Result, hm *valuation.HistoricalMultiple) *ValuationResponse {
	resp := &ValuationResponse{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Facts:      facts,
		Result:     res,
		Historical: hm,
		Display: map[string]string{
			"current_price": utils.FormatMoney(res.Currency, res.CurrentPrice),
			"fair_price":    utils.FormatMoney(res.Currency, res.FairPrice),
			"buy_price":     utils.FormatMoney(res.Currency, res.BuyPrice),
			"upside":        utils.FormatPct(res.UpsidePercent),
			"multiple":      utils.FormatMultiple(res.Multiple),
		},
	}
	s.wsHub.Broadcast(WSMessage{Type: "valuation", ID: resp.ID, Data: resp})
	return resp
}

// validationError converts validator failures into the engine's parameter error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &valuation.InvalidParamsError{
			Field:  fe.Field(),
			Value:  fe.Value(),
			Reason: fmt.Sprintf("failed %q rule", fe.Tag()),
		}
	}
	return &valuation.InvalidParamsError{Field: "request", Value: "", Reason: err.Error()}
}
