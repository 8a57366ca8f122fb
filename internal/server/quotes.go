package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipquote/internal/batch"
	"shipquote/internal/cart"
	"shipquote/internal/catalog"
	"shipquote/internal/money"
	"shipquote/internal/rate"
)

// maxBatchRows bounds a single POST /batch.
const maxBatchRows = 5000

type ClientPriceResponse struct {
	Mode       rate.ClientMode `json:"mode"`
	Percentage float64         `json:"pct"`
	Amount     *float64        `json:"amount"`
	Label      string          `json:"label"`
}

type QuoteResponse struct {
	Request     rate.Request         `json:"request"`
	Article     *catalog.Article     `json:"article,omitempty"`
	Result      rate.Result          `json:"result"`
	CostLabel   string               `json:"cost_label"`
	ClientPrice *ClientPriceResponse `json:"client_price,omitempty"`
	Summary     string               `json:"summary"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "read_error", "read error")
		return
	}
	in, err := s.normalizer.Normalize(body)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingService):
			writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "service required")
		case errors.Is(err, ErrInvalidNumber):
			writeErrorJSON(w, http.StatusBadRequest, "invalid_number", err.Error())
		default:
			writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		}
		return
	}
	svc, err := rate.ParseService(in.Service)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "unknown_service", err.Error())
		return
	}

	var art *catalog.Article
	switch {
	case in.ArticleID != "":
		a, ok := s.Catalog.ByID(in.ArticleID)
		if !ok {
			writeErrorJSON(w, http.StatusNotFound, "article_not_found", "article not found")
			return
		}
		art = a
	case in.ArticleCode != "":
		a, ok := s.Catalog.ByCode(in.ArticleCode)
		if !ok {
			writeErrorJSON(w, http.StatusNotFound, "article_not_found", "article not found")
			return
		}
		art = a
	}

	req := rate.Request{
		Service:      svc,
		Region:       in.Region,
		Province:     in.Province,
		PalletType:   strings.ToUpper(in.PalletType),
		Quantity:     in.Quantity,
		LinearMeters: in.LinearMeters,
		Quintali:     in.Quintali,
		Pallets:      in.Pallets,
		Options:      in.Options,
		Article:      art,
	}
	req = s.Engine.FillFromArticle(req)

	res := s.Engine.PriceShipment(req)
	cp := s.ClientPrice
	if in.ClientPrice != nil {
		cp = ClientPricing{Mode: rate.ParseClientMode(in.ClientPrice.Mode), Percentage: in.ClientPrice.Percentage}
	}
	writeJSON(w, http.StatusOK, QuoteResponse{
		Request:     req,
		Article:     art,
		Result:      res,
		CostLabel:   money.FormatEUR(res.Cost),
		ClientPrice: clientPrice(res.Cost, cp),
		Summary:     rate.Summary(req, res, in.Note),
	})
}

func clientPrice(cost *float64, cp ClientPricing) *ClientPriceResponse {
	if !cp.enabled() {
		return nil
	}
	amount := rate.TransformClientPrice(cost, cp.Mode, cp.Percentage)
	return &ClientPriceResponse{
		Mode:       cp.Mode,
		Percentage: cp.Percentage,
		Amount:     amount,
		Label:      money.FormatEUR(amount),
	}
}

type CartItemRequest struct {
	ArticleID string `json:"article_id"`
	Code      string `json:"code"`
	Quantity  int    `json:"qty"`
	Stackable *bool  `json:"stackable,omitempty"`
}

type CartRequest struct {
	Items    []CartItemRequest `json:"items"`
	BaseID   string            `json:"base_id"`
	Province string            `json:"province"`
	Options  rate.Options      `json:"options"`
	Note     string            `json:"note"`
}

type CartQuote struct {
	Request   rate.Request `json:"request"`
	Result    rate.Result  `json:"result"`
	CostLabel string       `json:"cost_label"`
	Summary   string       `json:"summary"`
}

type CartResponse struct {
	Items     []cart.Item    `json:"items"`
	BaseID    string         `json:"base_id"`
	Aggregate cart.Aggregate `json:"aggregate"`
	Quote     *CartQuote     `json:"quote,omitempty"`
}

func (s *Server) handleCartAggregate(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if len(req.Items) == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "items required")
		return
	}

	var c cart.Cart
	for _, it := range req.Items {
		a, ok := s.Catalog.ByID(it.ArticleID)
		if !ok && it.Code != "" {
			a, ok = s.Catalog.ByCode(it.Code)
		}
		if !ok {
			writeErrorJSON(w, http.StatusNotFound, "article_not_found", "article not found: "+orDefault(it.ArticleID, it.Code))
			return
		}
		if err := c.Add(a, it.Quantity); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_quantity", err.Error())
			return
		}
		if it.Stackable != nil {
			if err := c.SetStackable(a.ID, *it.Stackable); err != nil {
				writeErrorJSON(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
		}
	}
	if req.BaseID != "" {
		if err := c.SetBase(req.BaseID); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "base_id is not in the cart")
			return
		}
	}

	agg := cart.AggregateCart(&c, s.Engine.GroupageStep())
	resp := CartResponse{Items: c.Items(), BaseID: c.BaseID(), Aggregate: agg}
	if strings.TrimSpace(req.Province) != "" {
		base, _ := c.Base()
		var others []*catalog.Article
		for _, it := range c.Items() {
			if it.Article.ID != base.Article.ID {
				others = append(others, it.Article)
			}
		}
		q := rate.Request{
			Service:      rate.Groupage,
			Province:     req.Province,
			Quantity:     1,
			LinearMeters: agg.LinearMetersBilled,
			Quintali:     agg.QuintaliTotal,
			Pallets:      agg.PalletsTotal,
			Options:      req.Options,
			Article:      base.Article,
			Companions:   others,
		}
		res := s.Engine.PriceShipment(q)
		resp.Quote = &CartQuote{
			Request:   q,
			Result:    res,
			CostLabel: money.FormatEUR(res.Cost),
			Summary:   rate.Summary(q, res, req.Note),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type BatchOptionsRequest struct {
	PickCheapest *bool    `json:"pick_cheapest,omitempty"`
	ClientMode   string   `json:"client_mode,omitempty"`
	ClientPct    *float64 `json:"client_pct,omitempty"`
}

type BatchRequest struct {
	Rows    []batch.Row          `json:"rows"`
	Options *BatchOptionsRequest `json:"options,omitempty"`
}

type BatchResponse struct {
	BatchID string         `json:"batch_id"`
	Count   int            `json:"count"`
	Priced  int            `json:"priced"`
	Rows    []batch.Output `json:"rows"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if len(req.Rows) == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "rows required")
		return
	}
	if len(req.Rows) > maxBatchRows {
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, "too_many_rows", "too many rows")
		return
	}

	opts := batch.Options{
		PickCheapest: s.PickCheapest,
		ClientMode:   s.ClientPrice.Mode,
		ClientPct:    s.ClientPrice.Percentage,
		Workers:      s.BatchWorkers,
	}
	if o := req.Options; o != nil {
		if o.PickCheapest != nil {
			opts.PickCheapest = *o.PickCheapest
		}
		if o.ClientMode != "" {
			opts.ClientMode = rate.ParseClientMode(o.ClientMode)
		}
		if o.ClientPct != nil {
			opts.ClientPct = *o.ClientPct
		}
	}

	id := uuid.New().String()
	out, err := s.Batch.Run(r.Context(), req.Rows, opts)
	if err != nil {
		s.Logger.Warn("batch aborted", zap.String("batch_id", id), zap.Error(err))
		writeErrorJSON(w, http.StatusServiceUnavailable, "batch_aborted", "batch aborted")
		return
	}
	priced := 0
	for _, o := range out {
		if o.Priced() {
			priced++
		}
	}
	writeJSON(w, http.StatusOK, BatchResponse{BatchID: id, Count: len(out), Priced: priced, Rows: out})
}

func orDefault(s, d string) string {
	if strings.TrimSpace(s) == "" {
		return d
	}
	return s
}
