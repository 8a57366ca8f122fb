package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"shipquote/internal/batch"
	"shipquote/internal/catalog"
	"shipquote/internal/rate"
	"shipquote/internal/store"
	"shipquote/internal/tariff"
)

// maxBodyBytes caps request bodies; a batch of a few thousand rows fits.
const maxBodyBytes = 4 << 20

// ClientPricing is the default client price applied when a request does not
// bring its own.
type ClientPricing struct {
	Mode       rate.ClientMode
	Percentage float64
}

func (c ClientPricing) enabled() bool {
	return c.Percentage > 0 || c.Mode == rate.ClientMargin
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Data         *store.Dataset
	Engine       *rate.Engine
	Catalog      *catalog.Catalog
	Batch        *batch.Runner
	ClientPrice  ClientPricing
	PickCheapest bool
	BatchWorkers int
	Logger       *zap.Logger
}

type Server struct {
	Deps
	normalizer Normalizer
}

// New builds the HTTP handler. Missing collaborators are derived from Data.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Data == nil {
		d.Data = &store.Dataset{}
	}
	if d.Catalog == nil {
		d.Catalog = catalog.New(d.Data.Articles)
	}
	if d.Engine == nil {
		d.Engine = rate.NewEngine(d.Data.Pallet, d.Data.Groupage, d.Logger)
	}
	if d.Batch == nil {
		d.Batch = batch.NewRunner(d.Engine, d.Catalog, d.Logger)
	}
	s := &Server{Deps: d, normalizer: NewNormalizer()}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/meta", s.handleMeta)
	r.Get("/regions/{region}/provinces", s.handleRegionProvinces)
	r.Get("/provinces/{code}", s.handleProvince)
	r.Get("/articles", s.handleArticles)
	r.Post("/quotes", s.handleQuote)
	r.Post("/carts/aggregate", s.handleCartAggregate)
	r.Post("/batch", s.handleBatch)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type MetaResponse struct {
	Regions               []string             `json:"regions"`
	PalletSizes           []string             `json:"pallet_sizes"`
	MaxPalletsPerShipment int                  `json:"max_pallets_per_shipment"`
	SelectionMode         tariff.SelectionMode `json:"selection_mode"`
	LMStep                float64              `json:"lm_step"`
	GroupageKeys          int                  `json:"groupage_keys"`
	Articles              int                  `json:"articles"`
	Services              []rate.Service       `json:"services"`
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	res := MetaResponse{
		Regions:               s.Data.Pallet.RegionNames(),
		PalletSizes:           s.Data.Pallet.PalletSizes(),
		MaxPalletsPerShipment: s.Data.Pallet.MaxPerShipment(),
		Articles:              s.Catalog.Len(),
		Services:              rate.Services,
		LMStep:                s.Engine.GroupageStep(),
		SelectionMode:         tariff.SelectMax,
	}
	if g := s.Data.Groupage; g != nil {
		res.SelectionMode = g.Meta.Selection()
		res.GroupageKeys = g.Provinces.Len()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) provinces() *tariff.ProvinceTable {
	if s.Data.Groupage == nil {
		return nil
	}
	return &s.Data.Groupage.Provinces
}

func (s *Server) handleRegionProvinces(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(chi.URLParam(r, "region"))
	if region == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "region required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region":    region,
		"provinces": tariff.ProvincesForRegion(region, s.Data.Geo, s.provinces()),
	})
}

func (s *Server) handleProvince(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "code required")
		return
	}
	m, ok := tariff.ResolveProvince(code, s.provinces())
	if !ok {
		writeErrorJSON(w, http.StatusNotFound, "province_not_found", "no groupage rate for "+tariff.NormalizeProvince(code))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := catalog.SearchLimit
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, catalog.SearchLimit)
	}
	items := s.Catalog.Search(q.Get("q"), limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}
