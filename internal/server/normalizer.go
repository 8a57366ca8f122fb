package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"shipquote/internal/rate"
)

// QuoteRequest is a pricing call as received over HTTP, before the article
// is looked up and the service parsed.
type QuoteRequest struct {
	Service      string              `json:"service"`
	Region       string              `json:"region,omitempty"`
	Province     string              `json:"province,omitempty"`
	PalletType   string              `json:"pallet_type,omitempty"`
	Quantity     int                 `json:"qty,omitempty"`
	LinearMeters float64             `json:"lm,omitempty"`
	Quintali     float64             `json:"quintali,omitempty"`
	Pallets      float64             `json:"pallets,omitempty"`
	Options      rate.Options        `json:"options"`
	ArticleID    string              `json:"article_id,omitempty"`
	ArticleCode  string              `json:"article_code,omitempty"`
	Note         string              `json:"note,omitempty"`
	ClientPrice  *ClientPriceRequest `json:"client_price,omitempty"`
}

type ClientPriceRequest struct {
	Mode       string  `json:"mode"`
	Percentage float64 `json:"pct"`
}

var (
	// ErrMissingService is returned when a payload names no service at all.
	ErrMissingService = errors.New("missing service")
	// ErrInvalidNumber is returned when a numeric field is NaN or infinite.
	ErrInvalidNumber = errors.New("invalid number")
)

// Normalizer maps loosely shaped quote payloads into a QuoteRequest.
type Normalizer interface {
	Normalize(body []byte) (QuoteRequest, error)
}

func NewNormalizer() Normalizer { return &DefaultNormalizer{} }

// DefaultNormalizer accepts the canonical field names plus the Italian ones
// used by the operators' spreadsheets, flat or nested.
type DefaultNormalizer struct{}

func (n *DefaultNormalizer) Normalize(body []byte) (QuoteRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return QuoteRequest{}, err
	}

	qty := getFloat(payload, []string{"qty", "quantity", "quantita", "quantità"})
	req := QuoteRequest{
		Service:      getString(payload, []string{"service", "servizio", "shipment.service"}),
		Region:       getString(payload, []string{"region", "regione", "destination.region"}),
		Province:     getString(payload, []string{"province", "provincia", "destination.province"}),
		PalletType:   getString(payload, []string{"pallet_type", "palletType", "bancale", "pallet.type"}),
		LinearMeters: getFloat(payload, []string{"lm", "linear_meters", "metri_lineari", "groupage.lm"}),
		Quintali:     getFloat(payload, []string{"quintali", "groupage.quintali"}),
		Pallets:      getFloat(payload, []string{"pallets", "n_bancali", "groupage.pallets"}),
		Options: rate.Options{
			Preavviso:     getBool(payload, []string{"options.preavviso", "preavviso"}),
			Assicurazione: getBool(payload, []string{"options.assicurazione", "assicurazione"}),
			Sponda:        getBool(payload, []string{"options.sponda", "sponda"}),
			Disagiata:     getBool(payload, []string{"options.disagiata", "disagiata"}),
			KmExtra:       getFloat(payload, []string{"options.km_extra", "km_extra"}),
		},
		ArticleID:   getString(payload, []string{"article_id", "article.id"}),
		ArticleCode: getString(payload, []string{"article_code", "code", "codice", "article.code"}),
		Note:        getString(payload, []string{"note", "note_extra"}),
	}
	if v := getAny(payload, []string{"client_price"}); v != nil {
		req.ClientPrice = &ClientPriceRequest{
			Mode:       getString(payload, []string{"client_price.mode"}),
			Percentage: getFloat(payload, []string{"client_price.pct", "client_price.percentage"}),
		}
	}
	if strings.TrimSpace(req.Service) == "" {
		return req, ErrMissingService
	}
	numbers := map[string]float64{
		"qty":      qty,
		"lm":       req.LinearMeters,
		"quintali": req.Quintali,
		"pallets":  req.Pallets,
		"km_extra": req.Options.KmExtra,
	}
	if req.ClientPrice != nil {
		numbers["client_price.pct"] = req.ClientPrice.Percentage
	}
	for name, v := range numbers {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return req, fmt.Errorf("%w: %s", ErrInvalidNumber, name)
		}
	}
	req.Quantity = int(qty)
	return req, nil
}

// getString returns the first non-empty string from the candidate keys.
// Supports dot-path navigation for nested maps.
func getString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// getFloat returns the first numeric value from the candidate keys. Numeric
// strings count, with either decimal separator.
func getFloat(m map[string]any, keys []string) float64 {
	for _, k := range keys {
		v := getPath(m, k)
		if f, ok := toFloat(v); ok {
			return f
		}
		if s, ok := v.(string); ok {
			if f, err := parseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ".")); err == nil {
				return f
			}
		}
	}
	return 0
}

func getBool(m map[string]any, keys []string) bool {
	for _, k := range keys {
		switch t := getPath(m, k).(type) {
		case bool:
			return t
		case json.Number:
			return t.String() != "0"
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "1", "true", "si", "sì", "yes", "x":
				return true
			case "":
				continue
			default:
				return false
			}
		}
	}
	return false
}

// getAny returns the first non-nil value from the candidate keys.
func getAny(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			return v
		}
	}
	return nil
}

// getPath navigates a dot-separated key into nested maps.
func getPath(m map[string]any, path string) any {
	var cur any = m
	for _, p := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
