package tariff

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultMaxPalletsPerShipment applies when the pallet table does not set one.
const DefaultMaxPalletsPerShipment = 5

// DefaultPalletSizes is offered when the pallet table does not enumerate its sizes.
var DefaultPalletSizes = []string{"MINI", "QUARTER", "HALF", "MEDIUM", "FULL"}

// SelectionMode decides which metric's bracket price wins when several apply.
type SelectionMode string

const (
	SelectMax SelectionMode = "max"
	SelectMin SelectionMode = "min"
)

// SurchargeMeta holds the optional flat fees and rates shared by both tables.
// A nil field means "not configured".
type SurchargeMeta struct {
	LiftgateFee  *float64 `json:"liftgate_fee,omitempty"`
	PreavvisoFee *float64 `json:"preavviso_fee,omitempty"`
	InsurancePct *float64 `json:"insurance_pct,omitempty"`
	KmThreshold  *float64 `json:"km_threshold,omitempty"`
	KmExtraRate  *float64 `json:"km_extra_rate,omitempty"`
	DisagiataFee *float64 `json:"disagiata_fee,omitempty"`
}

// PalletMeta is the metadata block of a PalletRateTable.
type PalletMeta struct {
	SurchargeMeta
	MaxPalletsPerShipment int                `json:"maxPalletsPerShipment,omitempty"`
	PalletTypes           []string           `json:"palletTypes,omitempty"`
	Regions               []string           `json:"regions,omitempty"`
	GLSBaseByRegion       map[string]float64 `json:"gls_base_by_region,omitempty"`
}

// PalletRateTable prices a pallet shipment by region and pallet size.
type PalletRateTable struct {
	Meta  PalletMeta                     `json:"meta"`
	Rates map[string]map[string]*float64 `json:"rates"`
}

// Rate returns the unit price per pallet for region and size.
func (t *PalletRateTable) Rate(region, size string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	bySize, ok := t.Rates[region]
	if !ok {
		return 0, false
	}
	v, ok := bySize[size]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// MaxPerShipment returns the configured pallets per shipment, or the default.
func (t *PalletRateTable) MaxPerShipment() int {
	if t == nil || t.Meta.MaxPalletsPerShipment <= 0 {
		return DefaultMaxPalletsPerShipment
	}
	return t.Meta.MaxPalletsPerShipment
}

// RegionNames returns meta.regions when present, otherwise the sorted rate keys.
func (t *PalletRateTable) RegionNames() []string {
	if t == nil {
		return nil
	}
	if len(t.Meta.Regions) > 0 {
		return append([]string(nil), t.Meta.Regions...)
	}
	out := make([]string, 0, len(t.Rates))
	for r := range t.Rates {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// PalletSizes returns meta.palletTypes when present, otherwise DefaultPalletSizes.
func (t *PalletRateTable) PalletSizes() []string {
	if t == nil || len(t.Meta.PalletTypes) == 0 {
		return append([]string(nil), DefaultPalletSizes...)
	}
	return append([]string(nil), t.Meta.PalletTypes...)
}

// GLSBase returns the flat per-unit base of the alternate service for a region.
func (t *PalletRateTable) GLSBase(region string) (float64, bool) {
	if t == nil || t.Meta.GLSBaseByRegion == nil {
		return 0, false
	}
	v, ok := t.Meta.GLSBaseByRegion[region]
	return v, ok
}

// Validate checks the table is usable.
func (t *PalletRateTable) Validate() error {
	if t == nil {
		return errors.New("pallet table is missing")
	}
	if len(t.Rates) == 0 {
		return errors.New("pallet table has no rates")
	}
	if t.Meta.MaxPalletsPerShipment < 0 {
		return fmt.Errorf("maxPalletsPerShipment must not be negative, got %d", t.Meta.MaxPalletsPerShipment)
	}
	return nil
}

// Bracket is one price band. Min defaults to 0, a nil Max is unbounded.
type Bracket struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Price float64  `json:"price"`
}

// GroupageEntry holds one bracket list per billing metric. A nil list means
// the entry does not price that metric.
type GroupageEntry struct {
	LinearMeters []Bracket `json:"linearMeters,omitempty"`
	Quintali     []Bracket `json:"quintali,omitempty"`
	Pallets      []Bracket `json:"pallets,omitempty"`
}

// GroupageMeta is the metadata block of a GroupageRateTable.
type GroupageMeta struct {
	SurchargeMeta
	SelectionMode SelectionMode `json:"selection_mode,omitempty"`
	LMStep        *float64      `json:"lm_step,omitempty"`
}

// Selection returns the configured mode, defaulting to SelectMax.
func (m GroupageMeta) Selection() SelectionMode {
	if SelectionMode(strings.ToLower(strings.TrimSpace(string(m.SelectionMode)))) == SelectMin {
		return SelectMin
	}
	return SelectMax
}

// Step returns the billed linear meter rounding step, defaulting to 1.
func (m GroupageMeta) Step() float64 {
	if m.LMStep == nil || *m.LMStep <= 0 {
		return 1.0
	}
	return *m.LMStep
}

// GroupageRateTable prices a consolidated load by province.
type GroupageRateTable struct {
	Meta      GroupageMeta  `json:"meta"`
	Provinces ProvinceTable `json:"provinces"`
}

// Validate checks the table is usable.
func (t *GroupageRateTable) Validate() error {
	if t == nil {
		return errors.New("groupage table is missing")
	}
	if t.Provinces.Len() == 0 {
		return errors.New("groupage table has no provinces")
	}
	switch SelectionMode(strings.ToLower(strings.TrimSpace(string(t.Meta.SelectionMode)))) {
	case "", SelectMax, SelectMin:
	default:
		return fmt.Errorf("unknown selection_mode %q", t.Meta.SelectionMode)
	}
	if t.Meta.LMStep != nil && *t.Meta.LMStep <= 0 {
		return fmt.Errorf("lm_step must be positive, got %v", *t.Meta.LMStep)
	}
	return nil
}

// ProvinceTable maps province keys to groupage entries and remembers the
// order keys were inserted in. Group resolution depends on that order.
type ProvinceTable struct {
	keys    []string
	entries map[string]GroupageEntry
}

// Set adds or replaces an entry. A replaced key keeps its original position.
func (t *ProvinceTable) Set(key string, e GroupageEntry) {
	if t.entries == nil {
		t.entries = make(map[string]GroupageEntry)
	}
	if _, ok := t.entries[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = e
}

// Get returns the entry stored under key.
func (t *ProvinceTable) Get(key string) (GroupageEntry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Keys returns the keys in insertion order.
func (t *ProvinceTable) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *ProvinceTable) Len() int { return len(t.keys) }

// UnmarshalJSON decodes a JSON object keeping key order.
func (t *ProvinceTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	*t = ProvinceTable{}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("provinces must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected province key token %v", tok)
		}
		var e GroupageEntry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("province %q: %w", key, err)
		}
		t.Set(key, e)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the table as a JSON object in insertion order.
func (t ProvinceTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		eb, err := json.Marshal(t.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(eb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// GeoMap maps a region name to the province codes it contains.
type GeoMap map[string][]string
