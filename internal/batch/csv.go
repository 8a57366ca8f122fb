package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"shipquote/internal/money"
)

// Input columns, matched case-insensitively. Unknown columns are carried
// through to the output untouched.
const (
	colCode          = "code"
	colService       = "service"
	colRegion        = "region"
	colProvince      = "province"
	colPalletType    = "pallet_type"
	colQty           = "qty"
	colLM            = "lm"
	colQuintali      = "quintali"
	colPallets       = "pallets"
	colPreavviso     = "preavviso"
	colAssicurazione = "assicurazione"
	colSponda        = "sponda"
	colDisagiata     = "disagiata"
	colKmExtra       = "km_extra"
)

var errNotFinite = errors.New("not a finite number")

// OutputColumns are appended to every row on write.
var OutputColumns = []string{"out_service", "out_cost", "out_price", "out_rules", "out_alerts"}

// Table is a decoded CSV: the original header and cells plus parsed rows.
type Table struct {
	Header []string
	Cells  [][]string
	Rows   []Row
}

// ReadCSV decodes a header-driven CSV. Cells that fail to parse do not stop
// the read; the problem travels with the row and shows up in its alerts.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := idx[colCode]; !ok {
		return nil, fmt.Errorf("csv header has no %q column", colCode)
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		t.Cells = append(t.Cells, rec)
		t.Rows = append(t.Rows, parseRecord(rec, idx))
	}
	return t, nil
}

func parseRecord(rec []string, idx map[string]int) Row {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	var row Row
	num := func(col string) float64 {
		v, err := parseNumber(get(col))
		if err != nil {
			row.Problems = append(row.Problems, fmt.Sprintf("Valore non valido per %s: %q.", col, get(col)))
		}
		return v
	}

	row.Code = get(colCode)
	row.Service = get(colService)
	row.Region = get(colRegion)
	row.Province = get(colProvince)
	row.PalletType = get(colPalletType)
	row.Quantity = int(num(colQty))
	row.LinearMeters = num(colLM)
	row.Quintali = num(colQuintali)
	row.Pallets = num(colPallets)
	row.Options.Preavviso = parseFlag(get(colPreavviso))
	row.Options.Assicurazione = parseFlag(get(colAssicurazione))
	row.Options.Sponda = parseFlag(get(colSponda))
	row.Options.Disagiata = parseFlag(get(colDisagiata))
	row.Options.KmExtra = num(colKmExtra)
	return row
}

// parseNumber accepts both "1.5" and "1,5". Empty is zero. NaN and the
// infinities are rejected.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "x", "y", "yes", "true", "si", "sì", "s":
		return true
	default:
		return false
	}
}

// WriteCSV writes the original table with OutputColumns appended.
// outputs must be index-aligned with t.Rows.
func WriteCSV(w io.Writer, t *Table, outputs []Output) error {
	if len(outputs) != len(t.Cells) {
		return fmt.Errorf("have %d outputs for %d rows", len(outputs), len(t.Cells))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), t.Header...), OutputColumns...)); err != nil {
		return err
	}
	for i, o := range outputs {
		rec := append([]string(nil), t.Cells[i]...)
		for len(rec) < len(t.Header) {
			rec = append(rec, "")
		}
		rec = append(rec, o.Service, money.FormatPlain(o.Cost), o.Price, o.Rules, o.Alerts)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
