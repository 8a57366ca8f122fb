package rate

import (
	"fmt"
	"strconv"
	"strings"

	"shipquote/internal/money"
)

// Summary renders a plain-text quote the operator can paste into an email.
func Summary(req Request, res Result, note string) string {
	var lines []string
	add := func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }

	add("SERVIZIO: %s", req.Service)
	dest := orDefault(req.Region, "—")
	if req.Province != "" {
		dest = req.Province + " / " + dest
	}
	add("DESTINAZIONE: %s", dest)
	if req.Article != nil {
		add("ARTICOLO: %s", req.Article.Label())
	} else {
		add("ARTICOLO: —")
	}
	add("QTA: %d", max(req.Quantity, 1))

	switch req.Service {
	case Pallet:
		add("Bancale: %s", orDefault(req.PalletType, "—"))
	case Groupage:
		add("Groupage: LM=%s | q.li=%s | plt=%s", num(req.LinearMeters), num(req.Quintali), num(req.Pallets))
	}

	var opts []string
	if req.Options.Preavviso {
		opts = append(opts, "preavviso")
	}
	if req.Options.Assicurazione {
		opts = append(opts, "assicurazione")
	}
	if req.Options.Sponda {
		opts = append(opts, "sponda")
	}
	if req.Options.Disagiata {
		opts = append(opts, "disagiata")
	}
	if req.Options.KmExtra > 0 {
		opts = append(opts, "km extra "+num(req.Options.KmExtra))
	}
	if len(opts) == 0 {
		add("OPZIONI: nessuna")
	} else {
		add("OPZIONI: %s", strings.Join(opts, ", "))
	}

	if n := strings.TrimSpace(note); n != "" {
		add("NOTE EXTRA: %s", n)
	}

	add("")
	add("COSTO STIMATO: %s", money.FormatEUR(res.Cost))
	if len(res.Rules) > 0 {
		add("REGOLE: %s", strings.Join(res.Rules, " | "))
	}
	if len(res.Alerts) > 0 {
		add("")
		add("ATTENZIONE:")
		for _, a := range res.Alerts {
			add("- %s", a)
		}
	}
	return strings.Join(lines, "\n")
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
