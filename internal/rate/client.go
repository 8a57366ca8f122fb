package rate

import (
	"strings"

	"shipquote/internal/money"
)

// ClientMode selects how a cost becomes a client-facing price.
type ClientMode string

const (
	ClientMarkup ClientMode = "markup"
	ClientMargin ClientMode = "margin"
)

// ParseClientMode maps a name to a mode. Anything unknown is markup.
func ParseClientMode(name string) ClientMode {
	if ClientMode(strings.ToLower(strings.TrimSpace(name))) == ClientMargin {
		return ClientMargin
	}
	return ClientMarkup
}

// TransformClientPrice converts a cost into a client price.
//
//	markup: cost * (1 + pct/100)
//	margin: cost / (1 - pct/100), only for pct < 100
//
// It returns nil when cost is nil, pct is negative, or a margin is >= 100%.
func TransformClientPrice(cost *float64, mode ClientMode, pct float64) *float64 {
	if cost == nil || pct < 0 {
		return nil
	}
	switch mode {
	case ClientMargin:
		if pct >= 100 {
			return nil
		}
		return money.Ptr(money.Round2(*cost / (1 - pct/100)))
	default:
		return money.Ptr(money.Round2(*cost * (1 + pct/100)))
	}
}
