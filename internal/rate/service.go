package rate

import (
	"errors"
	"fmt"
	"strings"
)

// Service is the closed set of shipment services the engine can price.
type Service string

const (
	Pallet    Service = "PALLET"
	Groupage  Service = "GROUPAGE"
	Alternate Service = "GLS"
)

// Services lists every service in the order batch runs try them.
var Services = []Service{Pallet, Groupage, Alternate}

// ErrUnknownService is returned by ParseService for names outside the closed set.
var ErrUnknownService = errors.New("unknown service")

// ParseService maps a service name to its Service. Matching is
// case-insensitive; "BANCALE" and "PALLET" are the same service.
func ParseService(name string) (Service, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "PALLET", "BANCALE":
		return Pallet, nil
	case "GROUPAGE":
		return Groupage, nil
	case "GLS", "ALTERNATE":
		return Alternate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
}

func (s Service) Valid() bool {
	switch s {
	case Pallet, Groupage, Alternate:
		return true
	default:
		return false
	}
}
