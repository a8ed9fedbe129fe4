package domain

import (
	"context"
	"strings"
	"time"
)

// Travel option types.
const (
	TravelFlight = "Flight"
	TravelTrain  = "Train"
	TravelBus    = "Bus"
)

// TravelTypes lists the accepted TravelOption types.
var TravelTypes = []string{TravelFlight, TravelTrain, TravelBus}

// TravelOption is static reference data describing a bookable leg.
// AvailableSeats is informational; nothing decrements it.
type TravelOption struct {
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	Source         string    `json:"source"`
	Destination    string    `json:"destination"`
	DepartsAt      time.Time `json:"departsAt"`
	PriceCents     int64     `json:"priceCents"`
	AvailableSeats int       `json:"availableSeats"`
}

// TravelFilter narrows a travel option listing. Empty fields match all.
type TravelFilter struct {
	Type        string
	Source      string
	Destination string
}

// Matches reports whether o satisfies the filter. Comparisons ignore case.
func (f TravelFilter) Matches(o TravelOption) bool {
	if f.Type != "" && !strings.EqualFold(f.Type, o.Type) {
		return false
	}
	if f.Source != "" && !strings.EqualFold(f.Source, o.Source) {
		return false
	}
	if f.Destination != "" && !strings.EqualFold(f.Destination, o.Destination) {
		return false
	}
	return true
}

// TravelOptionRepository is the port for reading travel options.
type TravelOptionRepository interface {
	ListTravelOptions(ctx context.Context, f TravelFilter) ([]TravelOption, error)
}
