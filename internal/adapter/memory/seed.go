package memory

import (
	"time"

	"travelbuddy/internal/domain"
)

// SeedTravelOptions loads a small catalogue of travel options so a
// memory-backed server has something to browse.
func (db *DB) SeedTravelOptions(now time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	for _, o := range []domain.TravelOption{
		{Type: domain.TravelFlight, Source: "Delhi", Destination: "Mumbai", DepartsAt: day.Add(24*time.Hour + 6*time.Hour), PriceCents: 549900, AvailableSeats: 120},
		{Type: domain.TravelTrain, Source: "Delhi", Destination: "Agra", DepartsAt: day.Add(24*time.Hour + 7*time.Hour), PriceCents: 75000, AvailableSeats: 300},
		{Type: domain.TravelBus, Source: "Pune", Destination: "Goa", DepartsAt: day.Add(48*time.Hour + 21*time.Hour), PriceCents: 120000, AvailableSeats: 40},
		{Type: domain.TravelTrain, Source: "Chennai", Destination: "Bengaluru", DepartsAt: day.Add(72*time.Hour + 5*time.Hour), PriceCents: 65000, AvailableSeats: 250},
		{Type: domain.TravelFlight, Source: "Kolkata", Destination: "Delhi", DepartsAt: day.Add(96*time.Hour + 9*time.Hour), PriceCents: 612500, AvailableSeats: 150},
	} {
		db.AddTravelOption(o)
	}
}
