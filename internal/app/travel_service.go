package app

import (
	"context"
	"sort"
	"strings"

	"travelbuddy/internal/domain"
)

// TravelService lists travel options for browsing.
type TravelService struct {
	repo domain.TravelOptionRepository
}

// NewTravelService creates a TravelService backed by the given repository.
func NewTravelService(repo domain.TravelOptionRepository) *TravelService {
	return &TravelService{repo: repo}
}

// Search returns the options matching f, earliest departure first. An
// unknown type yields no options rather than an error.
func (s *TravelService) Search(ctx context.Context, f domain.TravelFilter) ([]domain.TravelOption, error) {
	f.Type = strings.TrimSpace(f.Type)
	f.Source = strings.TrimSpace(f.Source)
	f.Destination = strings.TrimSpace(f.Destination)

	opts, err := s.repo.ListTravelOptions(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].DepartsAt.Before(opts[j].DepartsAt)
	})
	return opts, nil
}
