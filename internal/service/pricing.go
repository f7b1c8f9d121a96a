package service

import (
	"context"
	"errors"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"
	"trailerhub-backend/internal/utils"
)

type pricingService struct {
	resources repository.ResourceRepository
	rates     utils.Rates
}

// NewPricingService quotes against the live resource tariff. Zero rates fall
// back to the marketplace defaults.
func NewPricingService(resources repository.ResourceRepository, rates utils.Rates) PricingService {
	if rates.ServiceFeeBps == 0 && rates.PlatformFeeBps == 0 {
		rates = utils.DefaultRates
	}
	return &pricingService{resources: resources, rates: rates}
}

func (s *pricingService) GetQuote(ctx context.Context, resourceID string, r domain.DateRange, opts utils.QuoteOptions) (*domain.PriceQuote, error) {
	if resourceID == "" {
		return nil, domain.NewMissingField("resourceId")
	}
	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewResourceNotFound(resourceID)
		}
		return nil, err
	}
	q := utils.ComputeQuoteWithRates(utils.BuildQuoteInput(res, r, opts), s.rates)
	return &q, nil
}
