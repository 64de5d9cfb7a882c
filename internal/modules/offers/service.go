package offers

import (
	"context"
	"log/slog"

	"marblehills.com/app/internal/modules/catalog"
	"marblehills.com/app/internal/shopify"
)

// Offer is a free end-of-wizard add-on. The customer price is always zero;
// OriginalPriceCents exists for the strikethrough display only and must
// never reach a cart line.
type Offer struct {
	ProductID          int64  `json:"product_id"`
	Title              string `json:"title"`
	Image              string `json:"image,omitempty"`
	VariantID          int64  `json:"variant_id"`
	OriginalPriceCents int    `json:"original_price_cents"`

	// Demo marks a placeholder pulled from the general catalog when no
	// promotional-tagged product exists. Shown for layout only.
	Demo bool `json:"demo,omitempty"`
}

type Service struct {
	api catalog.API
	log *slog.Logger
}

func NewService(api catalog.API, l *slog.Logger) *Service {
	return &Service{api: api, log: l}
}

const placeholderLimit = 3

// ListCandidates returns the offers shown at the last wizard step:
// promotional-tagged products, or up to three demo placeholders when the
// shop has tagged none (non-fatal fallback).
func (s *Service) ListCandidates(ctx context.Context) ([]Offer, error) {
	products, err := s.api.Products(ctx, 250)
	if err != nil {
		return nil, err
	}

	var out []Offer
	for _, p := range products {
		if catalog.IsOneTimeOffer(p.Tags) {
			out = append(out, toOffer(p, false))
		}
	}
	if len(out) > 0 {
		return out, nil
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "no_tagged_offers_using_placeholders")
	for _, p := range products {
		if len(out) == placeholderLimit {
			break
		}
		out = append(out, toOffer(p, true))
	}
	return out, nil
}

// HasRealOffers is the flow controller's bypass probe: placeholders do not
// count, only genuinely tagged offers keep the offer step in the wizard.
func (s *Service) HasRealOffers(ctx context.Context) (bool, error) {
	products, err := s.api.Products(ctx, 250)
	if err != nil {
		return false, err
	}
	for _, p := range products {
		if catalog.IsOneTimeOffer(p.Tags) {
			return true, nil
		}
	}
	return false, nil
}

func toOffer(p shopify.Product, demo bool) Offer {
	o := Offer{ProductID: p.ID, Title: p.Title, Demo: demo}
	if len(p.Images) > 0 {
		o.Image = p.Images[0].Src
	}
	if len(p.Variants) > 0 {
		o.VariantID = p.Variants[0].ID
		o.OriginalPriceCents = p.Variants[0].PriceCents()
	}
	return o
}

// PickSet is the shopper's toggled offers. Boolean membership, no
// quantities, gone when the session expires.
type PickSet struct {
	IDs []int64 `json:"ids,omitempty"`
}

func (ps *PickSet) Toggle(productID int64) (selected bool) {
	for i, id := range ps.IDs {
		if id == productID {
			ps.IDs = append(ps.IDs[:i], ps.IDs[i+1:]...)
			return false
		}
	}
	ps.IDs = append(ps.IDs, productID)
	return true
}

func (ps *PickSet) Contains(productID int64) bool {
	for _, id := range ps.IDs {
		if id == productID {
			return true
		}
	}
	return false
}

// Resolve maps the toggled ids back onto the candidate list, dropping ids
// that no longer match a candidate and demo placeholders, which must never
// be mistaken for real inventory.
func Resolve(picks PickSet, candidates []Offer) []Offer {
	var out []Offer
	for _, c := range candidates {
		if c.Demo {
			continue
		}
		if picks.Contains(c.ProductID) {
			out = append(out, c)
		}
	}
	return out
}
