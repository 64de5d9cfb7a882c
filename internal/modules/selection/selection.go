package selection

import (
	"errors"

	"marblehills.com/app/internal/shopify"
)

// Kind tells the submitter how a chosen product entered the box.
type Kind string

const (
	KindIndividual   Kind = "individual"
	KindOneTimeOffer Kind = "one-time-offer"
)

var (
	ErrUnknownProduct = errors.New("product is not in the eligible catalog")
	ErrUnknownVariant = errors.New("variant does not belong to the product")
	ErrOutOfStock     = errors.New("variant is out of stock")
)

type SelectedProduct struct {
	ProductID      int64  `json:"product_id"`
	Title          string `json:"title"`
	Image          string `json:"image,omitempty"`
	VariantID      int64  `json:"variant_id"`
	VariantTitle   string `json:"variant_title,omitempty"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	Kind           Kind   `json:"kind"`
}

// Warning is a transient shopper notice (the UI auto-dismisses it).
type Warning struct {
	Key       string `json:"key"` // message key, resolved via milestones.Config
	ProductID int64  `json:"product_id"`
}

// Selection is the shopper's box under construction. It serializes into the
// session draft; all mutation goes through the methods below.
//
// Invariant: at most one entry per product id, quantity 1 per entry —
// a bigger box means more distinct products, not steppers.
type Selection struct {
	Items []SelectedProduct `json:"items"`

	// variant picked before the product was added; applied on Toggle
	PendingVariants map[int64]int64 `json:"pending_variants,omitempty"`
}

func New() *Selection {
	return &Selection{PendingVariants: map[int64]int64{}}
}

// Count is the distinct selected product count the milestone tiers key on.
func (s *Selection) Count() int { return len(s.Items) }

func (s *Selection) Get(productID int64) (*SelectedProduct, bool) {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// Toggle adds the product to the box, or removes it when already present.
// One control, idempotent per click: two toggles restore the prior state.
func (s *Selection) Toggle(p shopify.Product) (added bool, err error) {
	if _, ok := s.Get(p.ID); ok {
		s.remove(p.ID)
		return false, nil
	}

	v, ok := s.resolveVariant(p)
	if !ok {
		return false, ErrUnknownVariant
	}
	if v.Tracked() && v.Stock() <= 0 {
		return false, ErrOutOfStock
	}

	item := SelectedProduct{
		ProductID:      p.ID,
		Title:          p.Title,
		VariantID:      v.ID,
		VariantTitle:   v.Title,
		UnitPriceCents: v.PriceCents(),
		Quantity:       1,
		Kind:           KindIndividual,
	}
	if len(p.Images) > 0 {
		item.Image = p.Images[0].Src
	}
	s.Items = append(s.Items, item)
	delete(s.PendingVariants, p.ID)
	return true, nil
}

// SetVariant records a variant choice. Before the product is selected it is
// only remembered; after, the price updates immediately and inventory is
// re-evaluated, clamping quantity or removing the item when stock ran out.
func (s *Selection) SetVariant(p shopify.Product, variantID int64) (*Warning, error) {
	v, ok := findVariant(p, variantID)
	if !ok {
		return nil, ErrUnknownVariant
	}

	item, selected := s.Get(p.ID)
	if !selected {
		if s.PendingVariants == nil {
			s.PendingVariants = map[int64]int64{}
		}
		s.PendingVariants[p.ID] = variantID
		return nil, nil
	}

	if v.Tracked() {
		stock := v.Stock()
		if stock <= 0 {
			s.remove(p.ID)
			return &Warning{Key: "stock_removed", ProductID: p.ID}, nil
		}
		if item.Quantity > stock {
			item.VariantID = v.ID
			item.VariantTitle = v.Title
			item.UnitPriceCents = v.PriceCents()
			item.Quantity = stock
			return &Warning{Key: "stock_clamped", ProductID: p.ID}, nil
		}
	}

	item.VariantID = v.ID
	item.VariantTitle = v.Title
	item.UnitPriceCents = v.PriceCents()
	return nil, nil
}

func (s *Selection) remove(productID int64) {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

// Clear drops everything, including remembered variant choices.
func (s *Selection) Clear() {
	s.Items = nil
	s.PendingVariants = map[int64]int64{}
}

// SubtotalCents sums line prices at quantity, before any milestone discount.
func (s *Selection) SubtotalCents() int {
	total := 0
	for _, it := range s.Items {
		total += it.UnitPriceCents * it.Quantity
	}
	return total
}

// resolveVariant picks the variant Toggle should add: the remembered
// pending choice when it still belongs to the product, else the first
// purchasable variant, else the first variant.
func (s *Selection) resolveVariant(p shopify.Product) (shopify.Variant, bool) {
	if pending, ok := s.PendingVariants[p.ID]; ok {
		if v, ok := findVariant(p, pending); ok {
			return v, true
		}
	}
	for _, v := range p.Variants {
		if !v.Tracked() || v.Stock() > 0 {
			return v, true
		}
	}
	if len(p.Variants) > 0 {
		return p.Variants[0], true
	}
	return shopify.Variant{}, false
}

func findVariant(p shopify.Product, variantID int64) (shopify.Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return shopify.Variant{}, false
}
