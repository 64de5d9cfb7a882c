package view

import (
	"marblehills.com/app/internal/modules/catalog"
	"marblehills.com/app/internal/modules/flow"
	"marblehills.com/app/internal/modules/milestones"
	"marblehills.com/app/internal/modules/offers"
	"marblehills.com/app/internal/modules/selection"
	"marblehills.com/app/internal/shared/money"
	"marblehills.com/app/internal/shopify"
)

// BuilderState is the full wizard snapshot the theme extension renders.
type BuilderState struct {
	Step            string     `json:"step"`
	Categories      []Category `json:"categories"`
	DefaultCategory string     `json:"default_category,omitempty"`

	Selection SelectionSummary `json:"selection"`

	Frequency   string   `json:"frequency,omitempty"`
	Frequencies []string `json:"frequencies,omitempty"`

	Offers []OfferVM `json:"offers,omitempty"`

	Warnings []selection.Warning `json:"warnings,omitempty"`
	Messages map[string]string   `json:"messages,omitempty"`
}

type Category struct {
	Key      string      `json:"key"`
	Title    string      `json:"title"`
	Products []ProductVM `json:"products"`
}

type ProductVM struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Image       string      `json:"image,omitempty"`
	Description string      `json:"description,omitempty"`
	Variants    []VariantVM `json:"variants"`

	Selected        bool  `json:"selected"`
	SelectedVariant int64 `json:"selected_variant,omitempty"`
}

type VariantVM struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PriceCents int    `json:"price_cents"`
	Price      string `json:"price"`
	Available  bool   `json:"available"`
	// false disables the add control and hides quantity UI
	Purchasable bool `json:"purchasable"`
}

type SelectionSummary struct {
	Count         int     `json:"count"`
	MinCount      int     `json:"min_count"`
	CanProceed    bool    `json:"can_proceed"`
	Percent       int     `json:"discount_percent"`
	NextThreshold *int    `json:"next_threshold,omitempty"`
	Progress      float64 `json:"progress"`

	SubtotalCents int    `json:"subtotal_cents"`
	Subtotal      string `json:"subtotal"`

	Items []selection.SelectedProduct `json:"items"`
}

type OfferVM struct {
	ProductID     int64  `json:"product_id"`
	Title         string `json:"title"`
	Image         string `json:"image,omitempty"`
	OriginalPrice string `json:"original_price"`
	OfferPrice    string `json:"offer_price"` // always "0.00"
	Selected      bool   `json:"selected"`
	Demo          bool   `json:"demo,omitempty"`
}

// BuildState assembles the snapshot for GET /box and for step responses.
func BuildState(cat *catalog.Catalog, d *flow.Draft, cfg milestones.Config, offerList []offers.Offer, warnings []selection.Warning) BuilderState {
	st := BuilderState{
		Step:      string(d.Step),
		Selection: summarize(d.Selection, cfg),
		Frequency: d.Frequency,
		Warnings:  warnings,
		Messages: map[string]string{
			"min_count":    cfg.Message("min_count"),
			"guard_policy": cfg.Message("guard_policy"),
		},
	}
	if cat != nil {
		st.DefaultCategory = cat.DefaultKey
		st.Categories = make([]Category, 0, len(cat.Categories))
		for _, c := range cat.Categories {
			st.Categories = append(st.Categories, toCategory(c, d.Selection))
		}
	}
	if fs := cfg.Frequencies(); len(fs) > 0 {
		st.Frequencies = fs
	}
	for _, o := range offerList {
		st.Offers = append(st.Offers, OfferVM{
			ProductID:     o.ProductID,
			Title:         o.Title,
			Image:         o.Image,
			OriginalPrice: money.MajorUnits(o.OriginalPriceCents),
			OfferPrice:    money.MajorUnits(0),
			Selected:      d.Offers.Contains(o.ProductID),
			Demo:          o.Demo,
		})
	}
	return st
}

func summarize(sel *selection.Selection, cfg milestones.Config) SelectionSummary {
	count := sel.Count()
	tier := cfg.ComputeTier(count)
	subtotal := sel.SubtotalCents()
	return SelectionSummary{
		Count:         count,
		MinCount:      cfg.Tier1Threshold,
		CanProceed:    count >= cfg.Tier1Threshold,
		Percent:       tier.Percent,
		NextThreshold: tier.NextThreshold,
		Progress:      cfg.Progress(count),
		SubtotalCents: subtotal,
		Subtotal:      money.MajorUnits(subtotal),
		Items:         sel.Items,
	}
}

func toCategory(c catalog.Category, sel *selection.Selection) Category {
	out := Category{Key: c.Key, Title: c.Title, Products: make([]ProductVM, 0, len(c.Products))}
	for _, p := range c.Products {
		out.Products = append(out.Products, toProduct(p, sel))
	}
	return out
}

func toProduct(p shopify.Product, sel *selection.Selection) ProductVM {
	vm := ProductVM{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.BodyHTML,
		Variants:    make([]VariantVM, 0, len(p.Variants)),
	}
	if len(p.Images) > 0 {
		vm.Image = p.Images[0].Src
	}
	if it, ok := sel.Get(p.ID); ok {
		vm.Selected = true
		vm.SelectedVariant = it.VariantID
	} else if pending, ok := sel.PendingVariants[p.ID]; ok {
		vm.SelectedVariant = pending
	}
	for _, v := range p.Variants {
		cents := v.PriceCents()
		vm.Variants = append(vm.Variants, VariantVM{
			ID:          v.ID,
			Title:       v.Title,
			PriceCents:  cents,
			Price:       money.MajorUnits(cents),
			Available:   v.Available,
			Purchasable: !v.Tracked() || v.Stock() > 0,
		})
	}
	return vm
}
