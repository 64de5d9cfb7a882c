package submit

import (
	"context"
	"log/slog"
	"strconv"

	"marblehills.com/app/internal/modules/milestones"
	"marblehills.com/app/internal/modules/offers"
	"marblehills.com/app/internal/modules/selection"
	"marblehills.com/app/internal/shared/apperr"
	"marblehills.com/app/internal/shared/money"
	"marblehills.com/app/internal/shopify"
)

// Line item property and cart attribute keys. The cart guard matches on
// these too, so they are exported.
const (
	PropSubscriptionItem = "_subscription_box_item"
	PropFrequency        = "_delivery_frequency"
	PropProductTitle     = "_product_title"
	PropCustomSelection  = "_custom_selection"
	PropOneTimeOffer     = "_one_time_offer"
	PropUnitPrice        = "_unit_price"

	AttrSubscriptionType = "subscription_type"
	AttrFrequency        = "delivery_frequency"
	AttrDiscountPercent  = "discount_percent"
	AttrProductCount     = "product_count"
	AttrOfferCount       = "one_time_offer_count"
	AttrCustomerEmail    = "customer_email"

	SubscriptionTypeCustomBox = "custom_box"
)

// Draft is the finished wizard selection, consumed exactly once.
type Draft struct {
	Frequency string
	Items     []selection.SelectedProduct
	Offers    []offers.Offer
	Email     string
	Config    milestones.Config
}

type Result struct {
	CartToken   string
	RedirectURL string
}

type Service struct {
	cart shopify.CartAPI
	log  *slog.Logger
}

func NewService(cart shopify.CartAPI, l *slog.Logger) *Service {
	return &Service{cart: cart, log: l}
}

// Submit turns the draft into the live cart: full clear, one batched add,
// then the cart-level attributes, then the redirect target.
//
// Clear-then-add is deliberately two calls — the cart must never mix a
// previous session's items with the new box. The pair is best-effort
// against concurrent native cart writes; the storefront offers no
// transactional replace, and the cart guard defends the same invariant
// from the other side.
func (s *Service) Submit(ctx context.Context, d Draft) (Result, error) {
	items := s.buildItems(d)
	if len(items) == 0 {
		// fail fast, zero network calls
		return Result{}, apperr.InvalidErr(d.Config.Message("missing_products"), nil)
	}

	if err := s.cart.ClearCart(ctx); err != nil {
		return Result{}, apperr.UnavailableErr(d.Config.Message("submit_failed"), err)
	}

	cart, err := s.cart.AddItems(ctx, items)
	if err != nil {
		return Result{}, apperr.UnavailableErr(d.Config.Message("submit_failed"), err)
	}

	count := len(d.Items)
	tier := d.Config.ComputeTier(count)
	attrs := map[string]string{
		AttrSubscriptionType: SubscriptionTypeCustomBox,
		AttrFrequency:        d.Frequency,
		AttrDiscountPercent:  strconv.Itoa(tier.Percent),
		AttrProductCount:     strconv.Itoa(count),
		AttrOfferCount:       strconv.Itoa(len(d.Offers)),
	}
	if d.Email != "" {
		attrs[AttrCustomerEmail] = d.Email
	}
	if err := s.cart.UpdateCartAttributes(ctx, attrs); err != nil {
		return Result{}, apperr.UnavailableErr(d.Config.Message("submit_failed"), err)
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "box_submitted",
		slog.Int("products", count),
		slog.Int("offers", len(d.Offers)),
		slog.String("frequency", d.Frequency),
		slog.Int("discount_percent", tier.Percent),
	)

	return Result{CartToken: cart.Token, RedirectURL: "/cart"}, nil
}

func (s *Service) buildItems(d Draft) []shopify.AddItem {
	plan := d.Config.SellingPlanFor(d.Frequency, len(d.Items))

	items := make([]shopify.AddItem, 0, len(d.Items)+len(d.Offers))
	for _, it := range d.Items {
		items = append(items, shopify.AddItem{
			ID:          it.VariantID,
			Quantity:    1,
			SellingPlan: plan,
			Properties: map[string]string{
				PropSubscriptionItem: "true",
				PropCustomSelection:  "true",
				PropFrequency:        d.Frequency,
				PropProductTitle:     it.Title,
				PropUnitPrice:        money.MajorUnits(it.UnitPriceCents),
			},
		})
	}
	for _, o := range d.Offers {
		items = append(items, shopify.AddItem{
			ID:       o.VariantID,
			Quantity: 1,
			Properties: map[string]string{
				PropSubscriptionItem: "true",
				PropOneTimeOffer:     "true",
				// customer price is zero by server policy; the display-only
				// original price never leaves the offer view model
				PropUnitPrice: money.MajorUnits(0),
			},
		})
	}
	return items
}
