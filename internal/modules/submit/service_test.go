package submit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marblehills.com/app/internal/modules/milestones"
	"marblehills.com/app/internal/modules/offers"
	"marblehills.com/app/internal/modules/selection"
	"marblehills.com/app/internal/shared/apperr"
	"marblehills.com/app/internal/shopify"
)

// fakeCart records the order of cart writes.
type fakeCart struct {
	calls    []string
	added    []shopify.AddItem
	attrs    map[string]string
	clearErr error
	addErr   error
	attrsErr error
}

func (f *fakeCart) GetCart(ctx context.Context) (shopify.Cart, error) {
	f.calls = append(f.calls, "get")
	return shopify.Cart{}, nil
}

func (f *fakeCart) ClearCart(ctx context.Context) error {
	f.calls = append(f.calls, "clear")
	return f.clearErr
}

func (f *fakeCart) AddItems(ctx context.Context, items []shopify.AddItem) (shopify.Cart, error) {
	f.calls = append(f.calls, "add")
	f.added = items
	if f.addErr != nil {
		return shopify.Cart{}, f.addErr
	}
	return shopify.Cart{Token: "tok-1", ItemCount: len(items)}, nil
}

func (f *fakeCart) UpdateCartAttributes(ctx context.Context, attrs map[string]string) error {
	f.calls = append(f.calls, "attrs")
	f.attrs = attrs
	return f.attrsErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func planConfig() milestones.Config {
	cfg := milestones.Defaults()
	cfg.SellingPlans = map[string]milestones.TierPlans{
		"2_weeks": {Tier1: 101, Tier2: 102},
	}
	return cfg
}

func sixItems() []selection.SelectedProduct {
	out := make([]selection.SelectedProduct, 6)
	for i := range out {
		out[i] = selection.SelectedProduct{
			ProductID:      int64(i + 1),
			Title:          "Cut",
			VariantID:      int64(100 + i),
			UnitPriceCents: 1999,
			Quantity:       1,
			Kind:           selection.KindIndividual,
		}
	}
	return out
}

func TestSubmitEmptyDraftMakesNoNetworkCalls(t *testing.T) {
	cart := &fakeCart{}
	svc := NewService(cart, testLogger())

	_, err := svc.Submit(context.Background(), Draft{Config: milestones.Defaults()})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Invalid, ae.Kind)
	assert.Empty(t, cart.calls)
}

func TestSubmitSequenceAndPayload(t *testing.T) {
	cart := &fakeCart{}
	svc := NewService(cart, testLogger())

	d := Draft{
		Frequency: "2_weeks",
		Items:     sixItems(),
		Offers: []offers.Offer{
			{ProductID: 50, VariantID: 500, OriginalPriceCents: 2999},
		},
		Email:  "shopper@example.com",
		Config: planConfig(),
	}

	res, err := svc.Submit(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []string{"clear", "add", "attrs"}, cart.calls)
	assert.Equal(t, "tok-1", res.CartToken)
	assert.Equal(t, "/cart", res.RedirectURL)

	require.Len(t, cart.added, 7)

	first := cart.added[0]
	assert.Equal(t, int64(101), first.SellingPlan)
	assert.Equal(t, "true", first.Properties[PropSubscriptionItem])
	assert.Equal(t, "true", first.Properties[PropCustomSelection])
	assert.Equal(t, "2_weeks", first.Properties[PropFrequency])
	assert.Equal(t, "19.99", first.Properties[PropUnitPrice])

	offer := cart.added[6]
	assert.Equal(t, int64(500), offer.ID)
	assert.Zero(t, offer.SellingPlan)
	assert.Equal(t, "true", offer.Properties[PropOneTimeOffer])
	// offers are free regardless of their catalog price
	assert.Equal(t, "0.00", offer.Properties[PropUnitPrice])

	assert.Equal(t, SubscriptionTypeCustomBox, cart.attrs[AttrSubscriptionType])
	assert.Equal(t, "2_weeks", cart.attrs[AttrFrequency])
	assert.Equal(t, "5", cart.attrs[AttrDiscountPercent])
	assert.Equal(t, "6", cart.attrs[AttrProductCount])
	assert.Equal(t, "1", cart.attrs[AttrOfferCount])
	assert.Equal(t, "shopper@example.com", cart.attrs[AttrCustomerEmail])
}

func TestSubmitTier2SellingPlan(t *testing.T) {
	cart := &fakeCart{}
	svc := NewService(cart, testLogger())

	items := sixItems()
	for i := 6; i < 10; i++ {
		items = append(items, selection.SelectedProduct{
			ProductID: int64(i + 1), VariantID: int64(100 + i), UnitPriceCents: 999, Quantity: 1,
		})
	}

	_, err := svc.Submit(context.Background(), Draft{
		Frequency: "2_weeks",
		Items:     items,
		Config:    planConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(102), cart.added[0].SellingPlan)
	assert.Equal(t, "10", cart.attrs[AttrDiscountPercent])
}

func TestSubmitClearFailureStopsThePipeline(t *testing.T) {
	cart := &fakeCart{clearErr: errors.New("502")}
	svc := NewService(cart, testLogger())

	_, err := svc.Submit(context.Background(), Draft{
		Frequency: "2_weeks",
		Items:     sixItems(),
		Config:    planConfig(),
	})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Unavailable, ae.Kind)
	assert.Equal(t, []string{"clear"}, cart.calls)
}

func TestSubmitAddFailure(t *testing.T) {
	cart := &fakeCart{addErr: errors.New("422")}
	svc := NewService(cart, testLogger())

	_, err := svc.Submit(context.Background(), Draft{
		Frequency: "2_weeks",
		Items:     sixItems(),
		Config:    planConfig(),
	})
	require.Error(t, err)
	assert.Equal(t, []string{"clear", "add"}, cart.calls)
}

func TestSubmitNoEmailOmitsAttribute(t *testing.T) {
	cart := &fakeCart{}
	svc := NewService(cart, testLogger())

	_, err := svc.Submit(context.Background(), Draft{
		Frequency: "2_weeks",
		Items:     sixItems(),
		Config:    planConfig(),
	})
	require.NoError(t, err)
	_, ok := cart.attrs[AttrCustomerEmail]
	assert.False(t, ok)
}
