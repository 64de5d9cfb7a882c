package flow

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
	"marblehills.com/app/internal/modules/submit"
	"marblehills.com/app/internal/shopify"
)

type fakeFeed struct {
	products []shopify.Product
	err      error
}

func (f *fakeFeed) CollectionProducts(ctx context.Context, handle string) ([]shopify.Product, error) {
	return nil, errors.New("not used")
}

func (f *fakeFeed) Products(ctx context.Context, limit int) ([]shopify.Product, error) {
	return f.products, f.err
}

type fakeCart struct {
	calls []string
	fail  bool
}

func (f *fakeCart) GetCart(ctx context.Context) (shopify.Cart, error) {
	return shopify.Cart{}, nil
}

func (f *fakeCart) ClearCart(ctx context.Context) error {
	f.calls = append(f.calls, "clear")
	if f.fail {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeCart) AddItems(ctx context.Context, items []shopify.AddItem) (shopify.Cart, error) {
	f.calls = append(f.calls, "add")
	return shopify.Cart{Token: "tok"}, nil
}

func (f *fakeCart) UpdateCartAttributes(ctx context.Context, attrs map[string]string) error {
	f.calls = append(f.calls, "attrs")
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func offerProduct(id int64, tags ...string) shopify.Product {
	return shopify.Product{
		ID: id, Title: "P", Tags: tags,
		Variants: []shopify.Variant{{ID: id * 10, Price: "9.99", Available: true}},
	}
}

func newController(feed *fakeFeed, cart *fakeCart) *Controller {
	return NewController(
		offers.NewService(feed, testLogger()),
		submit.NewService(cart, testLogger()),
		testLogger(),
	)
}

func draftWithItems(n int) *Draft {
	d := NewDraft()
	for i := 0; i < n; i++ {
		d.Selection.Items = append(d.Selection.Items, selection.SelectedProduct{
			ProductID: int64(i + 1), VariantID: int64(100 + i), UnitPriceCents: 1000, Quantity: 1,
		})
	}
	return d
}

func TestNextBlocksUnderMinimum(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeCart{})
	d := draftWithItems(5)

	_, err := c.Next(context.Background(), d, milestones.Defaults())
	assert.Error(t, err)
	assert.Equal(t, StepProductSelection, d.Step)
}

func TestNextAdvancesAtMinimum(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeCart{})
	d := draftWithItems(6)

	out, err := c.Next(context.Background(), d, milestones.Defaults())
	require.NoError(t, err)
	assert.Equal(t, StepFrequencySelection, out.Step)
}

func TestNextFrequencyGate(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeCart{})
	d := draftWithItems(6)
	d.Step = StepFrequencySelection

	_, err := c.Next(context.Background(), d, milestones.Defaults())
	assert.Error(t, err)
	assert.Equal(t, StepFrequencySelection, d.Step)
}

func TestNextEntersOfferStepWhenRealOffersExist(t *testing.T) {
	feed := &fakeFeed{products: []shopify.Product{offerProduct(1, "sb-one-time-offer")}}
	c := newController(feed, &fakeCart{})
	d := draftWithItems(6)
	d.Step = StepFrequencySelection
	d.Frequency = "2_weeks"

	out, err := c.Next(context.Background(), d, milestones.Defaults())
	require.NoError(t, err)
	assert.Equal(t, StepOfferSelection, out.Step)
	assert.True(t, d.OffersAvailable)
}

func TestNextBypassesOfferStepAndSubmits(t *testing.T) {
	// only untagged products: placeholders exist but no real offers
	feed := &fakeFeed{products: []shopify.Product{offerProduct(1, "sb-subscription")}}
	cart := &fakeCart{}
	c := newController(feed, cart)
	d := draftWithItems(6)
	d.Step = StepFrequencySelection
	d.Frequency = "2_weeks"

	out, err := c.Next(context.Background(), d, milestones.Defaults())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, out.Step)
	assert.True(t, out.OffersSkipped)
	assert.Equal(t, "/cart", out.RedirectURL)
	assert.Equal(t, []string{"clear", "add", "attrs"}, cart.calls)
}

func TestNextProbeFailureDegradesToBypass(t *testing.T) {
	feed := &fakeFeed{err: errors.New("boom")}
	cart := &fakeCart{}
	c := newController(feed, cart)
	d := draftWithItems(6)
	d.Step = StepFrequencySelection
	d.Frequency = "2_weeks"

	out, err := c.Next(context.Background(), d, milestones.Defaults())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, out.Step)
	assert.False(t, d.OffersAvailable)
}

func TestBackNeverValidates(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeCart{})

	d := NewDraft()
	d.Step = StepFrequencySelection
	assert.Equal(t, StepProductSelection, c.Back(d))

	d.Step = StepOfferSelection
	assert.Equal(t, StepFrequencySelection, c.Back(d))

	d.Step = StepFailed
	assert.Equal(t, StepFrequencySelection, c.Back(d))

	// first step stays put
	d.Step = StepProductSelection
	assert.Equal(t, StepProductSelection, c.Back(d))
}

func TestSetFrequency(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeCart{})
	cfg := milestones.Defaults()
	cfg.SellingPlans = map[string]milestones.TierPlans{"2_weeks": {Tier1: 1}}

	d := NewDraft()
	assert.Error(t, c.SetFrequency(d, "", cfg))
	assert.Error(t, c.SetFrequency(d, "daily", cfg))
	require.NoError(t, c.SetFrequency(d, "2_weeks", cfg))
	assert.Equal(t, "2_weeks", d.Frequency)

	// without configured plans any non-empty code is accepted
	require.NoError(t, c.SetFrequency(d, "1_month", milestones.Defaults()))
}

func TestSubmitResolvesPickedOffers(t *testing.T) {
	feed := &fakeFeed{products: []shopify.Product{
		offerProduct(7, "sb-one-time-offer"),
		offerProduct(8, "sb-one-time-offer"),
	}}
	cart := &fakeCart{}
	c := newController(feed, cart)
	d := draftWithItems(6)
	d.Step = StepOfferSelection
	d.Frequency = "2_weeks"
	d.OffersAvailable = true
	d.Offers.Toggle(7)

	out, err := c.Submit(context.Background(), d, milestones.Defaults(), false)
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, out.Step)
	assert.False(t, out.OffersSkipped)
	assert.Equal(t, []string{"clear", "add", "attrs"}, cart.calls)
}

func TestSubmitSkipDropsPicks(t *testing.T) {
	feed := &fakeFeed{products: []shopify.Product{offerProduct(7, "sb-one-time-offer")}}
	c := newController(feed, &fakeCart{})
	d := draftWithItems(6)
	d.Step = StepOfferSelection
	d.Frequency = "2_weeks"
	d.Offers.Toggle(7)

	out, err := c.Submit(context.Background(), d, milestones.Defaults(), true)
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, out.Step)
	assert.Empty(t, d.Offers.IDs)
}

func TestSubmitWrongStepRejected(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeCart{})
	d := draftWithItems(6)
	d.Step = StepProductSelection

	_, err := c.Submit(context.Background(), d, milestones.Defaults(), false)
	assert.Error(t, err)
}

func TestSubmitFailureReturnsToOfferStep(t *testing.T) {
	feed := &fakeFeed{products: []shopify.Product{offerProduct(7, "sb-one-time-offer")}}
	cart := &fakeCart{fail: true}
	c := newController(feed, cart)
	d := draftWithItems(6)
	d.Step = StepOfferSelection
	d.Frequency = "2_weeks"

	out, err := c.Submit(context.Background(), d, milestones.Defaults(), true)
	require.Error(t, err)
	assert.Equal(t, StepOfferSelection, out.Step)
	assert.Equal(t, StepOfferSelection, d.Step)
}
