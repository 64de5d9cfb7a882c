package guard

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"marblehills.com/app/internal/modules/submit"
	"marblehills.com/app/internal/shopify"
)

// Guard enforces the all-or-nothing policy on subscription carts: once a
// cart belongs to a box, it is only ever modified wholesale. Partial edits
// (line quantity changes, removals) are substituted with a full clear.
//
// It sits in front of the cart proxy on every storefront page, independent
// of the wizard.

type State string

const (
	StateInactive  State = "inactive"
	StateChecking  State = "checking"
	StateProtected State = "protected"
)

type Guard struct {
	cart shopify.CartAPI
	log  *slog.Logger

	mu       sync.Mutex
	state    State
	keys     map[string]struct{} // SubscriptionItemKeySet
	disabled bool                // set around our own corrective clear
}

func New(cart shopify.CartAPI, l *slog.Logger) *Guard {
	return &Guard{cart: cart, log: l, state: StateInactive, keys: map[string]struct{}{}}
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// ItemKeys returns a copy of the tracked subscription line-item keys.
func (g *Guard) ItemKeys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.keys))
	for k := range g.keys {
		out = append(out, k)
	}
	return out
}

// Evaluate fetches the live cart and decides whether it is protected:
// the subscription attribute must be set AND at least one line must carry
// a subscription property. The key set mirror is rebuilt from scratch.
// Fetch failures leave the guard inactive — protection is defensive, it
// must never block a shopper because the cart endpoint hiccuped.
func (g *Guard) Evaluate(ctx context.Context) State {
	g.mu.Lock()
	if g.disabled {
		g.mu.Unlock()
		return StateInactive
	}
	g.state = StateChecking
	g.mu.Unlock()

	cart, err := g.cart.GetCart(ctx)
	if err != nil {
		g.log.LogAttrs(ctx, slog.LevelWarn, "guard_cart_fetch_failed", slog.Any("err", err))
		return g.setInactive()
	}

	if cart.Attributes[submit.AttrSubscriptionType] != submit.SubscriptionTypeCustomBox {
		return g.setInactive()
	}

	keys := map[string]struct{}{}
	for _, it := range cart.Items {
		if isSubscriptionItem(it) {
			keys[it.Key] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return g.setInactive()
	}

	g.mu.Lock()
	g.state = StateProtected
	g.keys = keys
	g.mu.Unlock()
	return StateProtected
}

func (g *Guard) setInactive() State {
	g.mu.Lock()
	g.state = StateInactive
	g.keys = map[string]struct{}{}
	g.mu.Unlock()
	return StateInactive
}

// InterceptTarget reports whether a cart write path is one the guard
// substitutes while protected. Add and clear always pass through:
// subscription creation itself clears and repopulates the cart.
func InterceptTarget(path string) bool {
	switch path {
	case shopify.PathCartChange, shopify.PathCartUpdate:
		return true
	}
	return false
}

// ExemptPage reports whether the originating page is one the guard must
// stay away from (Shopify's own checkout and order confirmation UI).
func ExemptPage(pagePath string) bool {
	return strings.Contains(pagePath, "/checkout") ||
		strings.Contains(pagePath, "/orders/") ||
		strings.Contains(pagePath, "/thank_you")
}

// Correct performs the guard's substitute action: one full cart clear. The
// guard disables itself around the call so its own clear is never treated
// as a violation, drops the tracked key set, and goes inactive until the
// next evaluation.
func (g *Guard) Correct(ctx context.Context) error {
	g.mu.Lock()
	g.disabled = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.disabled = false
		g.mu.Unlock()
	}()

	err := g.cart.ClearCart(ctx)
	g.setInactive()
	if err != nil {
		g.log.LogAttrs(ctx, slog.LevelError, "guard_corrective_clear_failed", slog.Any("err", err))
		return err
	}
	g.log.LogAttrs(ctx, slog.LevelInfo, "guard_cart_cleared")
	return nil
}

func isSubscriptionItem(it shopify.LineItem) bool {
	if it.Properties == nil {
		return false
	}
	if _, ok := it.Properties[submit.PropSubscriptionItem]; ok {
		return true
	}
	if _, ok := it.Properties[submit.PropOneTimeOffer]; ok {
		return true
	}
	return false
}
