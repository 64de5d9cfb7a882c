package shopify

import (
	"strconv"
	"strings"
)

// Feed shapes for /products.json and /collections/<handle>/products.json.
// These are owned by the storefront; we only read them.

type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Handle   string    `json:"handle"`
	BodyHTML string    `json:"body_html"`
	Tags     []string  `json:"tags"`
	Images   []Image   `json:"images"`
	Variants []Variant `json:"variants"`
}

type Image struct {
	Src string `json:"src"`
}

type Variant struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"` // major units, e.g. "12.00"
	Available bool   `json:"available"`

	// Only present when the variant tracks inventory; nil means unlimited.
	InventoryQuantity   *int   `json:"inventory_quantity,omitempty"`
	InventoryManagement string `json:"inventory_management,omitempty"`
}

// PriceCents parses the feed's major-unit price into cents.
// Malformed prices come back as 0; the feed is weakly typed and a broken
// price must not take the whole catalog down.
func (v Variant) PriceCents() int {
	s := strings.TrimSpace(v.Price)
	if s == "" {
		return 0
	}
	whole, frac, _ := strings.Cut(s, ".")
	major, err := strconv.Atoi(whole)
	if err != nil {
		return 0
	}
	cents := major * 100
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		minor, err := strconv.Atoi(frac)
		if err != nil {
			return 0
		}
		cents += minor
	}
	return cents
}

// Tracked reports whether the variant has a finite tracked inventory.
func (v Variant) Tracked() bool {
	return v.InventoryManagement != "" && v.InventoryQuantity != nil
}

// Stock returns the available quantity, or -1 when untracked (unlimited).
func (v Variant) Stock() int {
	if !v.Tracked() {
		return -1
	}
	return *v.InventoryQuantity
}

// Cart shapes for /cart.js and the cart write endpoints.

type Cart struct {
	Token      string            `json:"token"`
	ItemCount  int               `json:"item_count"`
	Items      []LineItem        `json:"items"`
	Attributes map[string]string `json:"attributes"`
}

type LineItem struct {
	Key        string            `json:"key"`
	VariantID  int64             `json:"variant_id"`
	Quantity   int               `json:"quantity"`
	Title      string            `json:"title"`
	Properties map[string]string `json:"properties"`
}

// AddItem is one entry of the /cart/add.js items array.
type AddItem struct {
	ID          int64             `json:"id"` // variant id
	Quantity    int               `json:"quantity"`
	Properties  map[string]string `json:"properties,omitempty"`
	SellingPlan int64             `json:"selling_plan,omitempty"`
}
