package shopify

import "context"

// Cart endpoint paths. The guard matches against these, so they live here
// rather than being scattered across handlers.
const (
	PathCart       = "/cart.js"
	PathCartAdd    = "/cart/add.js"
	PathCartClear  = "/cart/clear.js"
	PathCartUpdate = "/cart/update.js"
	PathCartChange = "/cart/change.js"
)

// CartAPI is what the submitter and the guard need from the storefront.
type CartAPI interface {
	GetCart(ctx context.Context) (Cart, error)
	ClearCart(ctx context.Context) error
	AddItems(ctx context.Context, items []AddItem) (Cart, error)
	UpdateCartAttributes(ctx context.Context, attrs map[string]string) error
}

func (c *Client) GetCart(ctx context.Context) (Cart, error) {
	var cart Cart
	if err := c.getJSON(ctx, PathCart, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.postJSON(ctx, PathCartClear, struct{}{}, nil)
}

type addItemsBody struct {
	Items []AddItem `json:"items"`
}

// AddItems pushes the full item list in one batched write.
func (c *Client) AddItems(ctx context.Context, items []AddItem) (Cart, error) {
	var cart Cart
	if err := c.postJSON(ctx, PathCartAdd, addItemsBody{Items: items}, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

type updateAttributesBody struct {
	Attributes map[string]string `json:"attributes"`
}

func (c *Client) UpdateCartAttributes(ctx context.Context, attrs map[string]string) error {
	return c.postJSON(ctx, PathCartUpdate, updateAttributesBody{Attributes: attrs}, nil)
}
