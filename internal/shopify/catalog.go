package shopify

import (
	"context"
	"fmt"
)

type productsFeed struct {
	Products []Product `json:"products"`
}

// CollectionProducts fetches the product feed of a curated collection,
// e.g. /collections/subscriptions/products.json.
func (c *Client) CollectionProducts(ctx context.Context, handle string) ([]Product, error) {
	var feed productsFeed
	path := fmt.Sprintf("/collections/%s/products.json?limit=250", handle)
	if err := c.getJSON(ctx, path, &feed); err != nil {
		return nil, err
	}
	return feed.Products, nil
}

// Products fetches the shop-wide feed, bounded by limit.
func (c *Client) Products(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 || limit > 250 {
		limit = 250
	}
	var feed productsFeed
	if err := c.getJSON(ctx, fmt.Sprintf("/products.json?limit=%d", limit), &feed); err != nil {
		return nil, err
	}
	return feed.Products, nil
}
