package shopify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantPriceCents(t *testing.T) {
	tests := []struct {
		price string
		want  int
	}{
		{"12.00", 1200},
		{"1.99", 199},
		{"0.50", 50},
		{"100.5", 10050},
		{"45", 4500},
		{" 9.99 ", 999},
		{"", 0},
		{"free", 0},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, Variant{Price: tt.price}.PriceCents())
		})
	}
}

func TestVariantStock(t *testing.T) {
	n := 3
	tracked := Variant{InventoryManagement: "shopify", InventoryQuantity: &n}
	assert.True(t, tracked.Tracked())
	assert.Equal(t, 3, tracked.Stock())

	untracked := Variant{}
	assert.False(t, untracked.Tracked())
	assert.Equal(t, -1, untracked.Stock())

	// management flag without a quantity still counts as untracked
	half := Variant{InventoryManagement: "shopify"}
	assert.False(t, half.Tracked())
}
