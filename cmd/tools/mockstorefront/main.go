// mockstorefront serves a tiny in-memory fake of the storefront endpoints
// the service drives (product feeds + cart.js family), for local manual
// testing without a real shop.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
)

type variant struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
	InvQty    *int   `json:"inventory_quantity,omitempty"`
	InvMgmt   string `json:"inventory_management,omitempty"`
}

type product struct {
	ID       int64             `json:"id"`
	Title    string            `json:"title"`
	Handle   string            `json:"handle"`
	Tags     []string          `json:"tags"`
	Images   []map[string]any  `json:"images"`
	Variants []variant         `json:"variants"`
}

type lineItem struct {
	Key        string            `json:"key"`
	VariantID  int64             `json:"variant_id"`
	Quantity   int               `json:"quantity"`
	Title      string            `json:"title"`
	Properties map[string]string `json:"properties"`
}

type cart struct {
	mu         sync.Mutex
	Items      []lineItem        `json:"items"`
	Attributes map[string]string `json:"attributes"`
}

func qty(n int) *int { return &n }

var demoProducts = []product{
	{ID: 101, Title: "Ribeye Steak", Handle: "ribeye", Tags: []string{"sb-subscription", "sb-category-Steaks-#1", "sb-best-seller"},
		Variants: []variant{{ID: 1011, Title: "12oz", Price: "24.99", Available: true, InvQty: qty(12), InvMgmt: "shopify"}}},
	{ID: 102, Title: "Brisket", Handle: "brisket", Tags: []string{"sb-subscription", "sb-category-BBQ"},
		Variants: []variant{{ID: 1021, Title: "Whole", Price: "49.00", Available: true}}},
	{ID: 103, Title: "Wagyu Box", Handle: "wagyu", Tags: []string{"sb-subscription", "sb-category-Premium-#3"},
		Variants: []variant{{ID: 1031, Title: "Default", Price: "99.50", Available: true, InvQty: qty(2), InvMgmt: "shopify"}}},
	{ID: 104, Title: "Beef Jerky", Handle: "jerky", Tags: []string{"sb-subscription", "sb-one-time-offer"},
		Variants: []variant{{ID: 1041, Title: "Default", Price: "8.00", Available: true}}},
}

func main() {
	addr := flag.String("addr", ":9292", "listen address")
	flag.Parse()

	c := &cart{Attributes: map[string]string{}}
	mux := http.NewServeMux()

	feed := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"products": demoProducts})
	}
	mux.HandleFunc("GET /products.json", feed)
	mux.HandleFunc("GET /collections/subscriptions/products.json", feed)

	mux.HandleFunc("GET /cart.js", func(w http.ResponseWriter, _ *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		writeJSON(w, map[string]any{
			"token":      "mock-cart",
			"item_count": len(c.Items),
			"items":      c.Items,
			"attributes": c.Attributes,
		})
	})

	mux.HandleFunc("POST /cart/clear.js", func(w http.ResponseWriter, _ *http.Request) {
		c.mu.Lock()
		c.Items = nil
		c.Attributes = map[string]string{}
		c.mu.Unlock()
		writeJSON(w, map[string]any{"items": []lineItem{}})
	})

	mux.HandleFunc("POST /cart/add.js", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items []struct {
				ID         int64             `json:"id"`
				Quantity   int               `json:"quantity"`
				Properties map[string]string `json:"properties"`
			} `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		c.mu.Lock()
		for i, it := range body.Items {
			c.Items = append(c.Items, lineItem{
				Key:        fmt.Sprintf("%d:%d", it.ID, len(c.Items)+i),
				VariantID:  it.ID,
				Quantity:   it.Quantity,
				Properties: it.Properties,
			})
		}
		c.mu.Unlock()
		writeJSON(w, map[string]any{"items": c.Items})
	})

	mux.HandleFunc("POST /cart/update.js", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Attributes map[string]string `json:"attributes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		c.mu.Lock()
		for k, v := range body.Attributes {
			c.Attributes[k] = v
		}
		c.mu.Unlock()
		writeJSON(w, map[string]any{"attributes": c.Attributes})
	})

	mux.HandleFunc("POST /cart/change.js", func(w http.ResponseWriter, _ *http.Request) {
		// the real endpoint edits one line; the mock just acks
		writeJSON(w, map[string]any{"items": c.Items})
	})

	log.Printf("mock storefront listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "mockstorefront: %v\n", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
