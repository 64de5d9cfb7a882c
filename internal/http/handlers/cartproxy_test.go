package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marblehills.com/app/internal/http/guardnotice"
	"marblehills.com/app/internal/modules/guard"
	"marblehills.com/app/internal/modules/milestones"
	"marblehills.com/app/internal/modules/submit"
	"marblehills.com/app/internal/shopify"
)

type stubSettings struct{}

func (stubSettings) Snapshot(ctx context.Context) milestones.Config {
	return milestones.Defaults()
}

// storefrontStub records every cart call it receives.
type storefrontStub struct {
	mu        sync.Mutex
	calls     []string
	protected bool
	*httptest.Server
}

func newStorefrontStub(protected bool) *storefrontStub {
	s := &storefrontStub{protected: protected}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodGet && r.URL.Path == shopify.PathCart {
			cart := shopify.Cart{Token: "tok", Attributes: map[string]string{}}
			if s.protected {
				cart.Attributes[submit.AttrSubscriptionType] = submit.SubscriptionTypeCustomBox
				cart.Items = []shopify.LineItem{{
					Key: "a:1", VariantID: 1, Quantity: 1,
					Properties: map[string]string{submit.PropSubscriptionItem: "true"},
				}}
				cart.ItemCount = 1
			}
			_ = json.NewEncoder(w).Encode(cart)
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	return s
}

func (s *storefrontStub) count(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}

func newProxyRig(t *testing.T, protected bool) (*storefrontStub, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := newStorefrontStub(protected)
	t.Cleanup(stub.Close)

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := shopify.NewClient(stub.URL, l)
	h := NewCartProxyHandler(
		client,
		guard.New(client, l),
		guardnotice.NewCodec([]byte("test-secret"), "mh_box_notice", false),
		stubSettings{},
	)

	r := gin.New()
	r.GET("/cart.js", h.GetCart)
	r.POST("/cart/add.js", h.Add)
	r.POST("/cart/clear.js", h.Clear)
	r.POST("/cart/change.js", h.Change)
	r.POST("/cart/update.js", h.Update)
	return stub, r
}

func postJSON(r *gin.Engine, path, body, referer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChangeSubstitutedWhileProtected(t *testing.T) {
	stub, r := newProxyRig(t, true)

	w := postJSON(r, "/cart/change.js", `{"id":"a:1","quantity":0}`, "https://shop.example/cart")

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["protected"])
	assert.Equal(t, true, resp["reload"])
	assert.NotEmpty(t, resp["message"])

	// exactly one corrective clear, the original edit never reaches the cart
	assert.Equal(t, 1, stub.count("POST "+shopify.PathCartClear))
	assert.Equal(t, 0, stub.count("POST "+shopify.PathCartChange))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "mh_box_notice", cookies[0].Name)
}

func TestChangeForwardedWhenNotProtected(t *testing.T) {
	stub, r := newProxyRig(t, false)

	w := postJSON(r, "/cart/change.js", `{"id":"a:1","quantity":0}`, "https://shop.example/cart")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.count("POST "+shopify.PathCartChange))
	assert.Equal(t, 0, stub.count("POST "+shopify.PathCartClear))
}

func TestChangeForwardedFromCheckoutPage(t *testing.T) {
	stub, r := newProxyRig(t, true)

	w := postJSON(r, "/cart/change.js", `{"id":"a:1","quantity":0}`, "https://shop.example/checkouts/abc")

	assert.Equal(t, http.StatusOK, w.Code)
	// exempt pages bypass the guard entirely, not even an evaluate fetch
	assert.Equal(t, 1, stub.count("POST "+shopify.PathCartChange))
	assert.Equal(t, 0, stub.count("GET "+shopify.PathCart))
}

func TestAddAndClearNeverIntercepted(t *testing.T) {
	stub, r := newProxyRig(t, true)

	w := postJSON(r, "/cart/add.js", `{"items":[]}`, "https://shop.example/cart")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.count("POST "+shopify.PathCartAdd))

	w = postJSON(r, "/cart/clear.js", "", "https://shop.example/cart")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.count("POST "+shopify.PathCartClear))
}

func TestGetCartPassthrough(t *testing.T) {
	stub, r := newProxyRig(t, true)

	req := httptest.NewRequest(http.MethodGet, "/cart.js", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.count("GET "+shopify.PathCart))
	var cart shopify.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Equal(t, "tok", cart.Token)
}
