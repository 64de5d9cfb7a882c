package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"marblehills.com/app/internal/http/guardnotice"
	"marblehills.com/app/internal/http/middleware"
	"marblehills.com/app/internal/modules/guard"
	"marblehills.com/app/internal/shared/apperr"
	"marblehills.com/app/internal/shopify"
)

// CartProxyHandler relays the theme's cart calls to the storefront. Every
// write passes the guard first; while a subscription cart is protected,
// partial edits are substituted with a corrective clear instead of being
// forwarded.
type CartProxyHandler struct {
	Client     *shopify.Client
	Guard      *guard.Guard
	Notices    *guardnotice.Codec
	Milestones SettingsSource
}

func NewCartProxyHandler(client *shopify.Client, g *guard.Guard, notices *guardnotice.Codec, ms SettingsSource) *CartProxyHandler {
	return &CartProxyHandler{Client: client, Guard: g, Notices: notices, Milestones: ms}
}

// GetCart handles GET /cart.js - plain passthrough.
func (h *CartProxyHandler) GetCart(c *gin.Context) {
	h.forward(c, http.MethodGet, shopify.PathCart)
}

// Add handles POST /cart/add.js - never intercepted: box creation itself
// repopulates the cart through here.
func (h *CartProxyHandler) Add(c *gin.Context) {
	h.forward(c, http.MethodPost, shopify.PathCartAdd)
}

// Clear handles POST /cart/clear.js - never intercepted.
func (h *CartProxyHandler) Clear(c *gin.Context) {
	h.forward(c, http.MethodPost, shopify.PathCartClear)
}

// Change handles POST /cart/change.js - guarded.
func (h *CartProxyHandler) Change(c *gin.Context) {
	h.guarded(c, shopify.PathCartChange)
}

// Update handles POST /cart/update.js - guarded (the line-item quantity
// form of update is a partial edit).
func (h *CartProxyHandler) Update(c *gin.Context) {
	h.guarded(c, shopify.PathCartUpdate)
}

func (h *CartProxyHandler) guarded(c *gin.Context, path string) {
	if guard.ExemptPage(refererPath(c)) {
		h.forward(c, http.MethodPost, path)
		return
	}

	state := h.Guard.Evaluate(c.Request.Context())
	if state != guard.StateProtected || !guard.InterceptTarget(path) {
		h.forward(c, http.MethodPost, path)
		return
	}

	// Substitute, never forward: the original edit is fully replaced by
	// the all-or-nothing correction.
	if err := h.Guard.Correct(c.Request.Context()); err != nil {
		middleware.Fail(c, apperr.UnavailableErr("The cart could not be updated.", err))
		return
	}

	msg := h.Milestones.Snapshot(c.Request.Context()).Message("guard_policy")
	h.Notices.SetCookie(c, guardnotice.Notice{Kind: "info", Message: msg})
	c.JSON(http.StatusOK, gin.H{
		"protected": true,
		"reload":    true,
		"message":   msg,
	})
}

func (h *CartProxyHandler) forward(c *gin.Context, method, path string) {
	body, err := c.GetRawData()
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request payload.", nil))
		return
	}

	res, err := h.Client.Forward(c.Request.Context(), method, path, c.ContentType(), body)
	if err != nil {
		middleware.Fail(c, apperr.UnavailableErr("The cart is unreachable right now.", err))
		return
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(res.Status, contentType, res.Body)
}

// refererPath extracts the path of the page the call came from, so the
// guard can stay off checkout and order-status pages.
func refererPath(c *gin.Context) string {
	ref := c.Request.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return u.Path
}
