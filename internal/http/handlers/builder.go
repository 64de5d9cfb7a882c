package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marblehills.com/app/internal/http/middleware"
	"marblehills.com/app/internal/http/sessioncookie"
	"marblehills.com/app/internal/http/validation"
	"marblehills.com/app/internal/modules/catalog"
	"marblehills.com/app/internal/modules/flow"
	"marblehills.com/app/internal/modules/milestones"
	"marblehills.com/app/internal/modules/offers"
	"marblehills.com/app/internal/modules/selection"
	"marblehills.com/app/internal/shared/apperr"
	"marblehills.com/app/internal/storage/sessions"
	"marblehills.com/app/pkg/view"
)

// SettingsSource yields the shop's milestone configuration. Satisfied by
// milestones.Repo.
type SettingsSource interface {
	Snapshot(ctx context.Context) milestones.Config
}

// BuilderHandler serves the box-builder wizard API consumed by the theme
// extension. All state lives in the session draft; every response carries
// the full builder snapshot so the extension never assembles state itself.
type BuilderHandler struct {
	Catalog    *catalog.Service
	Offers     *offers.Service
	Flow       *flow.Controller
	Milestones SettingsSource
	Store      *sessions.Store
	CK         *sessioncookie.Codec
}

func NewBuilderHandler(cat *catalog.Service, off *offers.Service, fl *flow.Controller, ms SettingsSource, store *sessions.Store, ck *sessioncookie.Codec) *BuilderHandler {
	return &BuilderHandler{Catalog: cat, Offers: off, Flow: fl, Milestones: ms, Store: store, CK: ck}
}

// draft loads (or starts) the session's wizard draft and pins the milestone
// snapshot to it on first touch.
func (h *BuilderHandler) draft(c *gin.Context) (string, *flow.Draft, milestones.Config, error) {
	sid := h.CK.SessionID(c)
	d, err := h.Store.Get(c.Request.Context(), sid)
	if err != nil {
		return "", nil, milestones.Config{}, err
	}
	if d == nil {
		d = flow.NewDraft()
	}
	if d.Selection == nil {
		d.Selection = selection.New()
	}
	if d.Milestones == nil {
		cfg := h.Milestones.Snapshot(c.Request.Context())
		d.Milestones = &cfg
	}
	return sid, d, *d.Milestones, nil
}

func (h *BuilderHandler) save(c *gin.Context, sid string, d *flow.Draft) bool {
	if err := h.Store.Save(c.Request.Context(), sid, d); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return false
	}
	return true
}

// respondState replies with the full builder snapshot. Offer candidates are
// attached only at the offer step.
func (h *BuilderHandler) respondState(c *gin.Context, d *flow.Draft, cfg milestones.Config, cat *catalog.Catalog, warnings []selection.Warning) {
	var offerList []offers.Offer
	if d.Step == flow.StepOfferSelection {
		list, err := h.Offers.ListCandidates(c.Request.Context())
		if err == nil {
			offerList = list
		}
	}
	c.JSON(http.StatusOK, view.BuildState(cat, d, cfg, offerList, warnings))
}

// Get handles GET /box - full wizard snapshot, catalog loaded fresh.
func (h *BuilderHandler) Get(c *gin.Context) {
	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	cat, err := h.Catalog.LoadEligibleProducts(c.Request.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrNoProducts) {
			// terminal for the step: the extension renders a retry button,
			// nothing here retries on its own
			c.JSON(http.StatusBadGateway, gin.H{
				"error": cfg.Message("empty_catalog"),
				"retry": true,
			})
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	if !h.save(c, sid, d) {
		return
	}
	h.respondState(c, d, cfg, cat, nil)
}

type toggleProductInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

// ToggleProduct handles POST /box/products/toggle.
func (h *BuilderHandler) ToggleProduct(c *gin.Context) {
	var in toggleProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request payload.", validation.FromBindError(err, &in)))
		return
	}

	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	cat, err := h.Catalog.Cached(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.UnavailableErr(cfg.Message("empty_catalog"), err))
		return
	}
	p, ok := cat.Product(in.ProductID)
	if !ok {
		middleware.Fail(c, apperr.NotFoundErr("That product is not available."))
		return
	}

	if _, err := d.Selection.Toggle(p); err != nil {
		switch {
		case errors.Is(err, selection.ErrOutOfStock):
			middleware.Fail(c, apperr.ConflictErr("That product is out of stock."))
		default:
			middleware.Fail(c, apperr.InvalidErr("That product cannot be added.", nil))
		}
		return
	}

	if !h.save(c, sid, d) {
		return
	}
	h.respondState(c, d, cfg, cat, nil)
}

type setVariantInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
	VariantID int64 `json:"variant_id" binding:"required"`
}

// SetVariant handles POST /box/products/variant.
func (h *BuilderHandler) SetVariant(c *gin.Context) {
	var in setVariantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request payload.", validation.FromBindError(err, &in)))
		return
	}

	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	cat, err := h.Catalog.Cached(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.UnavailableErr(cfg.Message("empty_catalog"), err))
		return
	}
	p, ok := cat.Product(in.ProductID)
	if !ok {
		middleware.Fail(c, apperr.NotFoundErr("That product is not available."))
		return
	}

	warning, err := d.Selection.SetVariant(p, in.VariantID)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("That variant is not available.", nil))
		return
	}

	if !h.save(c, sid, d) {
		return
	}
	var warnings []selection.Warning
	if warning != nil {
		warnings = append(warnings, *warning)
	}
	h.respondState(c, d, cfg, cat, warnings)
}

type frequencyInput struct {
	Frequency string `json:"frequency" binding:"required,max=64"`
}

// SetFrequency handles POST /box/frequency.
func (h *BuilderHandler) SetFrequency(c *gin.Context) {
	var in frequencyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request payload.", validation.FromBindError(err, &in)))
		return
	}

	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	if err := h.Flow.SetFrequency(d, in.Frequency, cfg); err != nil {
		middleware.Fail(c, err)
		return
	}
	if !h.save(c, sid, d) {
		return
	}
	h.respondState(c, d, cfg, nil, nil)
}

type toggleOfferInput struct {
	OfferID int64 `json:"offer_id" binding:"required"`
}

// ToggleOffer handles POST /box/offers/toggle.
func (h *BuilderHandler) ToggleOffer(c *gin.Context) {
	var in toggleOfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid request payload.", validation.FromBindError(err, &in)))
		return
	}

	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if d.Step != flow.StepOfferSelection {
		middleware.Fail(c, apperr.InvalidErr("Offers are not open yet.", nil))
		return
	}

	d.Offers.Toggle(in.OfferID)
	if !h.save(c, sid, d) {
		return
	}
	h.respondState(c, d, cfg, nil, nil)
}

// Next handles POST /box/next - forward transition with gating. When the
// offer step is bypassed this runs the submission directly.
func (h *BuilderHandler) Next(c *gin.Context) {
	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	outcome, err := h.Flow.Next(c.Request.Context(), d, cfg)
	h.finishTransition(c, sid, d, cfg, outcome, err)
}

// Back handles POST /box/back - always allowed.
func (h *BuilderHandler) Back(c *gin.Context) {
	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	h.Flow.Back(d)
	if !h.save(c, sid, d) {
		return
	}
	h.respondState(c, d, cfg, nil, nil)
}

type submitInput struct {
	Email string `json:"email" binding:"omitempty,email,max=255"`
}

// Submit handles POST /box/submit - finish with the toggled offers.
func (h *BuilderHandler) Submit(c *gin.Context) {
	h.submit(c, false)
}

// Skip handles POST /box/skip - finish with a forced-empty offer list.
func (h *BuilderHandler) Skip(c *gin.Context) {
	h.submit(c, true)
}

func (h *BuilderHandler) submit(c *gin.Context, skip bool) {
	var in submitInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			middleware.Fail(c, apperr.InvalidErr("Invalid request payload.", validation.FromBindError(err, &in)))
			return
		}
	}

	sid, d, cfg, err := h.draft(c)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if in.Email != "" {
		d.Email = in.Email
	}

	outcome, err := h.Flow.Submit(c.Request.Context(), d, cfg, skip)
	h.finishTransition(c, sid, d, cfg, outcome, err)
}

// finishTransition persists the post-transition draft and replies. A
// successful submission discards the draft; a failed one keeps it so the
// shopper lands back on the last interactive step with the box intact.
func (h *BuilderHandler) finishTransition(c *gin.Context, sid string, d *flow.Draft, cfg milestones.Config, outcome flow.Outcome, err error) {
	if err != nil {
		if serr := h.Store.Save(c.Request.Context(), sid, d); serr != nil {
			middleware.Fail(c, apperr.Wrap(serr))
			return
		}
		middleware.Fail(c, err)
		return
	}

	if outcome.Step == flow.StepSuccess {
		// consumed exactly once
		if derr := h.Store.Delete(c.Request.Context(), sid); derr != nil {
			middleware.Fail(c, apperr.Wrap(derr))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"step":         string(outcome.Step),
			"redirect_url": outcome.RedirectURL,
		})
		return
	}

	if !h.save(c, sid, d) {
		return
	}
	h.respondState(c, d, cfg, nil, nil)
}
