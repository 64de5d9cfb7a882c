package flow

import (
	"context"
	"log/slog"

	"marblehills.com/app/internal/modules/milestones"
	"marblehills.com/app/internal/modules/offers"
	"marblehills.com/app/internal/modules/selection"
	"marblehills.com/app/internal/modules/submit"
	"marblehills.com/app/internal/shared/apperr"
)

type Step string

const (
	StepProductSelection   Step = "product_selection"
	StepFrequencySelection Step = "frequency_selection"
	StepOfferSelection     Step = "offer_selection"
	StepSubmitting         Step = "submitting"
	StepSuccess            Step = "success"
	StepFailed             Step = "failed"
)

// Draft is the shopper's wizard session: current step plus everything
// accumulated so far. It serializes into the session store and is consumed
// exactly once by the submitter.
type Draft struct {
	Step      Step                 `json:"step"`
	Frequency string               `json:"frequency,omitempty"`
	Selection *selection.Selection `json:"selection"`
	Offers    offers.PickSet       `json:"offers"`
	Email     string               `json:"email,omitempty"`

	// whether the offer step is part of this session's wizard
	// (set by the frequency transition's probe)
	OffersAvailable bool `json:"offers_available,omitempty"`

	// milestone snapshot, fetched once per session and pinned to the draft
	// so the rules cannot drift mid-wizard
	Milestones *milestones.Config `json:"milestones,omitempty"`
}

func NewDraft() *Draft {
	return &Draft{Step: StepProductSelection, Selection: selection.New()}
}

// Controller owns step gating and orchestrates the sibling managers. All
// collaborators are injected; there is no global lookup and no readiness
// polling — a controller is only constructed once its parts exist.
type Controller struct {
	offers    *offers.Service
	submitter *submit.Service
	log       *slog.Logger
}

func NewController(o *offers.Service, s *submit.Service, l *slog.Logger) *Controller {
	return &Controller{offers: o, submitter: s, log: l}
}

// Outcome reports where a transition landed.
type Outcome struct {
	Step        Step   `json:"step"`
	RedirectURL string `json:"redirect_url,omitempty"`
	// offer step bypassed because no real offers exist
	OffersSkipped bool `json:"offers_skipped,omitempty"`
}

// Next advances the wizard one step, enforcing the forward gates.
func (c *Controller) Next(ctx context.Context, d *Draft, cfg milestones.Config) (Outcome, error) {
	switch d.Step {
	case StepProductSelection:
		if d.Selection.Count() < cfg.Tier1Threshold {
			return Outcome{}, apperr.InvalidErr(cfg.Message("min_count"), nil)
		}
		d.Step = StepFrequencySelection
		return Outcome{Step: d.Step}, nil

	case StepFrequencySelection:
		if d.Frequency == "" {
			return Outcome{}, apperr.InvalidErr("Choose a delivery frequency first.", nil)
		}
		avail, err := c.offers.HasRealOffers(ctx)
		if err != nil {
			// probe failures degrade to "no offers": the shopper still gets
			// their box, just without the add-on step
			c.log.LogAttrs(ctx, slog.LevelWarn, "offer_probe_failed", slog.Any("err", err))
			avail = false
		}
		d.OffersAvailable = avail
		if !avail {
			d.Offers = offers.PickSet{}
			return c.runSubmit(ctx, d, cfg, nil)
		}
		d.Step = StepOfferSelection
		return Outcome{Step: d.Step}, nil

	default:
		return Outcome{}, apperr.InvalidErr("Nothing further from this step.", nil)
	}
}

// Back retreats one step. Never validated: a shopper may always go back
// without meeting the forward gates.
func (c *Controller) Back(d *Draft) Step {
	switch d.Step {
	case StepFrequencySelection:
		d.Step = StepProductSelection
	case StepOfferSelection, StepFailed:
		d.Step = StepFrequencySelection
	}
	return d.Step
}

// SetFrequency records the checked frequency radio.
func (c *Controller) SetFrequency(d *Draft, code string, cfg milestones.Config) error {
	if code == "" {
		return apperr.InvalidErr("Choose a delivery frequency.", nil)
	}
	if len(cfg.SellingPlans) > 0 && !cfg.ValidFrequency(code) {
		return apperr.InvalidErr("That delivery frequency is not available.", nil)
	}
	d.Frequency = code
	return nil
}

// Submit finishes the wizard from the offer step. skip forces an empty
// offer list regardless of what the shopper toggled.
func (c *Controller) Submit(ctx context.Context, d *Draft, cfg milestones.Config, skip bool) (Outcome, error) {
	if d.Step != StepOfferSelection && d.Step != StepFrequencySelection {
		return Outcome{}, apperr.InvalidErr("The box is not ready to submit.", nil)
	}
	if d.Step == StepFrequencySelection {
		// offer step was bypassed; same gate as Next
		if d.Frequency == "" {
			return Outcome{}, apperr.InvalidErr("Choose a delivery frequency first.", nil)
		}
	}

	var picked []offers.Offer
	if skip {
		d.Offers = offers.PickSet{}
	} else if len(d.Offers.IDs) > 0 {
		candidates, err := c.offers.ListCandidates(ctx)
		if err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "offer_resolve_failed", slog.Any("err", err))
		} else {
			picked = offers.Resolve(d.Offers, candidates)
		}
	}
	return c.runSubmit(ctx, d, cfg, picked)
}

func (c *Controller) runSubmit(ctx context.Context, d *Draft, cfg milestones.Config, picked []offers.Offer) (Outcome, error) {
	returnTo := StepFrequencySelection
	if d.Step == StepOfferSelection {
		returnTo = StepOfferSelection
	}
	d.Step = StepSubmitting

	res, err := c.submitter.Submit(ctx, submit.Draft{
		Frequency: d.Frequency,
		Items:     d.Selection.Items,
		Offers:    picked,
		Email:     d.Email,
		Config:    cfg,
	})
	if err != nil {
		// no auto-retry: log, land on the last interactive step
		c.log.LogAttrs(ctx, slog.LevelError, "box_submit_failed", slog.Any("err", err))
		d.Step = returnTo
		return Outcome{Step: d.Step}, err
	}

	d.Step = StepSuccess
	return Outcome{
		Step:          d.Step,
		RedirectURL:   res.RedirectURL,
		OffersSkipped: !d.OffersAvailable,
	}, nil
}
