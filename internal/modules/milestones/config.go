package milestones

// Milestone rules: distinct selected products unlock percentage discounts.
// The admin app validates tier2 > tier1 at save time; this side trusts the
// snapshot it reads and only guards against a structurally unusable row.

const (
	DefaultTier1Threshold = 6
	DefaultTier1Percent   = 5
	DefaultTier2Threshold = 10
	DefaultTier2Percent   = 10
)

// TierPlans holds the selling plan IDs attached to cart lines for one
// delivery frequency, one per milestone tier.
type TierPlans struct {
	Tier1 int64 `json:"tier1"`
	Tier2 int64 `json:"tier2"`
}

type Config struct {
	Tier1Threshold int
	Tier1Percent   int
	Tier2Threshold int
	Tier2Percent   int

	// keyed by frequency code, e.g. "2_weeks", "1_month"
	SellingPlans map[string]TierPlans

	// shopper-facing copy overrides; see Message
	Messages map[string]string
}

func Defaults() Config {
	return Config{
		Tier1Threshold: DefaultTier1Threshold,
		Tier1Percent:   DefaultTier1Percent,
		Tier2Threshold: DefaultTier2Threshold,
		Tier2Percent:   DefaultTier2Percent,
		SellingPlans:   map[string]TierPlans{},
	}
}

// Usable reports whether the row can drive the wizard at all.
func (c Config) Usable() bool {
	return c.Tier1Threshold > 0 && c.Tier2Threshold > c.Tier1Threshold
}

// Tier is the resolved discount for a distinct-product count.
type Tier struct {
	Percent int
	// next threshold to unlock, nil once tier2 is reached
	NextThreshold *int
}

// ComputeTier is a pure function of the distinct selected product count,
// not of summed quantities.
func (c Config) ComputeTier(count int) Tier {
	switch {
	case count >= c.Tier2Threshold:
		return Tier{Percent: c.Tier2Percent}
	case count >= c.Tier1Threshold:
		next := c.Tier2Threshold
		return Tier{Percent: c.Tier1Percent, NextThreshold: &next}
	default:
		next := c.Tier1Threshold
		return Tier{Percent: 0, NextThreshold: &next}
	}
}

// Progress maps the count onto the milestone progress bar: 0..tier1 fills
// 0..50%, tier1..tier2 fills 50..100%, capped at 100.
func (c Config) Progress(count int) float64 {
	if count <= 0 {
		return 0
	}
	if count >= c.Tier2Threshold {
		return 100
	}
	if count < c.Tier1Threshold {
		return float64(count) / float64(c.Tier1Threshold) * 50
	}
	span := float64(c.Tier2Threshold - c.Tier1Threshold)
	return 50 + float64(count-c.Tier1Threshold)/span*50
}

// SellingPlanFor resolves the recurring-billing plan for a frequency at the
// tier the count lands in. Zero means no plan is configured for that pair.
func (c Config) SellingPlanFor(frequency string, count int) int64 {
	plans, ok := c.SellingPlans[frequency]
	if !ok {
		return 0
	}
	if count >= c.Tier2Threshold {
		return plans.Tier2
	}
	return plans.Tier1
}

// Frequencies lists the configured delivery frequency codes. Order is not
// guaranteed; the view layer sorts for display.
func (c Config) Frequencies() []string {
	out := make([]string, 0, len(c.SellingPlans))
	for f := range c.SellingPlans {
		out = append(out, f)
	}
	return out
}

// ValidFrequency reports whether the code has a configured plan set.
func (c Config) ValidFrequency(code string) bool {
	_, ok := c.SellingPlans[code]
	return ok
}

// defaultMessages is the hardcoded shopper copy; per-shop overrides from the
// settings row win key by key.
var defaultMessages = map[string]string{
	"empty_catalog":    "No subscription products are available right now. Please try again.",
	"min_count":        "Pick a few more cuts to build your box.",
	"tier_unlocked":    "Discount unlocked!",
	"stock_clamped":    "We adjusted a quantity due to limited stock.",
	"stock_removed":    "An item left your box because it sold out.",
	"guard_policy":     "Subscription boxes are updated all together. Your cart was reset so you can rebuild it.",
	"submit_failed":    "We couldn't add your box to the cart. Please try again.",
	"missing_products": "Your box is empty. Add some products first.",
}

func (c Config) Message(key string) string {
	if m, ok := c.Messages[key]; ok && m != "" {
		return m
	}
	return defaultMessages[key]
}
