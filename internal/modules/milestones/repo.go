package milestones

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Settings is the row the admin app writes; this service only reads it.
type Settings struct {
	ID             uint           `gorm:"primaryKey"`
	Tier1Threshold int            `gorm:"column:tier1_threshold"`
	Tier1Percent   int            `gorm:"column:tier1_percent"`
	Tier2Threshold int            `gorm:"column:tier2_threshold"`
	Tier2Percent   int            `gorm:"column:tier2_percent"`
	SellingPlans   datatypes.JSON `gorm:"type:json"` // map[frequency]TierPlans
	Messages       datatypes.JSON `gorm:"type:json"` // map[key]override
	UpdatedAt      time.Time
}

func (Settings) TableName() string { return "shop_settings" }

type Repo struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRepo(db *gorm.DB, l *slog.Logger) *Repo { return &Repo{db: db, log: l} }

// Snapshot loads the shop's milestone config. A missing or unusable row
// falls back to the documented defaults rather than failing the wizard.
func (r *Repo) Snapshot(ctx context.Context) Config {
	var row Settings
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.LogAttrs(ctx, slog.LevelWarn, "milestone_settings_load_failed",
				slog.Any("err", err),
			)
		}
		return Defaults()
	}
	if row.ID == 0 {
		return Defaults()
	}

	cfg := Config{
		Tier1Threshold: row.Tier1Threshold,
		Tier1Percent:   row.Tier1Percent,
		Tier2Threshold: row.Tier2Threshold,
		Tier2Percent:   row.Tier2Percent,
		SellingPlans:   map[string]TierPlans{},
	}
	if len(row.SellingPlans) > 0 {
		if err := json.Unmarshal(row.SellingPlans, &cfg.SellingPlans); err != nil {
			r.log.LogAttrs(ctx, slog.LevelWarn, "milestone_selling_plans_malformed",
				slog.Any("err", err),
			)
		}
	}
	if len(row.Messages) > 0 {
		if err := json.Unmarshal(row.Messages, &cfg.Messages); err != nil {
			r.log.LogAttrs(ctx, slog.LevelWarn, "milestone_messages_malformed",
				slog.Any("err", err),
			)
		}
	}

	if !cfg.Usable() {
		r.log.LogAttrs(ctx, slog.LevelWarn, "milestone_settings_unusable",
			slog.Int("tier1", cfg.Tier1Threshold),
			slog.Int("tier2", cfg.Tier2Threshold),
		)
		return Defaults()
	}
	return cfg
}
