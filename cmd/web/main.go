package main

import (
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"marblehills.com/app/internal/config"
	apphttp "marblehills.com/app/internal/http"
	"marblehills.com/app/internal/http/guardnotice"
	"marblehills.com/app/internal/http/handlers"
	"marblehills.com/app/internal/http/sessioncookie"
	"marblehills.com/app/internal/modules/catalog"
	"marblehills.com/app/internal/modules/flow"
	"marblehills.com/app/internal/modules/guard"
	"marblehills.com/app/internal/modules/milestones"
	"marblehills.com/app/internal/modules/offers"
	"marblehills.com/app/internal/modules/submit"
	"marblehills.com/app/internal/shopify"
	"marblehills.com/app/internal/storage/sessions"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg)

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	rdb, err := sessions.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	client := shopify.NewClient(cfg.StorefrontURL, logger)

	catalogSvc := catalog.NewService(client, logger)
	offerSvc := offers.NewService(client, logger)
	submitSvc := submit.NewService(client, logger)
	flowCtrl := flow.NewController(offerSvc, submitSvc, logger)
	cartGuard := guard.New(client, logger)
	milestoneRepo := milestones.NewRepo(db, logger)

	secret := []byte(cfg.SessionSecret)
	sessionCK := sessioncookie.New(secret, "mh_box_session", cfg.CookieSecure)
	noticeCK := guardnotice.NewCodec(secret, "mh_box_notice", cfg.CookieSecure)
	store := sessions.New(rdb, 2*time.Hour)

	builder := handlers.NewBuilderHandler(catalogSvc, offerSvc, flowCtrl, milestoneRepo, store, sessionCK)
	cartProxy := handlers.NewCartProxyHandler(client, cartGuard, noticeCK, milestoneRepo)

	r := apphttp.NewRouter(logger, builder, cartProxy)

	logger.Info("listening", slog.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.IsProduction() || strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
	}))
}
