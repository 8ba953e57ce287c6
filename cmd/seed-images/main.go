package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/shinyyama/barter-backend/internal/ai"
	"github.com/shinyyama/barter-backend/internal/config"
	"github.com/shinyyama/barter-backend/internal/db"
	"github.com/shinyyama/barter-backend/internal/logger"
	"github.com/shinyyama/barter-backend/internal/repository"
	"github.com/shinyyama/barter-backend/internal/storage"
	"go.uber.org/zap"
)

type Config struct {
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	GeminiModel     string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-image"`
	StorageBucket   string `env:"STORAGE_BUCKET,required"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
	TimeoutSeconds  int    `env:"TIMEOUT_SECONDS" envDefault:"300"`
	Limit           int    `env:"IMAGE_LIMIT" envDefault:"50"`
}

func main() {
	_ = godotenv.Load()
	appCfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(appCfg.LogLevel, appCfg.LogEncoding)
	defer func() { _ = log.Sync() }()

	if err := run(appCfg, log); err != nil {
		log.Fatal("seed-images failed", zap.Error(err))
	}
}

func run(appCfg *config.Config, log *zap.Logger) error {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	gdb, err := db.Connect(appCfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}

	uploader, err := storage.NewGCSUploader(ctx, cfg.StorageBucket, cfg.CredentialsFile)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer uploader.Close()

	gen := ai.Fallback{
		Secondary: ai.NewPlaceholderClient("", &http.Client{Timeout: 20 * time.Second}),
		Log:       log,
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiImageClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("gemini unavailable, placeholders only", zap.Error(err))
		} else {
			gen.Primary = gemini
		}
	} else {
		log.Info("GEMINI_API_KEY not set, placeholders only")
	}

	done, err := backfill(ctx, repository.NewListingRepository(gdb), gen, uploader, cfg.Limit, log)
	log.Info("seed-images finished", zap.Int("updated", done))
	return err
}

// backfill gives every listing without an image a generated photo. A failure
// on one listing is logged and skipped.
func backfill(ctx context.Context, listings repository.ListingRepository, gen ai.ImageGenerator, up storage.Uploader, limit int, log *zap.Logger) (int, error) {
	targets, err := listings.ListWithoutImage(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list listings: %w", err)
	}
	log.Info("listings without image", zap.Int("count", len(targets)))

	done := 0
	for _, l := range targets {
		lg := log.With(zap.Uint64("listing_id", l.ID))
		categorySlug := ""
		if l.Category != nil {
			categorySlug = l.Category.Slug
		}
		seed := fmt.Sprintf("listing-%d", l.ID)
		img, err := gen.Generate(ctx, seed, ai.BuildListingPrompt(l.TradeWhat, categorySlug))
		if err != nil {
			lg.Warn("generate image failed", zap.Error(err))
			continue
		}
		contentType, ext, ok := imageType(img)
		if !ok {
			lg.Warn("generated data is not an image", zap.String("content_type", contentType))
			continue
		}
		publicURL, err := up.Upload(ctx, fmt.Sprintf("listings/%d%s", l.ID, ext), contentType, img)
		if err != nil {
			lg.Warn("upload failed", zap.Error(err))
			continue
		}
		if err := listings.SetImageURL(ctx, l.ID, publicURL); err != nil {
			lg.Warn("db update failed", zap.Error(err))
			continue
		}
		lg.Info("image stored", zap.String("url", publicURL))
		done++
	}
	return done, nil
}

// imageType sniffs the generated bytes; Gemini returns PNG and the picsum
// placeholder JPEG.
func imageType(data []byte) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(data)
	switch contentType {
	case "image/png":
		return contentType, ".png", true
	case "image/jpeg":
		return contentType, ".jpg", true
	case "image/webp":
		return contentType, ".webp", true
	case "image/gif":
		return contentType, ".gif", true
	}
	return contentType, "", false
}
