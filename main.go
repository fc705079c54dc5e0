package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"platinumlist-scraper/config"
	"platinumlist-scraper/media"
	"platinumlist-scraper/models"
	"platinumlist-scraper/scraper/platinumlist"
	"platinumlist-scraper/storage"
	"platinumlist-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	ctx := context.Background()

	logger.Info("=== Platinumlist listing scraper starting ===")
	logger.Info("Config — rate: %dms | settle: %dms | nav timeout: %ds | max pages: %d",
		cfg.RateLimitMs, cfg.SettleDelayMs, cfg.NavTimeoutSec, cfg.MaxPages)

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	uploader, err := storage.NewS3Uploader(ctx, cfg.S3Region, cfg.S3Bucket)
	if err != nil {
		logger.Error("Failed to build S3 uploader: %v", err)
		os.Exit(1)
	}

	driver, err := platinumlist.NewChromeDriver(cfg)
	if err != nil {
		logger.Error("Failed to launch browser: %v", err)
		os.Exit(1)
	}
	defer driver.Close()

	images := media.NewPipeline(uploader, cfg.ImageQuality, logger)
	pipeline := platinumlist.NewPipeline(cfg, driver, store, images, logger)

	summary := pipeline.Run(ctx, models.DefaultSources())

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if !summary.Success {
		os.Exit(1)
	}
}
