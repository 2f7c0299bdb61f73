package main

import (
	"context"

	"github.com/binify/binify/cache"
	"github.com/binify/binify/config"
	"github.com/binify/binify/hashpool"
	"github.com/binify/binify/models"
	"github.com/binify/binify/routes"
	"github.com/binify/binify/services"
	"github.com/binify/binify/storage"
	"github.com/binify/binify/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Bin{}, &models.View{}, &models.Like{}, &models.Comment{})

	redisClient := utils.GetRedis()

	blobs, err := storage.NewS3Store(storage.S3Config{
		Endpoint:        cfg.BlobEndpoint,
		Region:          cfg.BlobRegion,
		Bucket:          cfg.BlobBucket,
		AccessKeyID:     cfg.BlobAccessKeyID,
		SecretAccessKey: cfg.BlobSecretAccessKey,
		PublicBaseURL:   cfg.BlobPublicBaseURL,
		Timeout:         cfg.BlobTimeout(),
	})
	if err != nil {
		utils.Sugar.Fatalf("blob store init failed: %v", err)
	}

	pool := hashpool.New(hashpool.NewRedisStore(redisClient), hashpool.Config{
		LowWatermark: cfg.PoolLowWatermark,
		BatchSize:    cfg.PoolBatchSize,
		Interval:     cfg.PoolInterval(),
	}, utils.Sugar)

	binCache := cache.New(cache.NewRedisStore(redisClient), cfg.CacheMetaTTL(), cfg.CacheContentTTL(), utils.Sugar)

	binService := services.NewBinService(db, blobs, pool, binCache, utils.Sugar)
	interactionService := services.NewInteractionService(db, binCache, utils.Sugar)
	searchService := services.NewSearchService(db)
	reaper := services.NewReaper(db, binService, cfg.ReaperInterval(), utils.Sugar)

	ctx, cancel := context.WithCancel(context.Background())
	go pool.Run(ctx)
	go reaper.Run(ctx)

	r := routes.SetupRouter(db, binService, interactionService, searchService)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, cancel); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
