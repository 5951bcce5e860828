package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleychat/parley/internal/config"
	"github.com/parleychat/parley/internal/email"
	httpserver "github.com/parleychat/parley/internal/server/http"
	"github.com/parleychat/parley/internal/server/ws"
	"github.com/parleychat/parley/internal/service"
	"github.com/parleychat/parley/internal/storage/minio"
	"github.com/parleychat/parley/internal/storage/postgres"
	"github.com/parleychat/parley/internal/storage/redis"
	"github.com/parleychat/parley/pkg/jwt"
	"github.com/parleychat/parley/pkg/logger"
	minioclient "github.com/parleychat/parley/pkg/minio-client"
	postgresclient "github.com/parleychat/parley/pkg/postgres-client"
	redisclient "github.com/parleychat/parley/pkg/redis-client"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	db     *pgxpool.Pool
	rdb    *goredis.Client
	server *httpserver.Server
}

func Register(ctx context.Context, cfg *config.Config) *App {
	const op = "app.Register"

	ctx = logger.GetFromCtx(ctx).With(ctx, zap.String("op", op))

	logger.GetFromCtx(ctx).Info(ctx, "initing postgres")
	pgCfg := postgresclient.NewConfig(
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		cfg.DB.MinPools,
		cfg.DB.MaxPools,
		cfg.DB.MigrationsPath,
	)
	db, err := postgresclient.New(ctx, pgCfg)
	if err != nil {
		logger.GetFromCtx(ctx).Fatal(ctx, "failed to init pgx pool", zap.Error(err))
	}
	storage := postgres.New(db)

	logger.GetFromCtx(ctx).Info(ctx, "initing minio")
	minioCfg := minioclient.NewConfig(
		cfg.S3.Endpoint,
		cfg.S3.User,
		cfg.S3.Password,
		cfg.S3.BucketName,
		cfg.S3.IsUseSsl,
	)
	s3Client, err := minioclient.New(ctx, minioCfg)
	if err != nil {
		logger.GetFromCtx(ctx).Fatal(ctx, "failed to init minio", zap.Error(err))
	}
	s3 := minio.New(s3Client, cfg.S3.BucketName, cfg.S3.Expiration)

	logger.GetFromCtx(ctx).Info(ctx, "initing redis")
	redisCfg := redisclient.NewConfig(
		cfg.Redis.Addr,
		cfg.Redis.User,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	rdb, err := redisclient.New(ctx, redisCfg)
	if err != nil {
		logger.GetFromCtx(ctx).Fatal(ctx, "failed to init redis", zap.Error(err))
	}
	presence := redis.New(rdb, cfg.Redis.Expiration)

	mailer := email.NewSender(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
		cfg.App.BaseUrl,
	)

	hub := ws.NewHub()
	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTTL)

	svc := service.New(storage, presence, s3, mailer, hub, tokens, service.Config{
		RefreshTTL:         cfg.Auth.RefreshTTL,
		ResetTTL:           cfg.Auth.ResetTTL,
		MaxUploadSize:      cfg.App.MaxUploadSize,
		MinPasswordEntropy: cfg.Auth.MinPasswordEntropy,
	})

	server := httpserver.NewServer(ctx, svc, hub, cfg.Port)

	return &App{
		db:     db,
		rdb:    rdb,
		server: server,
	}
}

func (a *App) Run(ctx context.Context) {
	go func() {
		if err := a.server.Run(); err != nil {
			logger.GetFromCtx(ctx).Fatal(ctx, "http server failed", zap.Error(err))
		}
	}()
}

func (a *App) GracefulStop(ctx context.Context) {
	const op = "app.GracefulStop"

	ctx = logger.GetFromCtx(ctx).With(ctx, zap.String("op", op))

	logger.GetFromCtx(ctx).Info(ctx, "stopping http server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to stop http server", zap.Error(err))
	}

	logger.GetFromCtx(ctx).Info(ctx, "stopping redis")
	if err := a.rdb.Close(); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to stop redis", zap.Error(err))
	}

	logger.GetFromCtx(ctx).Info(ctx, "stopping postgres")
	a.db.Close()
}
