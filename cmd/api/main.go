package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepay/internal/config"
	"coursepay/internal/handler"
	"coursepay/internal/infra/cache"
	"coursepay/internal/infra/db"
	"coursepay/internal/infra/events"
	"coursepay/internal/infra/logger"
	"coursepay/internal/infra/momo"
	"coursepay/internal/infra/pricing"
	infraRepo "coursepay/internal/infra/repository"
	"coursepay/internal/server"
	"coursepay/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load("../.env", ".env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	gateway := momo.NewClient(momo.Config{
		Endpoint:    cfg.Momo.Endpoint,
		PartnerCode: cfg.Momo.PartnerCode,
		AccessKey:   cfg.Momo.AccessKey,
		SecretKey:   cfg.Momo.SecretKey,
		RequestType: cfg.Momo.RequestType,
		RedirectURL: cfg.Momo.RedirectURL,
		IPNURL:      cfg.Momo.IPNURL,
		Timeout:     cfg.Momo.Timeout,
	}, idGen)

	//イベント発行（NATS_URLが無ければログだけ）
	var publisher usecase.EventPublisher = events.NewLogPublisher(log)
	if cfg.NATSURL != "" {
		conn, err := events.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatal("nats connect failed", zap.Error(err))
		}
		defer conn.Close()
		publisher = events.NewNATSPublisher(conn)
	}

	//終端ステータスのキャッシュ（REDIS_ADDRが無ければ使わない）
	var statusCache usecase.StatusCache = cache.NopStatusCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		statusCache = cache.NewRedisStatusCache(rdb, "coursepay", cfg.ReplayCacheTTL)
	}

	//Usecase生成
	oracle := pricing.NewCouponOracle(couponRepo, clock)
	builder := usecase.NewSnapshotBuilder(oracle)
	writer := usecase.NewOrderSnapshotWriter(clock)
	fulfiller := usecase.NewFulfiller(clock, log)

	checkoutUC := usecase.NewCheckoutUsecase(txm, userRepo, builder, writer, gateway, clock, log)
	callbackUC := usecase.NewPaymentCallbackUsecase(txm, orderRepo, gateway, fulfiller, statusCache, publisher, clock,
		usecase.PaymentCallbackConfig{
			Codes:               usecase.ResultCodes{Success: cfg.Momo.SuccessCode, Cancel: cfg.Momo.CancelCode},
			ReturnAppliesResult: cfg.Momo.ReturnAppliesResult,
		}, log)
	orderUC := usecase.NewOrderUsecase(txm, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, clock, log)

	//Handler生成
	e := server.New(cfg, log, userRepo, server.Handlers{
		Health:     handler.NewHealthHandler(gormDB),
		Checkout:   handler.NewCheckoutHandler(checkoutUC),
		Payment:    handler.NewPaymentHandler(callbackUC),
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
	})

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("server starting", zap.String("addr", addr))
	if err := server.Start(ctx, e, addr); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
