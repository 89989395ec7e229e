package main

import (
	"farmmarket/internal/config"
	"farmmarket/internal/domain/model"
	"farmmarket/internal/handler"
	"farmmarket/internal/infra/db"
	infraRepo "farmmarket/internal/infra/repository"
	"farmmarket/internal/logger"
	"farmmarket/internal/server"
	"farmmarket/internal/usecase"
	"farmmarket/internal/validator"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	//.envがなくても環境変数だけで動かせるようにする
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Setup(cfg.LogLevel)

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto migrate failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, authValidator)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	orderUC := usecase.NewOrderUsecase(txManager)
	sellerOrderUC := usecase.NewSellerOrderUsecase(txManager)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:          handler.NewAuthHandler(authUC, cfg),
		Product:       handler.NewProductHandler(productUC),
		FarmerProduct: handler.NewFarmerProductHandler(productUC),
		Order:         handler.NewOrderHandler(orderUC),
		FarmerOrder:   handler.NewFarmerOrderHandler(sellerOrderUC),
		Audit:         handler.NewAuditHandler(auditUC),
	}

	//Server起動
	e := server.New(cfg, handlers, userRepo)

	log.Info().Str("port", cfg.Port).Msg("server starting")

	if err := server.Start(e, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
