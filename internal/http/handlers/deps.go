package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"

	"butik/internal/config"
	"butik/internal/repos"
	"butik/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	ReportHandler  *ReportHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db, prodRepo)
	reportRepo := repos.NewReportRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	catalogSvc := services.NewCatalogService(prodRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(orderRepo)
	reportSvc := services.NewReportService(reportRepo)

	uploads := &Uploads{MediaDir: cfg.MediaDir}

	return &Deps{
		Auth:           authSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc, Users: userRepo},
		ProductHandler: &ProductHandler{Catalog: catalogSvc, Uploads: uploads},
		CartHandler:    &CartHandler{Cart: cartSvc},
		OrderHandler:   &OrderHandler{Order: orderSvc, Uploads: uploads},
		ReportHandler:  &ReportHandler{Reports: reportSvc},
	}
}
