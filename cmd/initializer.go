package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"

	"firebase.google.com/go/messaging"
	"github.com/redis/go-redis/v9"

	"qamqorBack/internal/config"
	"qamqorBack/internal/handlers"
	"qamqorBack/internal/repositories"
	"qamqorBack/internal/services"
)

type application struct {
	cfg      config.Config
	errorLog *log.Logger
	infoLog  *log.Logger

	donationHandler     *handlers.DonationHandler
	managerHandler      *handlers.DonationManagerHandler
	webhookHandler      *handlers.WebhookHandler
	notificationHandler *handlers.NotificationHandler
}

func initializeApp(cfg config.Config, db *sql.DB, rdb *redis.Client, fcm *messaging.Client, logger *slog.Logger, errorLog, infoLog *log.Logger) (*application, error) {
	// Repositories
	donationRepo := repositories.NewDonationRepository(db)
	organizationRepo := repositories.NewOrganizationRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	managerRepo := repositories.NewDonationManagerRepository(db)
	claimRepo := repositories.NewLedgerClaimRepository(db)
	rewardRepo := repositories.NewRewardRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewNotifyTokenRepository(db)

	// Services
	gateway, err := services.NewStripeService(services.StripeConfig{
		SecretKey:     cfg.Payments.SecretKey,
		WebhookSecret: cfg.Payments.WebhookSecret,
		BaseURL:       cfg.Payments.BaseURL,
		Currency:      cfg.Payments.Currency,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	notificationService := &services.NotificationService{
		Messaging: fcm,
		Tokens:    tokenRepo,
		Logger:    logger,
	}
	reconciliation := &services.ReconciliationService{
		Gateway:       gateway,
		Donations:     donationRepo,
		Organizations: organizationRepo,
		Events:        eventRepo,
		Managers:      managerRepo,
		Rewards:       rewardRepo,
		Claims:        claimRepo,
		Notifier:      notificationService,
		RDB:           rdb,
		Logger:        logger,
	}
	donationService := &services.DonationService{
		Gateway:   gateway,
		Donations: donationRepo,
		Events:    eventRepo,
		Customers: customerRepo,
		Users:     userRepo,
		FlatFee:   cfg.Payments.FlatFee,
		Logger:    logger,
	}
	managerService := &services.DonationManagerService{
		Gateway:          gateway,
		Managers:         managerRepo,
		Organizations:    organizationRepo,
		Donations:        donationRepo,
		Rewards:          rewardRepo,
		Customers:        customerRepo,
		Users:            userRepo,
		FlatFee:          cfg.Payments.FlatFee,
		AllowedIntervals: cfg.Payments.AllowedIntervals,
		Logger:           logger,
	}

	return &application{
		cfg:      cfg,
		errorLog: errorLog,
		infoLog:  infoLog,
		donationHandler: &handlers.DonationHandler{
			Service: donationService,
		},
		managerHandler: &handlers.DonationManagerHandler{
			Service: managerService,
		},
		webhookHandler: &handlers.WebhookHandler{
			Verifier:  gateway,
			Processor: reconciliation,
			Logger:    logger,
		},
		notificationHandler: &handlers.NotificationHandler{
			Service: notificationService,
		},
	}, nil
}

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.errorLog.Output(2, err.Error())
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
