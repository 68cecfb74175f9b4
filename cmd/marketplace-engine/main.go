package main

import (
	"fmt"
	"os"

	"github.com/bina-platform/marketplace-engine/internal/auth"
	"github.com/bina-platform/marketplace-engine/internal/config"
	"github.com/bina-platform/marketplace-engine/internal/db"
	"github.com/bina-platform/marketplace-engine/internal/excel"
	httphandler "github.com/bina-platform/marketplace-engine/internal/http"
	"github.com/bina-platform/marketplace-engine/internal/http/middleware"
	"github.com/bina-platform/marketplace-engine/internal/logger"
	"github.com/bina-platform/marketplace-engine/internal/pdf"
	"github.com/bina-platform/marketplace-engine/internal/repository"
	"github.com/bina-platform/marketplace-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	opportunityRepo := repository.NewOpportunityRepository(database)
	proposalRepo := repository.NewProposalRepository(database)
	serviceOfferRepo := repository.NewServiceOfferRepository(database)
	matchRepo := repository.NewMatchRepository(database)
	contractRepo := repository.NewContractRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	reputationRepo := repository.NewReputationRepository(database)
	evaluationRepo := repository.NewEvaluationRepository(database)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	matchingService := service.NewMatchingService(
		opportunityRepo, matchRepo, notificationRepo, reputationRepo, evaluationRepo, cfg, log,
	)
	multiPartyService := service.NewMultiPartyContractService(
		proposalRepo, opportunityRepo, contractRepo, cfg, log,
	)
	contractService := service.NewContractService(
		proposalRepo, serviceOfferRepo, opportunityRepo, contractRepo, multiPartyService, log,
	)
	exportService := service.NewExportService(
		opportunityRepo, matchRepo, contractRepo, excelGenerator, pdfGenerator,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(matchingService, contractService, multiPartyService, exportService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting marketplace engine")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
