package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/maherbs/car-import-advisor/internal/chat"
	"github.com/maherbs/car-import-advisor/internal/config"
	"github.com/maherbs/car-import-advisor/internal/costing"
	"github.com/maherbs/car-import-advisor/internal/eligibility"
	httpapi "github.com/maherbs/car-import-advisor/internal/http"
	"github.com/maherbs/car-import-advisor/internal/logger"
	"github.com/maherbs/car-import-advisor/internal/ranking"
	"github.com/maherbs/car-import-advisor/internal/rates"
	"github.com/maherbs/car-import-advisor/internal/scoring"
	"github.com/maherbs/car-import-advisor/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CIA_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	tables, err := rates.LoadFromFile(cfg.Rates.Path)
	if err != nil {
		log.Info("using default rate tables", zap.Error(err))
	}

	weights, err := scoring.LoadWeightsFromFile(cfg.Scoring.WeightsPath)
	if err != nil {
		log.Info("using default scoring weights", zap.Error(err))
	}

	store, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatal("open sqlite", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	elig := eligibility.New(tables)

	// Seed the catalog on first start only.
	if n, err := store.CountListings(); err == nil && n == 0 {
		listings, err := storage.LoadListingsFromFile(cfg.Storage.SeedPath)
		if err != nil {
			log.Warn("no seed data loaded", zap.Error(err))
		} else {
			storage.NormalizeAll(listings, elig)
			if err := store.UpsertMany(listings); err != nil {
				log.Fatal("seed listings", zap.Error(err))
			}
			log.Info("seeded listings", zap.Int("count", len(listings)))
		}
	}

	calc := costing.NewCalculator(tables, elig)
	engine := scoring.NewEngine(weights, scoring.DefaultBrandTables(), calc)
	pipeline := ranking.New(engine, calc, log)

	chatEngine := scoring.NewEngine(scoring.ChatWeights(), scoring.DefaultBrandTables(), calc)
	chatPipeline := ranking.New(chatEngine, calc, log)
	bot := chat.NewBot(calc, chatPipeline, store, log)

	srv := httpapi.NewServer(pipeline, calc, store, bot, log)
	srv.CandidateCap = cfg.Candidates.Cap
	srv.Stamp = elig.Stamp

	log.Info("API listening", zap.String("address", cfg.Server.Address))
	if err := http.ListenAndServe(cfg.Server.Address, srv.Routes()); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
