package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tripflow/flightfinder/internal/airports"
	"github.com/tripflow/flightfinder/internal/api"
	"github.com/tripflow/flightfinder/internal/config"
	"github.com/tripflow/flightfinder/internal/flights"
	"github.com/tripflow/flightfinder/internal/geocoding"
	"github.com/tripflow/flightfinder/internal/geonames"
	"github.com/tripflow/flightfinder/internal/nlq"
	"github.com/tripflow/flightfinder/internal/resolver"
	"github.com/tripflow/flightfinder/internal/search"
	"github.com/tripflow/flightfinder/internal/storage/sqlite"
	"github.com/tripflow/flightfinder/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	query := flag.String("query", "", "run a single natural-language search and exit")
	flag.Parse()

	// A missing .env file is the normal production case
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *query); err != nil {
		log.Error("Fatal error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, query string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, err := airports.LoadFile(cfg.Airports.DatasetPath, log)
	if err != nil {
		return err
	}

	geocoder := geocoding.NewClient(
		cfg.Geocoding.BaseURL,
		cfg.Geocoding.UserAgent,
		cfg.Geocoding.MaxResults,
		time.Duration(cfg.Geocoding.TimeoutSeconds)*time.Second,
		log,
	)
	directory := geonames.NewClient(
		cfg.GeoNames.BaseURL,
		cfg.GeoNames.Username,
		cfg.GeoNames.MaxRows,
		time.Duration(cfg.GeoNames.TimeoutSeconds)*time.Second,
		log,
	)

	orchestrator := resolver.NewOrchestrator(
		[]resolver.Resolver{
			resolver.NewLocal(table, cfg.Resolver.FuzzyThreshold, log),
			resolver.NewGeocode(geocoder, table, cfg.Resolver.SearchRadiusKM, log),
			resolver.NewDirectory(directory, log),
		},
		cfg.Resolver.AcceptanceThreshold,
		time.Duration(cfg.Resolver.TimeoutSeconds)*time.Second,
		log,
	)

	var cache resolver.Cache
	if cfg.Storage.Enabled {
		db, err := sqlite.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		cache, err = sqlite.NewResolutionStorage(
			db,
			time.Duration(cfg.Storage.CacheTTLDays)*24*time.Hour,
			log,
		)
		if err != nil {
			return err
		}
	}

	resolverService := resolver.NewService(orchestrator, cache, log)

	parser := nlq.NewParser(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, log)
	var formatter search.AnswerFormatter
	if cfg.LLM.FormatAnswers {
		formatter = nlq.NewFormatter(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, log)
	}

	offersClient := flights.NewClient(
		cfg.Flights.BaseURL,
		cfg.Flights.APIHost,
		cfg.Flights.APIKey,
		cfg.Flights.Currency,
		cfg.Flights.MaxOffers,
		time.Duration(cfg.Flights.TimeoutSeconds)*time.Second,
		log,
	)

	searchService := search.NewService(parser, resolverService, offersClient, formatter, log)

	if query != "" {
		return runQuery(ctx, searchService, query)
	}
	return serve(ctx, cfg, log, searchService, resolverService, table)
}

// runQuery answers a single request on stdout.
func runQuery(ctx context.Context, searchService *search.Service, query string) error {
	response, err := searchService.Search(ctx, query)
	if err != nil && !errors.Is(err, search.ErrEndpointUnresolved) {
		return err
	}

	if response.Answer != "" {
		fmt.Println(response.Answer)
		return nil
	}

	encoded, encodeErr := json.MarshalIndent(response, "", "  ")
	if encodeErr != nil {
		return encodeErr
	}
	fmt.Println(string(encoded))
	return err
}

// serve runs the HTTP API until the context is cancelled.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger, searchService *search.Service, resolverService *resolver.Service, table *airports.Table) error {
	router := api.NewRouter(searchService, resolverService, table, cfg, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
