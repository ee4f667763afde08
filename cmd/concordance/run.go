package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/pkg/docparser"
	"github.com/lexalign/concordance/pkg/events"
	"github.com/lexalign/concordance/pkg/llms"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/server"
	"github.com/lexalign/concordance/pkg/store/memory"
	"github.com/lexalign/concordance/pkg/store/postgres"
	redisstore "github.com/lexalign/concordance/pkg/store/redis"
	"github.com/redis/go-redis/v9"
)

const (
	ErrStoreTypeNotSet    = "store.type must be set"
	ErrPostgresDSNNotSet  = "store.postgres.dsn must be set"
	ErrRedisAddressNotSet = "store.redis.address must be set"

	StoreTypeMemory   = "memory"
	StoreTypePostgres = "postgres"
	StoreTypeRedis    = "redis"

	shutdownTimeout = 15 * time.Second
)

// run is the entrypoint for the concordance server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring concordance: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting concordance server version %s", config.VersionString)

	config.SetLogLevel(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appState, err := NewAppState(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	recorder := events.NewSessionRecorder(appState.DocumentStore, cfg.Store.RecordsDatabase)
	appState.Sessions = recorder
	if _, err := events.RunSessionRouter(ctx, appState.PubSub, recorder); err != nil {
		log.Fatalf("Failed to start session router: %s", err)
	}

	srv, err := server.Create(appState)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		<-ctx.Done()
		shutdown(srv, appState)
	}()

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// NewAppState creates an AppState from the config file / ENV, connects the
// document store and builds the generation and parsing clients.
func NewAppState(ctx context.Context, cfg *config.Config) (*models.AppState, error) {
	documentStore, err := newDocumentStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := documentStore.OnStart(ctx); err != nil {
		return nil, fmt.Errorf("failed to start document store: %w", err)
	}

	generator, err := llms.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}

	parserClient := llms.NewRetryableHTTPClient(cfg.Retry.HTTPRetryMax, cfg.Parser.Timeout)

	return &models.AppState{
		Generator:      generator,
		DocumentStore:  documentStore,
		DocumentParser: docparser.NewClient(cfg.Parser.URL, parserClient),
		PubSub:         events.NewPubSub(),
		Config:         cfg,
	}, nil
}

// newDocumentStore initializes the document store based on the config file / ENV
func newDocumentStore(ctx context.Context, cfg *config.Config) (models.DocumentStore, error) {
	if cfg.Store.Type == "" {
		return nil, errors.New(ErrStoreTypeNotSet)
	}

	var documentStore models.DocumentStore
	switch cfg.Store.Type {
	case StoreTypeMemory:
		log.Warn("Using the in-memory store, records are lost on restart")
		documentStore = memory.NewDocumentStore()
	case StoreTypePostgres:
		if cfg.Store.Postgres.DSN == "" {
			return nil, errors.New(ErrPostgresDSNNotSet)
		}
		db, err := postgres.NewPostgresConn(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		documentStore = postgres.NewDocumentStore(db)
	case StoreTypeRedis:
		if cfg.Store.Redis.Address == "" {
			return nil, errors.New(ErrRedisAddressNotSet)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Address,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		documentStore = redisstore.NewDocumentStore(client, cfg.Store.Redis.Prefix)
	default:
		return nil, fmt.Errorf("store.type (%s) is not supported", cfg.Store.Type)
	}

	log.Info("Using document store: ", cfg.Store.Type)
	return documentStore, nil
}

// shutdown stops the server, then closes the event bus and the document store.
func shutdown(srv *http.Server, appState *models.AppState) {
	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down server: %v", err)
	}
	if err := appState.PubSub.Close(); err != nil {
		log.Errorf("Error closing event bus: %v", err)
	}
	if err := appState.DocumentStore.Shutdown(ctx); err != nil {
		log.Errorf("Error closing document store: %v", err)
	}
}
