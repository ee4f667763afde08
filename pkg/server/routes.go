package server

import (
	"fmt"
	"net/http"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/server/apihandlers"
	"github.com/lexalign/concordance/pkg/server/webhandlers"
)

var log = internal.GetLogger()

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) (*http.Server, error) {
	router, err := setupRouter(appState)
	if err != nil {
		return nil, err
	}
	cfg := appState.Config.Server
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}, nil
}

func setupRouter(appState *models.AppState) (*chi.Mux, error) {
	cfg := appState.Config

	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))
	if len(cfg.Server.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{versionHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	proxy, err := webhandlers.ProxyHandler(cfg.Proxy.CompareServiceURL)
	if err != nil {
		return nil, err
	}

	router.Get("/health", apihandlers.HealthHandler)
	router.Get("/getEnvironment", apihandlers.GetEnvironmentHandler(appState))

	// the proxy streams bodies through unchanged, so it is not size limited
	router.Handle("/proxybackend", proxy)

	router.Group(func(r chi.Router) {
		r.Use(MaxRequestSize(cfg.Server.MaxRequestSize))

		r.Post("/analyzeParas", apihandlers.AnalyzeParasHandler(appState))
		r.Post("/judgeParaDiffs", apihandlers.JudgeParaDiffsHandler(appState))
		r.Post("/analyzeDocuments", apihandlers.AnalyzeDocumentsHandler(appState))
		r.Post("/parseDocuments", apihandlers.ParseDocumentsHandler(appState))
		r.Post("/generateTestFiles", apihandlers.GenerateTestFilesHandler(appState))

		r.Post("/writeConcordanceRecord", apihandlers.WriteConcordanceRecordHandler(appState))
		r.Post("/writeConcordanceFeedback", apihandlers.WriteConcordanceFeedbackHandler(appState))
		r.Get("/getAllConcordanceTests", apihandlers.GetAllConcordanceTestsHandler(appState))
		r.Get("/getConcordanceTestDetails", apihandlers.GetConcordanceTestDetailsHandler(appState))
	})

	// SPA
	for _, route := range webhandlers.SPARoutes {
		router.Get(route, webhandlers.IndexHandler(cfg.Server.StaticDir))
	}
	router.NotFound(webhandlers.StaticHandler(cfg.Server.StaticDir))

	return router, nil
}
