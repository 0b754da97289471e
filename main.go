package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/gestorb3/src/config"
	"github.com/username/gestorb3/src/database"
	"github.com/username/gestorb3/src/handlers"
	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/processors"
	"github.com/username/gestorb3/src/security"
	"github.com/username/gestorb3/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request with an ID so log lines from
// one request can be correlated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logger.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("GestorB3 backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(15*time.Minute, 30*time.Minute)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()

	resultProcessor := processors.NewResultProcessor(processors.NewAssetClassifier())
	taxProcessor := processors.NewTaxProcessor(processors.TaxPolicy{
		DayTradeRate:         config.Cfg.DayTradeRate,
		SwingStockRate:       config.Cfg.SwingStockRate,
		SwingFIIRate:         config.Cfg.SwingFIIRate,
		SwingBDRRate:         config.Cfg.SwingBDRRate,
		StockExemptionVolume: config.Cfg.StockExemptionVolume,
		CarryBDRLosses:       config.Cfg.CarryBDRLosses,
	})
	earningsProcessor := processors.NewEarningsProcessor()
	alertProcessor := processors.NewAlertProcessor(processors.AlertThresholds{
		TaxDueMin:        config.Cfg.AlertTaxDueMin,
		ConcentrationPct: config.Cfg.AlertConcentrationPct,
		LossFloor:        config.Cfg.AlertLossFloor,
		MinTickers:       config.Cfg.AlertMinTickers,
	})

	reportService := services.NewReportService(
		resultProcessor, taxProcessor, earningsProcessor, alertProcessor,
		reportCache,
	)

	userHandler := handlers.NewUserHandler(authService)
	operationHandler := handlers.NewOperationHandler(reportService)
	earningHandler := handlers.NewEarningHandler(reportService)
	reportHandler := handlers.NewReportHandler(reportService, emailService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)

	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.Handle("POST /logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", handlers.CSRFMiddleware()(authActionRouter)))

	csrfProtection := handlers.CSRFMiddleware()
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("GET /api/operations", applyCsrfAndAuth(operationHandler.HandleListOperations))
	apiRouter.Handle("POST /api/operations", applyCsrfAndAuth(operationHandler.HandleInsertOperation))
	apiRouter.Handle("PUT /api/operations/{id}", applyCsrfAndAuth(operationHandler.HandleUpdateOperation))
	apiRouter.Handle("DELETE /api/operations/{id}", applyCsrfAndAuth(operationHandler.HandleDeleteOperation))
	apiRouter.Handle("DELETE /api/operations", applyCsrfAndAuth(operationHandler.HandleDeleteAllOperations))

	apiRouter.Handle("GET /api/earnings", applyCsrfAndAuth(earningHandler.HandleListEarnings))
	apiRouter.Handle("POST /api/earnings", applyCsrfAndAuth(earningHandler.HandleInsertEarning))
	apiRouter.Handle("DELETE /api/earnings/{id}", applyCsrfAndAuth(earningHandler.HandleDeleteEarning))
	apiRouter.Handle("DELETE /api/earnings", applyCsrfAndAuth(earningHandler.HandleDeleteAllEarnings))

	apiRouter.Handle("GET /api/positions", applyCsrfAndAuth(reportHandler.HandleGetPositions))
	apiRouter.Handle("GET /api/realizations", applyCsrfAndAuth(reportHandler.HandleGetRealizations))
	apiRouter.Handle("GET /api/tax/summary", applyCsrfAndAuth(reportHandler.HandleGetTaxSummary))
	apiRouter.Handle("GET /api/reports/alerts", applyCsrfAndAuth(reportHandler.HandleGetAlerts))
	apiRouter.Handle("GET /api/reports/ticker/{ticker}", applyCsrfAndAuth(reportHandler.HandleGetTickerHistory))
	apiRouter.Handle("GET /api/reports/analytic", applyCsrfAndAuth(reportHandler.HandleGetAnalyticReport))
	apiRouter.Handle("POST /api/reports/tax-reminder", applyCsrfAndAuth(reportHandler.HandleSendTaxReminder))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "GestorB3 Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(requestIDMiddleware(rootMux)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
