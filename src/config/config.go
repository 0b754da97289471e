package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret          string
	Port               string
	DatabasePath       string
	LogLevel           string
	CSRFAuthKey        []byte
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Tax regime knobs. Defaults follow the Receita Federal rules for
	// equities: 20% on day-trade, 15% on swing-trade stock gains with the
	// R$20,000 monthly sell-volume exemption, 20% on FII gains, 15% on BDRs.
	DayTradeRate         float64
	SwingStockRate       float64
	SwingFIIRate         float64
	SwingBDRRate         float64
	StockExemptionVolume float64
	CarryBDRLosses       bool
	BlockShortSales      bool

	// Advisory alert thresholds.
	AlertTaxDueMin        float64
	AlertConcentrationPct float64
	AlertLossFloor        float64
	AlertMinTickers       int

	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	csrfAuthKeyStr := getEnv("CSRF_AUTH_KEY", "a-very-secure-32-byte-long-key-must-be-32-bytes!")
	if len(csrfAuthKeyStr) < 32 {
		log.Fatalf("FATAL: CSRF_AUTH_KEY must be at least 32 bytes long. Current length: %d", len(csrfAuthKeyStr))
	}

	accessTokenExpiry := getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute)
	refreshTokenExpiry := getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)

	Cfg = &AppConfig{
		JWTSecret:          jwtSecret,
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./investimentos.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CSRFAuthKey:        []byte(csrfAuthKeyStr),
		AccessTokenExpiry:  accessTokenExpiry,
		RefreshTokenExpiry: refreshTokenExpiry,

		DayTradeRate:         getEnvAsFloat("TAX_DAY_TRADE_RATE", 0.20),
		SwingStockRate:       getEnvAsFloat("TAX_SWING_STOCK_RATE", 0.15),
		SwingFIIRate:         getEnvAsFloat("TAX_SWING_FII_RATE", 0.20),
		SwingBDRRate:         getEnvAsFloat("TAX_SWING_BDR_RATE", 0.15),
		StockExemptionVolume: getEnvAsFloat("TAX_STOCK_EXEMPTION_VOLUME", 20000),
		CarryBDRLosses:       getEnvAsBool("TAX_CARRY_BDR_LOSSES", true),
		BlockShortSales:      getEnvAsBool("BLOCK_SHORT_SALES", true),

		AlertTaxDueMin:        getEnvAsFloat("ALERT_TAX_DUE_MIN", 10),
		AlertConcentrationPct: getEnvAsFloat("ALERT_CONCENTRATION_PCT", 30),
		AlertLossFloor:        getEnvAsFloat("ALERT_LOSS_FLOOR", -1000),
		AlertMinTickers:       getEnvAsInt("ALERT_MIN_TICKERS", 5),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "Gestor B3"),
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" || Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN and MAILGUN_PRIVATE_API_KEY are required when EMAIL_SERVICE_PROVIDER is 'mailgun'.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, EmailProvider=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.EmailServiceProvider)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
